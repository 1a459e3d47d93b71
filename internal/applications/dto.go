package applications

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// ApplicationDTO is the API view of an application. IsPending and
// ProcessingDays are derived at mapping time and never stored.
type ApplicationDTO struct {
	ID               uuid.UUID               `json:"id"`
	UserID           uuid.UUID               `json:"user_id"`
	StoreID          uuid.UUID               `json:"store_id"`
	Purpose          *string                 `json:"purpose,omitempty"`
	Notes            *string                 `json:"notes,omitempty"`
	Status           enums.ApplicationStatus `json:"status"`
	AssignedLockerID *uuid.UUID              `json:"assigned_locker_id,omitempty"`
	ApprovedBy       *uuid.UUID              `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time              `json:"approved_at,omitempty"`
	RejectionReason  *string                 `json:"rejection_reason,omitempty"`
	IsPending        bool                    `json:"is_pending"`
	ProcessingDays   int                     `json:"processing_days"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// ToView maps a stored application for the API. Processing days count from
// submission to resolution, or to now while still pending.
func ToView(m *models.Application, now time.Time) *ApplicationDTO {
	if m == nil {
		return nil
	}
	end := now
	if m.ApprovedAt != nil {
		end = *m.ApprovedAt
	}
	return &ApplicationDTO{
		ID:               m.ID,
		UserID:           m.UserID,
		StoreID:          m.StoreID,
		Purpose:          m.Purpose,
		Notes:            m.Notes,
		Status:           m.Status,
		AssignedLockerID: m.AssignedLockerID,
		ApprovedBy:       m.ApprovedBy,
		ApprovedAt:       m.ApprovedAt,
		RejectionReason:  m.RejectionReason,
		IsPending:        m.Status == enums.ApplicationStatusPending,
		ProcessingDays:   processingDays(m.CreatedAt, end),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func processingDays(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

// SubmitInput is what a user supplies when applying for a locker.
type SubmitInput struct {
	StoreID uuid.UUID
	Purpose *string
	Notes   *string
}

// ApproveInput optionally pins the locker to assign.
type ApproveInput struct {
	LockerID *uuid.UUID
	Notes    *string
}

// ListInput filters application listings.
type ListInput struct {
	StoreID *uuid.UUID
	UserID  *uuid.UUID
	Status  *enums.ApplicationStatus
	Limit   int
	Cursor  string
}
