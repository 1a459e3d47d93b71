package lockers

import (
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// LockerDTO is the API shape of a locker.
type LockerDTO struct {
	ID            uuid.UUID          `json:"id"`
	StoreID       uuid.UUID          `json:"store_id"`
	Number        string             `json:"number"`
	Status        enums.LockerStatus `json:"status"`
	CurrentUserID *uuid.UUID         `json:"current_user_id,omitempty"`
	AssignedAt    *time.Time         `json:"assigned_at,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func FromModel(m *models.Locker) *LockerDTO {
	if m == nil {
		return nil
	}
	return &LockerDTO{
		ID:            m.ID,
		StoreID:       m.StoreID,
		Number:        m.Number,
		Status:        m.Status,
		CurrentUserID: m.CurrentUserID,
		AssignedAt:    m.AssignedAt,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// CreateLockerInput holds the fields an admin supplies for a new locker.
type CreateLockerInput struct {
	StoreID uuid.UUID
	Number  string
	Notes   *string
}

// UpdateLockerInput edits an available locker; nil fields are left alone.
type UpdateLockerInput struct {
	Number *string
	Notes  *string
}

// ListInput filters locker listings.
type ListInput struct {
	StoreID *uuid.UUID
	Status  *enums.LockerStatus
}
