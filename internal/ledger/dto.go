package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// RecordDTO is the API shape of a ledger entry.
type RecordDTO struct {
	ID        uuid.UUID                `json:"id"`
	UserID    uuid.UUID                `json:"user_id"`
	LockerID  uuid.UUID                `json:"locker_id"`
	Action    enums.LockerRecordAction `json:"action"`
	Notes     *string                  `json:"notes,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

func FromModel(m models.LockerRecord) RecordDTO {
	return RecordDTO{
		ID:        m.ID,
		UserID:    m.UserID,
		LockerID:  m.LockerID,
		Action:    m.Action,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
	}
}

// ListInput filters a record listing. Zero values mean "no filter".
type ListInput struct {
	UserID   *uuid.UUID
	LockerID *uuid.UUID
	StoreID  *uuid.UUID
	Action   *enums.LockerRecordAction
	From     *time.Time
	To       *time.Time
	Limit    int
	Cursor   string
}

// ExportInput bounds a spreadsheet export to a store and a date range.
type ExportInput struct {
	StoreID *uuid.UUID
	From    *time.Time
	To      *time.Time
}

// Export is a rendered spreadsheet ready to be streamed.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}
