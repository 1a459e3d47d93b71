package reminders

import (
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

type ReminderDTO struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Type      enums.ReminderType `json:"type"`
	IsActive  bool               `json:"is_active"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func FromModel(m *models.Reminder) *ReminderDTO {
	if m == nil {
		return nil
	}
	return &ReminderDTO{
		ID:        m.ID,
		Title:     m.Title,
		Content:   m.Content,
		Type:      m.Type,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CreateInput describes a new reminder; Type defaults to general.
type CreateInput struct {
	Title    string             `json:"title" validate:"required,max=200"`
	Content  string             `json:"content" validate:"required,max=2000"`
	Type     enums.ReminderType `json:"type" validate:"omitempty,oneof=general maintenance urgent"`
	IsActive *bool              `json:"is_active,omitempty"`
}

// UpdateInput patches only the provided fields.
type UpdateInput struct {
	Title    *string             `json:"title,omitempty" validate:"omitempty,max=200"`
	Content  *string             `json:"content,omitempty" validate:"omitempty,max=2000"`
	Type     *enums.ReminderType `json:"type,omitempty" validate:"omitempty,oneof=general maintenance urgent"`
	IsActive *bool               `json:"is_active,omitempty"`
}
