package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// Reminder is an informational notice shown to users.
type Reminder struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Title     string             `gorm:"column:title;not null"`
	Content   string             `gorm:"column:content;not null"`
	Type      enums.ReminderType `gorm:"column:type;type:reminder_type;not null;default:'general'"`
	IsActive  bool               `gorm:"column:is_active;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Reminder) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
