package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// Application is a user's request for a locker at a store.
type Application struct {
	ID               uuid.UUID               `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	StoreID          uuid.UUID               `gorm:"column:store_id;type:uuid;not null;index"`
	Purpose          *string                 `gorm:"column:purpose"`
	Notes            *string                 `gorm:"column:notes"`
	Status           enums.ApplicationStatus `gorm:"column:status;type:application_status;not null;default:'pending'"`
	AssignedLockerID *uuid.UUID              `gorm:"column:assigned_locker_id;type:uuid"`
	ApprovedBy       *uuid.UUID              `gorm:"column:approved_by;type:uuid"`
	ApprovedAt       *time.Time              `gorm:"column:approved_at"`
	RejectionReason  *string                 `gorm:"column:rejection_reason"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Application) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
