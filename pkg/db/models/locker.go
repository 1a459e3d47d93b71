package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// Locker is a single storage unit. CurrentUserID is set exactly when the
// locker is occupied.
type Locker struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey"`
	StoreID       uuid.UUID          `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_lockers_store_number,priority:1"`
	Number        string             `gorm:"column:number;type:text;not null;uniqueIndex:idx_lockers_store_number,priority:2"`
	Status        enums.LockerStatus `gorm:"column:status;type:locker_status;not null;default:'available'"`
	CurrentUserID *uuid.UUID         `gorm:"column:current_user_id;type:uuid"`
	AssignedAt    *time.Time         `gorm:"column:assigned_at"`
	Notes         *string            `gorm:"column:notes"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *Locker) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// IsOccupiedBy reports whether userID is the current occupant.
func (l Locker) IsOccupiedBy(userID uuid.UUID) bool {
	return l.Status == enums.LockerStatusOccupied && l.CurrentUserID != nil && *l.CurrentUserID == userID
}
