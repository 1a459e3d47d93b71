package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// LockerRecord is an append-only ledger entry for a locker event.
type LockerRecord struct {
	ID        uuid.UUID                `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	LockerID  uuid.UUID                `gorm:"column:locker_id;type:uuid;not null;index"`
	Action    enums.LockerRecordAction `gorm:"column:action;type:locker_record_action;not null"`
	Notes     *string                  `gorm:"column:notes"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime;index"`
}

func (r *LockerRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
