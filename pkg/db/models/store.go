package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// Store is a physical retail location that owns lockers.
type Store struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Name      string            `gorm:"column:name;not null;uniqueIndex"`
	Address   string            `gorm:"column:address;not null"`
	Phone     *string           `gorm:"column:phone;uniqueIndex"`
	Status    enums.StoreStatus `gorm:"column:status;type:store_status;not null;default:'active'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Store) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
