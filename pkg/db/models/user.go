package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// User is an end customer who applies for and uses lockers.
type User struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Phone        string           `gorm:"column:phone;not null;uniqueIndex"`
	Name         string           `gorm:"column:name;not null"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	StoreID      *uuid.UUID       `gorm:"column:store_id;type:uuid"`
	Status       enums.UserStatus `gorm:"column:status;type:user_status;not null;default:'active'"`
	LastActiveAt *time.Time       `gorm:"column:last_active_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
