package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// Admin is a back-office operator. Store admins are bound to one store;
// super admins span all stores.
type Admin struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Phone        string            `gorm:"column:phone;not null;uniqueIndex"`
	Name         string            `gorm:"column:name;not null"`
	PasswordHash string            `gorm:"column:password_hash;not null"`
	Role         enums.AdminRole   `gorm:"column:role;type:admin_role;not null"`
	StoreID      *uuid.UUID        `gorm:"column:store_id;type:uuid"`
	Status       enums.AdminStatus `gorm:"column:status;type:admin_status;not null;default:'active'"`
	LastLoginAt  *time.Time        `gorm:"column:last_login_at"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Admin) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
