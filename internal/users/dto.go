package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID           uuid.UUID        `json:"id"`
	Phone        string           `json:"phone"`
	Name         string           `json:"name"`
	StoreID      *uuid.UUID       `json:"store_id,omitempty"`
	Status       enums.UserStatus `json:"status"`
	LastActiveAt *time.Time       `json:"last_active_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Phone        string
	Name         string
	PasswordHash string
	StoreID      *uuid.UUID
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:           u.ID,
		Phone:        u.Phone,
		Name:         u.Name,
		StoreID:      u.StoreID,
		Status:       u.Status,
		LastActiveAt: u.LastActiveAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Phone:        c.Phone,
		Name:         c.Name,
		PasswordHash: c.PasswordHash,
		StoreID:      c.StoreID,
		Status:       enums.UserStatusActive,
	}
}

// ListInput filters the admin user listing.
type ListInput struct {
	StoreID *uuid.UUID
	Status  *enums.UserStatus
	Search  string
	Limit   int
	Cursor  string
}
