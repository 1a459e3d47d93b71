package admins

import (
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// AdminDTO never carries the password hash.
type AdminDTO struct {
	ID          uuid.UUID         `json:"id"`
	Phone       string            `json:"phone"`
	Name        string            `json:"name"`
	Role        enums.AdminRole   `json:"role"`
	StoreID     *uuid.UUID        `json:"store_id,omitempty"`
	Status      enums.AdminStatus `json:"status"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func FromModel(m *models.Admin) *AdminDTO {
	if m == nil {
		return nil
	}
	return &AdminDTO{
		ID:          m.ID,
		Phone:       m.Phone,
		Name:        m.Name,
		Role:        m.Role,
		StoreID:     m.StoreID,
		Status:      m.Status,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}

// CreateAdminInput is what a super admin supplies for a new operator.
type CreateAdminInput struct {
	Phone   string
	Name    string
	Role    enums.AdminRole
	StoreID *uuid.UUID
}

// CreatedAdmin pairs the new admin with the one-time password to hand over.
type CreatedAdmin struct {
	Admin        *AdminDTO `json:"admin"`
	TempPassword string    `json:"temp_password"`
}
