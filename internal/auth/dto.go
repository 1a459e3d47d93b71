package auth

import (
	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/internal/admins"
	"github.com/lockerhub/lockerhub-backend/internal/users"
)

// LoginRequest captures phone/password credentials for both login endpoints.
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the self-service signup payload.
type RegisterRequest struct {
	Phone    string     `json:"phone" validate:"required,phone"`
	Name     string     `json:"name" validate:"required,max=100"`
	Password string     `json:"password" validate:"required"`
	StoreID  *uuid.UUID `json:"store_id,omitempty"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserLoginResponse contains the tokens and profile produced by a user login.
type UserLoginResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}

// AdminLoginResponse mirrors UserLoginResponse for back-office operators.
type AdminLoginResponse struct {
	TokenPair
	Admin *admins.AdminDTO `json:"admin"`
}
