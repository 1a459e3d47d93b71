package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	SubjectID uuid.UUID
	Kind      enums.PrincipalKind
	AdminRole *enums.AdminRole
	StoreID   *uuid.UUID
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to users and admins.
type AccessTokenClaims struct {
	SubjectID uuid.UUID           `json:"sub_id"`
	Kind      enums.PrincipalKind `json:"kind"`
	AdminRole *enums.AdminRole    `json:"admin_role,omitempty"`
	StoreID   *uuid.UUID          `json:"store_id,omitempty"`
	jwt.RegisteredClaims
}
