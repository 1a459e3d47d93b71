package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/admins"
	"github.com/lockerhub/lockerhub-backend/internal/users"
	pkgAuth "github.com/lockerhub/lockerhub-backend/pkg/auth"
	"github.com/lockerhub/lockerhub-backend/pkg/auth/session"
	"github.com/lockerhub/lockerhub-backend/pkg/config"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	LoginUser(ctx context.Context, req LoginRequest) (*UserLoginResponse, error)
	LoginAdmin(ctx context.Context, req LoginRequest) (*AdminLoginResponse, error)
	Refresh(ctx context.Context, accessID, refreshToken string) (*TokenPair, error)
}

type userRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error
}

type adminRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.Admin, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, owner session.Owner) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, session.Owner, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	AdminRepo      adminRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	Now            func() time.Time
}

type service struct {
	users   userRepository
	admins  adminRepository
	session sessionManager
	jwtCfg  config.JWTConfig
	now     func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.AdminRepo == nil {
		return nil, fmt.Errorf("admin repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		users:   params.UserRepo,
		admins:  params.AdminRepo,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
		now:     now,
	}, nil
}

func (s *service) LoginUser(ctx context.Context, req LoginRequest) (*UserLoginResponse, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if err := checkPassword(req.Password, user.PasswordHash); err != nil {
		return nil, err
	}
	if user.Status != enums.UserStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is suspended")
	}

	now := s.now()
	if err := s.users.TouchLastActive(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last active")
	}
	user.LastActiveAt = &now

	pair, err := s.issue(ctx, now, pkgAuth.AccessTokenPayload{
		SubjectID: user.ID,
		Kind:      enums.PrincipalKindUser,
	})
	if err != nil {
		return nil, err
	}
	return &UserLoginResponse{TokenPair: *pair, User: users.FromModel(user)}, nil
}

func (s *service) LoginAdmin(ctx context.Context, req LoginRequest) (*AdminLoginResponse, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	admin, err := s.admins.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin")
	}
	if err := checkPassword(req.Password, admin.PasswordHash); err != nil {
		return nil, err
	}
	if admin.Status != enums.AdminStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now()
	if err := s.admins.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	admin.LastLoginAt = &now

	pair, err := s.issue(ctx, now, adminPayload(admin))
	if err != nil {
		return nil, err
	}
	return &AdminLoginResponse{TokenPair: *pair, Admin: admins.FromModel(admin)}, nil
}

// Refresh rotates the session behind accessID and mints a token from the
// subject's current row, so role or status changes apply on the next refresh.
func (s *service) Refresh(ctx context.Context, accessID, refreshToken string) (*TokenPair, error) {
	newAccessID, newRefresh, owner, err := s.session.Rotate(ctx, accessID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	var payload pkgAuth.AccessTokenPayload
	switch owner.Kind {
	case enums.PrincipalKindUser:
		user, err := s.users.FindByID(ctx, owner.SubjectID)
		if err != nil || user.Status != enums.UserStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session owner is no longer active")
		}
		payload = pkgAuth.AccessTokenPayload{SubjectID: user.ID, Kind: enums.PrincipalKindUser}
	case enums.PrincipalKindAdmin:
		admin, err := s.admins.FindByID(ctx, owner.SubjectID)
		if err != nil || admin.Status != enums.AdminStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session owner is no longer active")
		}
		payload = adminPayload(admin)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
	}

	payload.JTI = newAccessID
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenPair{AccessToken: token, RefreshToken: newRefresh}, nil
}

func (s *service) issue(ctx context.Context, now time.Time, payload pkgAuth.AccessTokenPayload) (*TokenPair, error) {
	payload.JTI = session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, payload.JTI, session.Owner{
		SubjectID: payload.SubjectID,
		Kind:      payload.Kind,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func adminPayload(admin *models.Admin) pkgAuth.AccessTokenPayload {
	role := admin.Role
	return pkgAuth.AccessTokenPayload{
		SubjectID: admin.ID,
		Kind:      enums.PrincipalKindAdmin,
		AdminRole: &role,
		StoreID:   admin.StoreID,
	}
}

func checkPassword(password, hash string) error {
	valid, err := security.VerifyPassword(password, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return nil
}
