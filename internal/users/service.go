package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
	"github.com/lockerhub/lockerhub-backend/pkg/pagination"
)

type usersRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, params listParams) ([]models.User, *pagination.Cursor, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus) (bool, error)
}

// Service exposes profile reads and admin user management.
type Service interface {
	Me(ctx context.Context, p policy.Principal) (*UserDTO, error)
	Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, p policy.Principal, input ListInput) ([]UserDTO, string, error)
	SetStatus(ctx context.Context, p policy.Principal, id uuid.UUID, status enums.UserStatus) (*UserDTO, error)
}

type service struct {
	repo usersRepository
	logg *logger.Logger
}

// NewService builds the user service.
func NewService(repo usersRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Me(ctx context.Context, p policy.Principal) (*UserDTO, error) {
	if !p.IsUser() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user access required")
	}
	user, err := s.load(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(p, user); err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, p policy.Principal, input ListInput) ([]UserDTO, string, error) {
	scope, err := policy.StoreScope(p, input.StoreID)
	if err != nil {
		return nil, "", err
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	rows, next, err := s.repo.List(ctx, listParams{
		StoreID: scope,
		Status:  input.Status,
		Search:  input.Search,
		Limit:   input.Limit,
		Cursor:  cursor,
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return out, nextCursor, nil
}

func (s *service) SetStatus(ctx context.Context, p policy.Principal, id uuid.UUID, status enums.UserStatus) (*UserDTO, error) {
	if !p.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(p, user); err != nil {
		return nil, err
	}

	if user.Status != status {
		updated, err := s.repo.UpdateStatus(ctx, id, status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user status")
		}
		if !updated {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		user.Status = status

		logCtx := s.logg.WithFields(ctx, map[string]any{
			logger.FieldUserID:  id.String(),
			logger.FieldAdminID: p.ID.String(),
			"status":            string(status),
		})
		s.logg.Info(logCtx, "user.status_changed")
	}
	return FromModel(user), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// checkScope lets super admins see every user and store admins only the
// users whose home store they run. Users only see themselves.
func (s *service) checkScope(p policy.Principal, user *models.User) error {
	if p.IsUser() {
		if p.ID != user.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this user")
		}
		return nil
	}
	res := policy.Resource{StoreID: user.StoreID}
	return policy.Check(p, policy.ActionManageUsers, res)
}
