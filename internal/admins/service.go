package admins

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/pkg/config"
	"github.com/lockerhub/lockerhub-backend/pkg/db"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
	"github.com/lockerhub/lockerhub-backend/pkg/security"
)

const tempPasswordLength = 12

var phonePattern = regexp.MustCompile(`^1\d{10}$`)

type adminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	List(ctx context.Context, storeID *uuid.UUID) ([]models.Admin, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AdminStatus) (bool, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service manages back-office operators.
type Service interface {
	Create(ctx context.Context, p policy.Principal, input CreateAdminInput) (*CreatedAdmin, error)
	Me(ctx context.Context, p policy.Principal) (*AdminDTO, error)
	List(ctx context.Context, p policy.Principal, storeID *uuid.UUID) ([]AdminDTO, error)
	SetStatus(ctx context.Context, p policy.Principal, id uuid.UUID, status enums.AdminStatus) (*AdminDTO, error)
	ResetPassword(ctx context.Context, p policy.Principal, id uuid.UUID) (string, error)
}

type service struct {
	repo        adminRepository
	stores      storeLookup
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService builds the admin management service.
func NewService(repo adminRepository, stores storeLookup, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, stores: stores, passwordCfg: passwordCfg, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, p policy.Principal, input CreateAdminInput) (*CreatedAdmin, error) {
	if err := policy.Check(p, policy.ActionManageAdmins, policy.Resource{}); err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(input.Phone)
	name := strings.TrimSpace(input.Name)
	if !phonePattern.MatchString(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be 11 digits starting with 1")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validateRoleStore(input.Role, input.StoreID); err != nil {
		return nil, err
	}
	if input.StoreID != nil {
		if _, err := s.stores.FindByID(ctx, *input.StoreID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
		}
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	admin := &models.Admin{
		Phone:        phone,
		Name:         name,
		PasswordHash: hash,
		Role:         input.Role,
		StoreID:      input.StoreID,
		Status:       enums.AdminStatusActive,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "phone already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		logger.FieldAdminID: admin.ID.String(),
		"role":              string(admin.Role),
		"created_by":        p.ID.String(),
	})
	s.logg.Info(logCtx, "admin.created")
	return &CreatedAdmin{Admin: FromModel(admin), TempPassword: tempPassword}, nil
}

func (s *service) Me(ctx context.Context, p policy.Principal) (*AdminDTO, error) {
	if !p.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	admin, err := s.load(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return FromModel(admin), nil
}

func (s *service) List(ctx context.Context, p policy.Principal, storeID *uuid.UUID) ([]AdminDTO, error) {
	if err := policy.Check(p, policy.ActionManageAdmins, policy.Resource{}); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list admins")
	}
	out := make([]AdminDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) SetStatus(ctx context.Context, p policy.Principal, id uuid.UUID, status enums.AdminStatus) (*AdminDTO, error) {
	if err := policy.Check(p, policy.ActionManageAdmins, policy.Resource{}); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	if id == p.ID && status != enums.AdminStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "admins cannot deactivate themselves")
	}

	admin, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update admin status")
	}
	admin.Status = status
	return FromModel(admin), nil
}

func (s *service) ResetPassword(ctx context.Context, p policy.Principal, id uuid.UUID) (string, error) {
	if err := policy.Check(p, policy.ActionManageAdmins, policy.Resource{}); err != nil {
		return "", err
	}
	if _, err := s.load(ctx, id); err != nil {
		return "", err
	}
	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update admin password")
	}
	return tempPassword, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
	}
	return admin, nil
}

// validateRoleStore mirrors chk_admins_role_store: store admins need a
// store, super admins must not have one.
func validateRoleStore(role enums.AdminRole, storeID *uuid.UUID) error {
	switch role {
	case enums.AdminRoleStoreAdmin:
		if storeID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "store_id is required for store admins")
		}
	case enums.AdminRoleSuperAdmin:
		if storeID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "super admins cannot be bound to a store")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	return nil
}
