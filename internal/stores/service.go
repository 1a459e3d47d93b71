package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/pkg/db"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
)

type storeRepository interface {
	Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	List(ctx context.Context, status *enums.StoreStatus) ([]models.Store, error)
	Update(ctx context.Context, store *models.Store) error
	CountLockers(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service exposes store operations.
type Service interface {
	Create(ctx context.Context, p policy.Principal, input CreateStoreDTO) (*StoreDTO, error)
	GetByID(ctx context.Context, p policy.Principal, id uuid.UUID) (*StoreDTO, error)
	List(ctx context.Context, p policy.Principal, status *enums.StoreStatus) ([]StoreDTO, error)
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
}

type service struct {
	repo storeRepository
	logg *logger.Logger
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, p policy.Principal, input CreateStoreDTO) (*StoreDTO, error) {
	if err := policy.Check(p, policy.ActionCreateStore, policy.Resource{}); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	input.Phone = trimPtr(input.Phone)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	store, err := s.repo.Create(ctx, input)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "store name or phone already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}

	s.logg.Info(s.logg.WithStoreID(ctx, store.ID.String()), "store.created")
	return FromModel(store), nil
}

func (s *service) GetByID(ctx context.Context, p policy.Principal, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsUser() && store.Status != enums.StoreStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	if p.IsAdmin() {
		if err := policy.Check(p, policy.ActionManageStore, policy.InStore(id)); err != nil {
			return nil, err
		}
	}
	return FromModel(store), nil
}

// List shows users the active stores they can apply to; store admins only
// see their own store.
func (s *service) List(ctx context.Context, p policy.Principal, status *enums.StoreStatus) ([]StoreDTO, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	if p.IsUser() {
		active := enums.StoreStatusActive
		status = &active
	}

	if p.IsAdmin() && !p.IsSuperAdmin() {
		scope, err := policy.StoreScope(p, nil)
		if err != nil {
			return nil, err
		}
		store, err := s.load(ctx, *scope)
		if err != nil {
			return nil, err
		}
		if status != nil && store.Status != *status {
			return []StoreDTO{}, nil
		}
		return []StoreDTO{*FromModel(store)}, nil
	}

	rows, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, p policy.Principal, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	if err := policy.Check(p, policy.ActionManageStore, policy.InStore(id)); err != nil {
		return nil, err
	}
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		store.Name = name
	}
	if input.Address != nil {
		address := strings.TrimSpace(*input.Address)
		if address == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address cannot be empty")
		}
		store.Address = address
	}
	if input.Phone != nil {
		store.Phone = trimPtr(input.Phone)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		if *input.Status != store.Status && !p.IsSuperAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only super admins change store status")
		}
		store.Status = *input.Status
	}

	if err := s.repo.Update(ctx, store); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "store name or phone already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

// Delete only removes stores that never owned lockers; otherwise the store
// must be deactivated.
func (s *service) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	if err := policy.Check(p, policy.ActionCreateStore, policy.InStore(id)); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountLockers(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count store lockers")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "store owns lockers, deactivate it instead").
			WithDetails(map[string]any{"lockers": count})
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "store is still referenced, deactivate it instead")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	s.logg.Info(s.logg.WithStoreID(ctx, id.String()), "store.deleted")
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
