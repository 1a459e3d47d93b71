package lockers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/ledger"
	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/internal/users"
	"github.com/lockerhub/lockerhub-backend/pkg/db"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
	"github.com/lockerhub/lockerhub-backend/pkg/metrics"
)

const maxLockerNumberLength = 32

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service drives the locker state machine:
// available → occupied → available, any → maintenance → available.
type Service interface {
	Create(ctx context.Context, p policy.Principal, input CreateLockerInput) (*LockerDTO, error)
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, input UpdateLockerInput) (*LockerDTO, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
	Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*LockerDTO, error)
	List(ctx context.Context, p policy.Principal, input ListInput) ([]LockerDTO, error)
	Mine(ctx context.Context, p policy.Principal) (*LockerDTO, error)
	Assign(ctx context.Context, p policy.Principal, id, userID uuid.UUID, notes *string) (*LockerDTO, error)
	Release(ctx context.Context, p policy.Principal, id uuid.UUID, notes *string) (*LockerDTO, error)
	SetMaintenance(ctx context.Context, p policy.Principal, id uuid.UUID, reason string) (*LockerDTO, error)
	ReturnToService(ctx context.Context, p policy.Principal, id uuid.UUID) (*LockerDTO, error)
	RecordUsage(ctx context.Context, p policy.Principal, id uuid.UUID, action enums.LockerRecordAction, notes *string) (*ledger.RecordDTO, error)
}

// ServiceParams wires the locker service.
type ServiceParams struct {
	Tx       db.TxRunner
	Lockers  Repository
	Ledger   ledger.Repository
	Users    *users.Repository
	Stores   storeLookup
	Metrics  *metrics.WorkflowMetrics
	Logger   *logger.Logger
	Now      func() time.Time
	Assigner *Assigner
}

type service struct {
	tx       db.TxRunner
	repo     Repository
	ledger   ledger.Repository
	users    *users.Repository
	stores   storeLookup
	assigner *Assigner
	metrics  *metrics.WorkflowMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the locker service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Lockers == nil {
		return nil, fmt.Errorf("locker repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.Assigner == nil {
		params.Assigner = NewAssigner(params.Lockers, params.Ledger)
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Lockers,
		ledger:   params.Ledger,
		users:    params.Users,
		stores:   params.Stores,
		assigner: params.Assigner,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, p policy.Principal, input CreateLockerInput) (*LockerDTO, error) {
	if err := policy.Check(p, policy.ActionManageLocker, policy.InStore(input.StoreID)); err != nil {
		return nil, err
	}
	number, err := normalizeNumber(input.Number)
	if err != nil {
		return nil, err
	}
	if _, err := s.stores.FindByID(ctx, input.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	locker := &models.Locker{
		StoreID: input.StoreID,
		Number:  number,
		Status:  enums.LockerStatusAvailable,
		Notes:   input.Notes,
	}
	if err := s.repo.Create(ctx, locker); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "locker number already exists in store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create locker")
	}

	s.logg.Info(s.lockerCtx(ctx, p, locker), "locker.created")
	return FromModel(locker), nil
}

func (s *service) Update(ctx context.Context, p policy.Principal, id uuid.UUID, input UpdateLockerInput) (*LockerDTO, error) {
	locker, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(p, policy.ActionManageLocker, policy.InStore(locker.StoreID)); err != nil {
		return nil, err
	}
	if locker.Status != enums.LockerStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "locker can only be edited while available")
	}

	fields := map[string]any{}
	if input.Number != nil {
		number, err := normalizeNumber(*input.Number)
		if err != nil {
			return nil, err
		}
		fields["number"] = number
		locker.Number = number
	}
	if input.Notes != nil {
		notes := strings.TrimSpace(*input.Notes)
		fields["notes"] = notes
		locker.Notes = &notes
	}
	if len(fields) == 0 {
		return FromModel(locker), nil
	}

	updated, err := s.repo.UpdateDetails(ctx, id, fields)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "locker number already exists in store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update locker")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msgLockerStateChanged)
	}
	return s.Get(ctx, p, id)
}

func (s *service) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	locker, err := s.load(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if err := policy.Check(p, policy.ActionManageLocker, policy.InStore(locker.StoreID)); err != nil {
		return err
	}
	if locker.Status != enums.LockerStatusAvailable {
		return pkgerrors.New(pkgerrors.CodeConflict, "only available lockers can be deleted")
	}
	hasRecords, err := s.repo.HasRecords(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check locker history")
	}
	if hasRecords {
		return pkgerrors.New(pkgerrors.CodeConflict, "locker has usage history, put it in maintenance instead")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete locker")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeConflict, msgLockerStateChanged)
	}
	s.logg.Info(s.lockerCtx(ctx, p, locker), "locker.deleted")
	return nil
}

func (s *service) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*LockerDTO, error) {
	locker, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(p, policy.ActionViewLocker, policy.InStore(locker.StoreID)); err != nil {
		return nil, err
	}
	return redact(p, FromModel(locker)), nil
}

func (s *service) List(ctx context.Context, p policy.Principal, input ListInput) ([]LockerDTO, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	params := listParams{Status: input.Status, StoreID: input.StoreID}
	if p.IsUser() {
		if input.StoreID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store_id is required")
		}
	} else {
		scope, err := policy.StoreScope(p, input.StoreID)
		if err != nil {
			return nil, err
		}
		params.StoreID = scope
	}

	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lockers")
	}
	out := make([]LockerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *redact(p, FromModel(&rows[i])))
	}
	return out, nil
}

func (s *service) Mine(ctx context.Context, p policy.Principal) (*LockerDTO, error) {
	if !p.IsUser() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user access required")
	}
	locker, err := s.repo.FindByOccupant(ctx, p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no locker assigned")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assigned locker")
	}
	return FromModel(locker), nil
}

// Assign is the direct admin assignment path that bypasses the application
// workflow.
func (s *service) Assign(ctx context.Context, p policy.Principal, id, userID uuid.UUID, notes *string) (*LockerDTO, error) {
	var result *models.Locker
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locker, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if err := policy.Check(p, policy.ActionManageLocker, policy.InStore(locker.StoreID)); err != nil {
			return err
		}

		user, err := s.users.WithTx(tx).FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if user.Status != enums.UserStatusActive {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "user is not active")
		}
		if err := s.assigner.EnsureNoLocker(ctx, tx, userID); err != nil {
			return err
		}

		picked, err := s.assigner.Pick(ctx, tx, locker.StoreID, &id)
		if err != nil {
			return err
		}
		if err := s.assigner.Assign(ctx, tx, picked, userID, s.now().UTC(), notes); err != nil {
			return err
		}
		result = picked
		return nil
	})
	if err != nil {
		s.metrics.Rejected("locker.assign", codeOf(err))
		return nil, err
	}

	s.metrics.LockerEvent(string(enums.LockerRecordActionAssigned))
	s.logg.Info(s.lockerCtx(ctx, p, result), "locker.assigned")
	return FromModel(result), nil
}

func (s *service) Release(ctx context.Context, p policy.Principal, id uuid.UUID, notes *string) (*LockerDTO, error) {
	var result *models.Locker
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locker, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if locker.Status != enums.LockerStatusOccupied || locker.CurrentUserID == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidState, msgLockerNotOccupied)
		}
		if err := policy.Check(p, policy.ActionReleaseLocker, policy.OwnedBy(*locker.CurrentUserID, locker.StoreID)); err != nil {
			return err
		}
		if err := s.release(ctx, tx, locker, enums.LockerStatusAvailable, notes); err != nil {
			return err
		}
		result = locker
		return nil
	})
	if err != nil {
		s.metrics.Rejected("locker.release", codeOf(err))
		return nil, err
	}

	s.metrics.LockerEvent(string(enums.LockerRecordActionReleased))
	s.logg.Info(s.lockerCtx(ctx, p, result), "locker.released")
	return FromModel(result), nil
}

func (s *service) SetMaintenance(ctx context.Context, p policy.Principal, id uuid.UUID, reason string) (*LockerDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "scheduled maintenance"
	}

	var (
		result   *models.Locker
		released bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locker, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := policy.Check(p, policy.ActionManageLocker, policy.InStore(locker.StoreID)); err != nil {
			return err
		}

		switch locker.Status {
		case enums.LockerStatusMaintenance:
		case enums.LockerStatusOccupied:
			notes := maintenanceNotesPrefix + reason
			if err := s.release(ctx, tx, locker, enums.LockerStatusMaintenance, &notes); err != nil {
				return err
			}
			released = true
		default:
			ok, err := repo.SetStatus(ctx, id, locker.Status, enums.LockerStatusMaintenance)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set maintenance")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, msgLockerStateChanged)
			}
			locker.Status = enums.LockerStatusMaintenance
		}
		result = locker
		return nil
	})
	if err != nil {
		s.metrics.Rejected("locker.maintenance", codeOf(err))
		return nil, err
	}

	if released {
		s.metrics.LockerEvent(string(enums.LockerRecordActionReleased))
	}
	logCtx := s.logg.WithField(s.lockerCtx(ctx, p, result), "reason", reason)
	s.logg.Info(logCtx, "locker.maintenance")
	return FromModel(result), nil
}

func (s *service) ReturnToService(ctx context.Context, p policy.Principal, id uuid.UUID) (*LockerDTO, error) {
	locker, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(p, policy.ActionManageLocker, policy.InStore(locker.StoreID)); err != nil {
		return nil, err
	}
	if locker.Status != enums.LockerStatusMaintenance {
		s.metrics.Rejected("locker.return", string(pkgerrors.CodeInvalidState))
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, msgLockerNotInService)
	}

	ok, err := s.repo.SetStatus(ctx, id, enums.LockerStatusMaintenance, enums.LockerStatusAvailable)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return locker to service")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msgLockerStateChanged)
	}
	locker.Status = enums.LockerStatusAvailable

	s.logg.Info(s.lockerCtx(ctx, p, locker), "locker.returned_to_service")
	return FromModel(locker), nil
}

func (s *service) RecordUsage(ctx context.Context, p policy.Principal, id uuid.UUID, action enums.LockerRecordAction, notes *string) (*ledger.RecordDTO, error) {
	if !action.IsUsage() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "action must be store or retrieve")
	}

	var record *models.LockerRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locker, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if locker.Status != enums.LockerStatusOccupied || locker.CurrentUserID == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidState, msgUsageOnUnassigned)
		}
		occupant := *locker.CurrentUserID
		if err := policy.Check(p, policy.ActionRecordUsage, policy.OwnedBy(occupant, locker.StoreID)); err != nil {
			return err
		}

		now := s.now().UTC()
		ok, err := repo.TouchOccupied(ctx, id, occupant, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock occupied locker")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidState, msgUsageOnUnassigned)
		}

		record = &models.LockerRecord{
			UserID:   occupant,
			LockerID: id,
			Action:   action,
			Notes:    notes,
		}
		if err := s.ledger.WithTx(tx).Append(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append usage record")
		}
		if err := s.users.WithTx(tx).TouchLastActive(ctx, occupant, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last active")
		}
		return nil
	})
	if err != nil {
		s.metrics.Rejected("locker.usage", codeOf(err))
		return nil, err
	}

	s.metrics.LockerEvent(string(action))
	dto := ledger.FromModel(*record)
	return &dto, nil
}

// release clears the occupant, moves the locker to next and appends the
// released record for the previous occupant.
func (s *service) release(ctx context.Context, tx *gorm.DB, locker *models.Locker, next enums.LockerStatus, notes *string) error {
	occupant := *locker.CurrentUserID
	ok, err := s.repo.WithTx(tx).Release(ctx, locker.ID, occupant, next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release locker")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, msgLockerStateChanged)
	}
	if err := s.ledger.WithTx(tx).Append(ctx, &models.LockerRecord{
		UserID:   occupant,
		LockerID: locker.ID,
		Action:   enums.LockerRecordActionReleased,
		Notes:    notes,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append released record")
	}

	locker.Status = next
	locker.CurrentUserID = nil
	locker.AssignedAt = nil
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Locker, error) {
	locker, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgLockerNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load locker")
	}
	return locker, nil
}

func (s *service) lockerCtx(ctx context.Context, p policy.Principal, locker *models.Locker) context.Context {
	fields := map[string]any{
		logger.FieldLockerID:  locker.ID.String(),
		logger.FieldStoreID:   locker.StoreID.String(),
		logger.FieldActorRole: string(p.Kind),
		"status":              string(locker.Status),
	}
	return s.logg.WithFields(ctx, fields)
}

func normalizeNumber(raw string) (string, error) {
	number := strings.TrimSpace(raw)
	if number == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "locker number is required")
	}
	if utf8.RuneCountInString(number) > maxLockerNumberLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "locker number is too long")
	}
	return number, nil
}

// redact hides other people's occupancy from end users.
func redact(p policy.Principal, dto *LockerDTO) *LockerDTO {
	if dto == nil || !p.IsUser() {
		return dto
	}
	if dto.CurrentUserID != nil && *dto.CurrentUserID != p.ID {
		dto.CurrentUserID = nil
		dto.AssignedAt = nil
	}
	return dto
}

func codeOf(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
