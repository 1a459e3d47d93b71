package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/lockers"
	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/internal/users"
	"github.com/lockerhub/lockerhub-backend/pkg/config"
	"github.com/lockerhub/lockerhub-backend/pkg/db"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
	"github.com/lockerhub/lockerhub-backend/pkg/metrics"
	"github.com/lockerhub/lockerhub-backend/pkg/pagination"
)

const (
	msgNotFound       = "application not found"
	msgNotPending     = "application is not pending"
	msgAlreadyPending = "user already has a pending application"
	cancelReason      = "Cancelled by user"
	maxNoteLength     = 1000
	maxPurposeLength  = 500
)

type storeLookup interface {
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Store, error)
}

// Service runs the application workflow: pending → approved | rejected.
type Service interface {
	Submit(ctx context.Context, p policy.Principal, input SubmitInput) (*ApplicationDTO, error)
	Approve(ctx context.Context, p policy.Principal, id uuid.UUID, input ApproveInput) (*ApplicationDTO, error)
	Reject(ctx context.Context, p policy.Principal, id uuid.UUID, reason string) (*ApplicationDTO, error)
	Cancel(ctx context.Context, p policy.Principal, id uuid.UUID) (*ApplicationDTO, error)
	AppendNote(ctx context.Context, p policy.Principal, id uuid.UUID, note string) (*ApplicationDTO, error)
	Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*ApplicationDTO, error)
	List(ctx context.Context, p policy.Principal, input ListInput) ([]ApplicationDTO, string, error)
}

// ServiceParams wires the application workflow.
type ServiceParams struct {
	Tx           db.TxRunner
	Applications Repository
	Users        *users.Repository
	Stores       storeLookup
	Assigner     *lockers.Assigner
	Config       config.ApplicationsConfig
	Metrics      *metrics.WorkflowMetrics
	Logger       *logger.Logger
	Now          func() time.Time
}

type service struct {
	tx       db.TxRunner
	repo     Repository
	users    *users.Repository
	stores   storeLookup
	assigner *lockers.Assigner
	cfg      config.ApplicationsConfig
	metrics  *metrics.WorkflowMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the application workflow service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Applications == nil {
		return nil, fmt.Errorf("applications repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if params.Assigner == nil {
		return nil, fmt.Errorf("locker assigner required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Applications,
		users:    params.Users,
		stores:   params.Stores,
		assigner: params.Assigner,
		cfg:      params.Config,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, p policy.Principal, input SubmitInput) (*ApplicationDTO, error) {
	if err := policy.Check(p, policy.ActionSubmitApplication, policy.OwnedBy(p.ID, input.StoreID)); err != nil {
		return nil, err
	}
	purpose, err := trimOptional(input.Purpose, maxPurposeLength, "purpose")
	if err != nil {
		return nil, err
	}
	notes, err := trimOptional(input.Notes, maxNoteLength, "notes")
	if err != nil {
		return nil, err
	}

	app := &models.Application{
		UserID:  p.ID,
		StoreID: input.StoreID,
		Purpose: purpose,
		Notes:   notes,
		Status:  enums.ApplicationStatusPending,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := s.users.WithTx(tx).FindByID(ctx, p.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if user.Status != enums.UserStatusActive {
			return pkgerrors.New(pkgerrors.CodeForbidden, "user account is not active")
		}

		store, err := s.stores.FindByIDWithTx(tx, input.StoreID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
		}
		if store.Status != enums.StoreStatusActive {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "store is not accepting applications")
		}

		repo := s.repo.WithTx(tx)
		if _, err := repo.FindPendingByUser(ctx, p.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, msgAlreadyPending)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending application")
		}
		if err := s.assigner.EnsureNoLocker(ctx, tx, p.ID); err != nil {
			return err
		}

		if err := repo.Create(ctx, app); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, msgAlreadyPending)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
		}
		return nil
	})
	if err != nil {
		s.metrics.Rejected("application.submit", codeOf(err))
		return nil, err
	}

	s.metrics.ApplicationTransition(string(enums.ApplicationStatusPending))
	s.logg.Info(s.appCtx(ctx, p, app), "application.submitted")
	return ToView(app, s.now().UTC()), nil
}

func (s *service) Approve(ctx context.Context, p policy.Principal, id uuid.UUID, input ApproveInput) (*ApplicationDTO, error) {
	note, err := trimOptional(input.Notes, maxNoteLength, "notes")
	if err != nil {
		return nil, err
	}

	var app *models.Application
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := policy.Check(p, policy.ActionReviewApplication, policy.InStore(loaded.StoreID)); err != nil {
			return err
		}
		if loaded.Status != enums.ApplicationStatusPending {
			return pkgerrors.New(pkgerrors.CodeInvalidState, msgNotPending)
		}

		locker, err := s.assigner.Pick(ctx, tx, loaded.StoreID, input.LockerID)
		if err != nil {
			return err
		}
		if err := s.assigner.EnsureNoLocker(ctx, tx, loaded.UserID); err != nil {
			return err
		}

		now := s.now().UTC()
		ok, err := repo.MarkApproved(ctx, id, locker.ID, p.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve application")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidState, msgNotPending)
		}
		if note != nil {
			if _, err := repo.AppendNote(ctx, id, s.noteLine(p, *note, now)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append approval note")
			}
		}

		recordNote := "Application " + id.String()
		if err := s.assigner.Assign(ctx, tx, locker, loaded.UserID, now, &recordNote); err != nil {
			return err
		}

		app, err = s.load(ctx, repo, id)
		return err
	})
	if err != nil {
		s.metrics.Rejected("application.approve", codeOf(err))
		return nil, err
	}

	s.metrics.ApplicationTransition(string(enums.ApplicationStatusApproved))
	s.metrics.LockerEvent(string(enums.LockerRecordActionAssigned))
	logCtx := s.appCtx(ctx, p, app)
	if app.AssignedLockerID != nil {
		logCtx = s.logg.WithField(logCtx, logger.FieldLockerID, app.AssignedLockerID.String())
	}
	s.logg.Info(logCtx, "application.approved")
	return ToView(app, s.now().UTC()), nil
}

func (s *service) Reject(ctx context.Context, p policy.Principal, id uuid.UUID, reason string) (*ApplicationDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = s.cfg.DefaultRejectionReason
	}
	if utf8.RuneCountInString(reason) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is too long")
	}

	app, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(p, policy.ActionReviewApplication, policy.InStore(app.StoreID)); err != nil {
		return nil, err
	}

	adminID := p.ID
	return s.resolveRejected(ctx, p, app, &adminID, reason, "application.reject")
}

func (s *service) Cancel(ctx context.Context, p policy.Principal, id uuid.UUID) (*ApplicationDTO, error) {
	app, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(p, policy.ActionCancelApplication, policy.OwnedBy(app.UserID, app.StoreID)); err != nil {
		return nil, err
	}
	return s.resolveRejected(ctx, p, app, nil, cancelReason, "application.cancel")
}

func (s *service) resolveRejected(ctx context.Context, p policy.Principal, app *models.Application, adminID *uuid.UUID, reason, op string) (*ApplicationDTO, error) {
	if app.Status != enums.ApplicationStatusPending {
		s.metrics.Rejected(op, string(pkgerrors.CodeInvalidState))
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, msgNotPending)
	}

	now := s.now().UTC()
	ok, err := s.repo.MarkRejected(ctx, app.ID, adminID, reason, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject application")
	}
	if !ok {
		s.metrics.Rejected(op, string(pkgerrors.CodeInvalidState))
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, msgNotPending)
	}

	app.Status = enums.ApplicationStatusRejected
	app.ApprovedBy = adminID
	app.ApprovedAt = &now
	app.RejectionReason = &reason

	s.metrics.ApplicationTransition(string(enums.ApplicationStatusRejected))
	logCtx := s.logg.WithField(s.appCtx(ctx, p, app), "reason", reason)
	s.logg.Info(logCtx, op)
	return ToView(app, now), nil
}

func (s *service) AppendNote(ctx context.Context, p policy.Principal, id uuid.UUID, note string) (*ApplicationDTO, error) {
	trimmed, err := trimOptional(&note, maxNoteLength, "note")
	if err != nil {
		return nil, err
	}
	if trimmed == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note is required")
	}

	app, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(p, policy.ActionReviewApplication, policy.InStore(app.StoreID)); err != nil {
		return nil, err
	}

	ok, err := s.repo.AppendNote(ctx, id, s.noteLine(p, *trimmed, s.now().UTC()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append note")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	return s.Get(ctx, p, id)
}

func (s *service) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*ApplicationDTO, error) {
	app, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(p, policy.ActionViewApplication, policy.OwnedBy(app.UserID, app.StoreID)); err != nil {
		return nil, err
	}
	return ToView(app, s.now().UTC()), nil
}

// List returns newest first, except the pending review queue which is
// served oldest first.
func (s *service) List(ctx context.Context, p policy.Principal, input ListInput) ([]ApplicationDTO, string, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	params := listParams{
		Status: input.Status,
		Limit:  input.Limit,
		Cursor: cursor,
	}
	if p.IsUser() {
		self := p.ID
		params.UserID = &self
		params.StoreID = input.StoreID
	} else {
		scope, err := policy.StoreScope(p, input.StoreID)
		if err != nil {
			return nil, "", err
		}
		params.StoreID = scope
		params.UserID = input.UserID
	}
	if input.Status != nil && *input.Status == enums.ApplicationStatusPending {
		params.Direction = pagination.Asc
	}

	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}

	now := s.now().UTC()
	out := make([]ApplicationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *ToView(&rows[i], now))
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return out, nextCursor, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Application, error) {
	app, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	return app, nil
}

func (s *service) noteLine(p policy.Principal, note string, at time.Time) string {
	return fmt.Sprintf("[%s %s:%s] %s", at.Format(time.RFC3339), p.Kind, p.ID, note)
}

func (s *service) appCtx(ctx context.Context, p policy.Principal, app *models.Application) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		logger.FieldApplicationID: app.ID.String(),
		logger.FieldUserID:        app.UserID.String(),
		logger.FieldStoreID:       app.StoreID.String(),
		logger.FieldActorRole:     string(p.Kind),
		"status":                  string(app.Status),
	})
}

func trimOptional(value *string, maxLen int, field string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is too long").
			WithDetails(map[string]any{"field": field, "max": maxLen})
	}
	return &trimmed, nil
}

func codeOf(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
