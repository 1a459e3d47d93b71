package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/pkg/config"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/pagination"
)

const defaultExportWindow = 30 * 24 * time.Hour

// Service exposes the read side of the usage ledger.
type Service interface {
	List(ctx context.Context, p policy.Principal, input ListInput) ([]RecordDTO, string, error)
	UserStats(ctx context.Context, p policy.Principal, userID uuid.UUID) (*UsageStats, error)
	LockerStats(ctx context.Context, p policy.Principal, lockerID uuid.UUID) (*UsageStats, error)
	Export(ctx context.Context, p policy.Principal, input ExportInput) (*Export, error)
}

type service struct {
	repo Repository
	cfg  config.LedgerConfig
	now  func() time.Time
}

// NewService builds the ledger read service.
func NewService(repo Repository, cfg config.LedgerConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, cfg: cfg, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, p policy.Principal, input ListInput) ([]RecordDTO, string, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if input.Action != nil && !input.Action.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid action")
	}

	params := listParams{
		UserID:   input.UserID,
		LockerID: input.LockerID,
		Action:   input.Action,
		From:     input.From,
		To:       input.To,
		Limit:    input.Limit,
		Cursor:   cursor,
	}

	if p.IsUser() {
		if input.UserID != nil && *input.UserID != p.ID {
			return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "records belong to another user")
		}
		self := p.ID
		params.UserID = &self
	} else {
		scope, err := policy.StoreScope(p, input.StoreID)
		if err != nil {
			return nil, "", err
		}
		params.StoreID = scope
		if input.LockerID != nil {
			if _, err := s.lockerInScope(ctx, p, *input.LockerID); err != nil {
				return nil, "", err
			}
		}
	}

	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locker records")
	}

	out := make([]RecordDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return out, nextCursor, nil
}

func (s *service) UserStats(ctx context.Context, p policy.Principal, userID uuid.UUID) (*UsageStats, error) {
	filter := statsFilter{UserID: &userID}
	if p.IsUser() {
		if userID != p.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "stats belong to another user")
		}
	} else {
		scope, err := policy.StoreScope(p, nil)
		if err != nil {
			return nil, err
		}
		filter.StoreID = scope
	}

	rows, err := s.repo.StatsRows(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user stats")
	}
	stats := summarize(rows)
	return &stats, nil
}

func (s *service) LockerStats(ctx context.Context, p policy.Principal, lockerID uuid.UUID) (*UsageStats, error) {
	if _, err := s.lockerInScope(ctx, p, lockerID); err != nil {
		return nil, err
	}
	rows, err := s.repo.StatsRows(ctx, statsFilter{LockerID: &lockerID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load locker stats")
	}
	stats := summarize(rows)
	return &stats, nil
}

func (s *service) Export(ctx context.Context, p policy.Principal, input ExportInput) (*Export, error) {
	scope, err := policy.StoreScope(p, input.StoreID)
	if err != nil {
		return nil, err
	}

	to := s.now().UTC()
	if input.To != nil {
		to = input.To.UTC()
	}
	from := to.Add(-defaultExportWindow)
	if input.From != nil {
		from = input.From.UTC()
	}
	if !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}

	maxRows, limit := s.cfg.ExportMaxRows, 0
	if maxRows > 0 {
		limit = maxRows + 1
	}
	rows, err := s.repo.ExportRows(ctx, scope, from, to, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load export rows")
	}
	if maxRows > 0 && len(rows) > maxRows {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "export range too large, narrow the date range").
			WithDetails(map[string]any{"max_rows": maxRows})
	}

	body, err := buildWorkbook(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build workbook")
	}

	label := "all"
	if scope != nil {
		label = scope.String()[:8]
	}
	return &Export{
		Filename:    fmt.Sprintf("locker-records-%s-%s-%s.xlsx", label, from.Format("20060102"), to.Format("20060102")),
		ContentType: exportContentType,
		Body:        body,
		Rows:        len(rows),
	}, nil
}

func (s *service) lockerInScope(ctx context.Context, p policy.Principal, lockerID uuid.UUID) (*lockerRef, error) {
	ref, err := s.repo.LockerRef(ctx, lockerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "locker not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load locker")
	}
	res := policy.InStore(ref.StoreID)
	res.OwnerID = ref.CurrentUserID
	if err := policy.Check(p, policy.ActionViewLedger, res); err != nil {
		return nil, err
	}
	return ref, nil
}
