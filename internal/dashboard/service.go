package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
)

type lockerCounter interface {
	CountByStatus(ctx context.Context, storeID *uuid.UUID) (map[enums.LockerStatus]int64, error)
}

type applicationCounter interface {
	CountPending(ctx context.Context, storeID *uuid.UUID) (int64, error)
	OldestPending(ctx context.Context, storeID *uuid.UUID) (*models.Application, error)
}

type recordCounter interface {
	CountSince(ctx context.Context, storeID *uuid.UUID, since time.Time) (int64, error)
}

// LockerCounts breaks a store's lockers down by status.
type LockerCounts struct {
	Total       int64 `json:"total"`
	Available   int64 `json:"available"`
	Occupied    int64 `json:"occupied"`
	Maintenance int64 `json:"maintenance"`
}

// Summary is the admin landing page payload.
type Summary struct {
	StoreID             *uuid.UUID   `json:"store_id,omitempty"`
	Lockers             LockerCounts `json:"lockers"`
	OccupancyRate       float64      `json:"occupancy_rate"`
	PendingApplications int64        `json:"pending_applications"`
	OldestPendingAt     *time.Time   `json:"oldest_pending_at,omitempty"`
	OldestPendingHours  *int64       `json:"oldest_pending_hours,omitempty"`
	RecordsToday        int64        `json:"records_today"`
	GeneratedAt         time.Time    `json:"generated_at"`
}

// Service aggregates read-only counters for admins.
type Service interface {
	Summary(ctx context.Context, p policy.Principal, storeID *uuid.UUID) (*Summary, error)
}

type service struct {
	lockers      lockerCounter
	applications applicationCounter
	records      recordCounter
	now          func() time.Time
}

func NewService(lockers lockerCounter, applications applicationCounter, records recordCounter) (Service, error) {
	if lockers == nil || applications == nil || records == nil {
		return nil, fmt.Errorf("dashboard dependencies required")
	}
	return &service{
		lockers:      lockers,
		applications: applications,
		records:      records,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Summary(ctx context.Context, p policy.Principal, storeID *uuid.UUID) (*Summary, error) {
	scope, err := policy.StoreScope(p, storeID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(p, policy.ActionViewDashboard, policy.Resource{StoreID: scope}); err != nil {
		return nil, err
	}
	now := s.now()

	counts, err := s.lockers.CountByStatus(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count lockers")
	}
	out := &Summary{
		StoreID:     scope,
		GeneratedAt: now,
		Lockers: LockerCounts{
			Available:   counts[enums.LockerStatusAvailable],
			Occupied:    counts[enums.LockerStatusOccupied],
			Maintenance: counts[enums.LockerStatusMaintenance],
		},
	}
	out.Lockers.Total = out.Lockers.Available + out.Lockers.Occupied + out.Lockers.Maintenance
	if out.Lockers.Total > 0 {
		rate := float64(out.Lockers.Occupied) / float64(out.Lockers.Total)
		out.OccupancyRate = math.Round(rate*10000) / 10000
	}

	if out.PendingApplications, err = s.applications.CountPending(ctx, scope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending applications")
	}
	oldest, err := s.applications.OldestPending(ctx, scope)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "oldest pending application")
	}
	if oldest != nil {
		at := oldest.CreatedAt
		hours := int64(now.Sub(at) / time.Hour)
		out.OldestPendingAt = &at
		out.OldestPendingHours = &hours
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if out.RecordsToday, err = s.records.CountSince(ctx, scope, startOfDay); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count records")
	}
	return out, nil
}
