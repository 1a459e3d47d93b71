package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
	"github.com/lockerhub/lockerhub-backend/pkg/metrics"
)

const (
	staleApplicationJobName   = "stale-applications"
	defaultStaleAfter         = 72 * time.Hour
	staleApplicationScanLimit = 500
	staleReminderTitle        = "Locker applications awaiting review"
)

type staleApplicationLister interface {
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Application, error)
}

type reminderPoster interface {
	Post(ctx context.Context, kind enums.ReminderType, title, content string) (bool, error)
}

type StaleApplicationJobParams struct {
	Logger       *logger.Logger
	Applications staleApplicationLister
	Reminders    reminderPoster
	Metrics      *metrics.CronJobMetrics
	StaleAfter   time.Duration
}

// NewStaleApplicationJob raises an urgent reminder when pending
// applications have waited longer than StaleAfter.
func NewStaleApplicationJob(params StaleApplicationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Applications == nil {
		return nil, fmt.Errorf("applications repository required")
	}
	if params.Reminders == nil {
		return nil, fmt.Errorf("reminder service required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &staleApplicationJob{
		logg:         params.Logger,
		applications: params.Applications,
		reminders:    params.Reminders,
		metrics:      params.Metrics,
		staleAfter:   staleAfter,
		now:          time.Now,
	}, nil
}

type staleApplicationJob struct {
	logg         *logger.Logger
	applications staleApplicationLister
	reminders    reminderPoster
	metrics      *metrics.CronJobMetrics
	staleAfter   time.Duration
	now          func() time.Time
}

func (j *staleApplicationJob) Name() string { return staleApplicationJobName }

func (j *staleApplicationJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-j.staleAfter)
	stale, err := j.applications.ListStalePending(ctx, cutoff, staleApplicationScanLimit)
	if err != nil {
		return fmt.Errorf("list stale applications: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	stores := map[string]struct{}{}
	for _, app := range stale {
		stores[app.StoreID.String()] = struct{}{}
	}
	oldest := stale[0].CreatedAt
	content := fmt.Sprintf(
		"%d application(s) across %d store(s) have been pending for more than %s. Oldest submitted %s.",
		len(stale), len(stores), formatWait(j.staleAfter), oldest.Format(time.DateOnly),
	)

	posted, err := j.reminders.Post(ctx, enums.ReminderTypeUrgent, staleReminderTitle, content)
	if err != nil {
		return fmt.Errorf("post stale reminder: %w", err)
	}
	if posted {
		j.metrics.AddAffected(staleApplicationJobName, 1)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"stale_count": len(stale),
		"store_count": len(stores),
		"posted":      posted,
	})
	j.logg.Warn(logCtx, "stale pending applications detected")
	return nil
}

func formatWait(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%d days", int(d/(24*time.Hour)))
	}
	return fmt.Sprintf("%d hours", int(d/time.Hour))
}
