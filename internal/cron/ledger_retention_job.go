package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/logger"
	"github.com/lockerhub/lockerhub-backend/pkg/metrics"
)

const (
	ledgerRetentionJobName  = "ledger-retention"
	defaultLedgerRetention  = 365
	defaultLedgerBatchSize  = 500
	defaultLedgerMaxBatches = 1000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type recordPurger interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time, batchSize int) (int64, error)
}

type LedgerRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Records       recordPurger
	Metrics       *metrics.CronJobMetrics
	RetentionDays int
	BatchSize     int
	MaxBatches    int
}

// NewLedgerRetentionJob removes locker records past the retention window
// in small batches, each in its own transaction.
func NewLedgerRetentionJob(params LedgerRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Records == nil {
		return nil, fmt.Errorf("records repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultLedgerRetention
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultLedgerBatchSize
	}
	maxBatches := params.MaxBatches
	if maxBatches <= 0 {
		maxBatches = defaultLedgerMaxBatches
	}
	return &ledgerRetentionJob{
		logg:       params.Logger,
		db:         params.DB,
		records:    params.Records,
		metrics:    params.Metrics,
		retention:  retention,
		batchSize:  batch,
		maxBatches: maxBatches,
		now:        time.Now,
	}, nil
}

type ledgerRetentionJob struct {
	logg       *logger.Logger
	db         txRunner
	records    recordPurger
	metrics    *metrics.CronJobMetrics
	retention  int
	batchSize  int
	maxBatches int
	now        func() time.Time
}

func (j *ledgerRetentionJob) Name() string { return ledgerRetentionJobName }

func (j *ledgerRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	var total int64
	batches := 0

	for batches < j.maxBatches {
		if err := ctx.Err(); err != nil {
			return err
		}
		var deleted int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			rows, err := j.records.DeleteOlderThan(ctx, tx, cutoff, j.batchSize)
			deleted = rows
			return err
		})
		if err != nil {
			j.metrics.AddAffected(ledgerRetentionJobName, total)
			return fmt.Errorf("ledger retention batch %d: %w", batches+1, err)
		}
		batches++
		total += deleted
		if deleted < int64(j.batchSize) {
			break
		}
	}

	j.metrics.AddAffected(ledgerRetentionJobName, total)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"batches":        batches,
		"rows_deleted":   total,
	})
	j.logg.Info(logCtx, "ledger retention cleanup complete")
	return nil
}
