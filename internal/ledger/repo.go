package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	"github.com/lockerhub/lockerhub-backend/pkg/pagination"
)

// Repository manages persistence for locker ledger records. Records are only
// ever appended; the retention job is the single deleter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, record *models.LockerRecord) error
	List(ctx context.Context, params listParams) ([]models.LockerRecord, *pagination.Cursor, error)
	StatsRows(ctx context.Context, filter statsFilter) ([]statsRow, error)
	ExportRows(ctx context.Context, storeID *uuid.UUID, from, to time.Time, limit int) ([]ExportRow, error)
	LockerRef(ctx context.Context, lockerID uuid.UUID) (*lockerRef, error)
	CountSince(ctx context.Context, storeID *uuid.UUID, since time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time, batchSize int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listParams struct {
	UserID   *uuid.UUID
	LockerID *uuid.UUID
	StoreID  *uuid.UUID
	Action   *enums.LockerRecordAction
	From     *time.Time
	To       *time.Time
	Limit    int
	Cursor   *pagination.Cursor
}

type statsFilter struct {
	UserID   *uuid.UUID
	LockerID *uuid.UUID
	StoreID  *uuid.UUID
}

type statsRow struct {
	UserID    uuid.UUID
	LockerID  uuid.UUID
	Action    enums.LockerRecordAction
	CreatedAt time.Time
}

type lockerRef struct {
	ID            uuid.UUID
	StoreID       uuid.UUID
	CurrentUserID *uuid.UUID
}

// ExportRow is one spreadsheet line: the record joined with its locker and user.
type ExportRow struct {
	CreatedAt    time.Time
	LockerNumber string
	UserName     string
	UserPhone    string
	Action       enums.LockerRecordAction
	Notes        *string
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, record *models.LockerRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.LockerRecord, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LockerRecord{}).
		Select("locker_records.*")
	if params.StoreID != nil {
		query = query.
			Joins("JOIN lockers ON lockers.id = locker_records.locker_id").
			Where("lockers.store_id = ?", *params.StoreID)
	}
	if params.UserID != nil {
		query = query.Where("locker_records.user_id = ?", *params.UserID)
	}
	if params.LockerID != nil {
		query = query.Where("locker_records.locker_id = ?", *params.LockerID)
	}
	if params.Action != nil {
		query = query.Where("locker_records.action = ?", *params.Action)
	}
	if params.From != nil {
		query = query.Where("locker_records.created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("locker_records.created_at < ?", *params.To)
	}

	var records []models.LockerRecord
	if err := pagination.Apply(query, "locker_records", params.Cursor, params.Limit, pagination.Desc).
		Find(&records).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Trim(records, params.Limit, func(rec models.LockerRecord) pagination.Cursor {
		return pagination.Cursor{CreatedAt: rec.CreatedAt, ID: rec.ID}
	})
	return page, next, nil
}

func (r *repository) StatsRows(ctx context.Context, filter statsFilter) ([]statsRow, error) {
	query := r.db.WithContext(ctx).
		Table("locker_records").
		Select("locker_records.user_id, locker_records.locker_id, locker_records.action, locker_records.created_at")
	if filter.StoreID != nil {
		query = query.
			Joins("JOIN lockers ON lockers.id = locker_records.locker_id").
			Where("lockers.store_id = ?", *filter.StoreID)
	}
	if filter.UserID != nil {
		query = query.Where("locker_records.user_id = ?", *filter.UserID)
	}
	if filter.LockerID != nil {
		query = query.Where("locker_records.locker_id = ?", *filter.LockerID)
	}

	var rows []statsRow
	if err := query.Order("locker_records.created_at ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ExportRows(ctx context.Context, storeID *uuid.UUID, from, to time.Time, limit int) ([]ExportRow, error) {
	query := r.db.WithContext(ctx).
		Table("locker_records").
		Select(`locker_records.created_at AS created_at,
			lockers.number AS locker_number,
			users.name AS user_name,
			users.phone AS user_phone,
			locker_records.action AS action,
			locker_records.notes AS notes`).
		Joins("JOIN lockers ON lockers.id = locker_records.locker_id").
		Joins("JOIN users ON users.id = locker_records.user_id").
		Where("locker_records.created_at >= ? AND locker_records.created_at < ?", from, to)
	if storeID != nil {
		query = query.Where("lockers.store_id = ?", *storeID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []ExportRow
	if err := query.Order("locker_records.created_at ASC, locker_records.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) LockerRef(ctx context.Context, lockerID uuid.UUID) (*lockerRef, error) {
	var ref lockerRef
	if err := r.db.WithContext(ctx).
		Model(&models.Locker{}).
		Select("id, store_id, current_user_id").
		Where("id = ?", lockerID).
		Take(&ref).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *repository) CountSince(ctx context.Context, storeID *uuid.UUID, since time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LockerRecord{}).
		Where("locker_records.created_at >= ?", since)
	if storeID != nil {
		query = query.
			Joins("JOIN lockers ON lockers.id = locker_records.locker_id").
			Where("lockers.store_id = ?", *storeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteOlderThan removes at most batchSize records created before cutoff,
// oldest first. A nil tx runs against the repository's own handle.
func (r *repository) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		return 0, nil
	}
	conn := r.db
	if tx != nil {
		conn = tx
	}
	ids := conn.WithContext(ctx).
		Model(&models.LockerRecord{}).
		Select("id").
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(batchSize)

	res := conn.WithContext(ctx).
		Where("id IN (?)", ids).
		Delete(&models.LockerRecord{})
	return res.RowsAffected, res.Error
}
