package applications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	"github.com/lockerhub/lockerhub-backend/pkg/pagination"
)

// Repository persists applications. Status changes are conditional on the
// row still being pending; callers treat a false result as a lost race.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.Application, error)
	MarkApproved(ctx context.Context, id, lockerID, adminID uuid.UUID, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, id uuid.UUID, adminID *uuid.UUID, reason string, at time.Time) (bool, error)
	AppendNote(ctx context.Context, id uuid.UUID, line string) (bool, error)
	List(ctx context.Context, params listParams) ([]models.Application, *pagination.Cursor, error)
	CountPending(ctx context.Context, storeID *uuid.UUID) (int64, error)
	OldestPending(ctx context.Context, storeID *uuid.UUID) (*models.Application, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Application, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an applications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listParams struct {
	StoreID   *uuid.UUID
	UserID    *uuid.UUID
	Status    *enums.ApplicationStatus
	Limit     int
	Cursor    *pagination.Cursor
	Direction pagination.Direction
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repository) FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, enums.ApplicationStatusPending).
		First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repository) MarkApproved(ctx context.Context, id, lockerID, adminID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", id, enums.ApplicationStatusPending).
		Updates(map[string]any{
			"status":             enums.ApplicationStatusApproved,
			"assigned_locker_id": lockerID,
			"approved_by":        adminID,
			"approved_at":        at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) MarkRejected(ctx context.Context, id uuid.UUID, adminID *uuid.UUID, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", id, enums.ApplicationStatusPending).
		Updates(map[string]any{
			"status":           enums.ApplicationStatusRejected,
			"approved_by":      adminID,
			"approved_at":      at,
			"rejection_reason": reason,
		})
	return res.RowsAffected == 1, res.Error
}

// AppendNote concatenates line onto notes in SQL so concurrent appends do
// not overwrite each other.
func (r *repository) AppendNote(ctx context.Context, id uuid.UUID, line string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Update("notes", gorm.Expr(
			"CASE WHEN notes IS NULL OR notes = '' THEN ? ELSE notes || ? || ? END",
			line, "\n", line,
		))
	return res.RowsAffected == 1, res.Error
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Application, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Application{})
	if params.StoreID != nil {
		query = query.Where("store_id = ?", *params.StoreID)
	}
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var rows []models.Application
	if err := pagination.Apply(query, "", params.Cursor, params.Limit, params.Direction).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, func(a models.Application) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	return page, next, nil
}

func (r *repository) CountPending(ctx context.Context, storeID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("status = ?", enums.ApplicationStatusPending)
	if storeID != nil {
		query = query.Where("store_id = ?", *storeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) OldestPending(ctx context.Context, storeID *uuid.UUID) (*models.Application, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.ApplicationStatusPending)
	if storeID != nil {
		query = query.Where("store_id = ?", *storeID)
	}
	var app models.Application
	if err := query.Order("created_at ASC, id ASC").Take(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Application, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.ApplicationStatusPending, createdBefore).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var apps []models.Application
	if err := query.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}
