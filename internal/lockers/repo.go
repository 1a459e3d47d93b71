package lockers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// naturalOrder sorts "2" before "10" for numeric-looking locker numbers.
const naturalOrder = "LENGTH(number) ASC, number ASC"

// Repository manages locker rows. Every status change is a conditional
// update on the expected prior state; a false result means the row moved.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, locker *models.Locker) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Locker, error)
	FindByOccupant(ctx context.Context, userID uuid.UUID) (*models.Locker, error)
	FirstAvailable(ctx context.Context, storeID uuid.UUID) (*models.Locker, error)
	List(ctx context.Context, params listParams) ([]models.Locker, error)
	CountByStatus(ctx context.Context, storeID *uuid.UUID) (map[enums.LockerStatus]int64, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error)
	Assign(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
	Release(ctx context.Context, id, occupantID uuid.UUID, next enums.LockerStatus) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, from, to enums.LockerStatus) (bool, error)
	TouchOccupied(ctx context.Context, id, occupantID uuid.UUID, at time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	HasRecords(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a locker repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listParams struct {
	StoreID *uuid.UUID
	Status  *enums.LockerStatus
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, locker *models.Locker) error {
	return r.db.WithContext(ctx).Create(locker).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Locker, error) {
	var locker models.Locker
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&locker).Error; err != nil {
		return nil, err
	}
	return &locker, nil
}

func (r *repository) FindByOccupant(ctx context.Context, userID uuid.UUID) (*models.Locker, error) {
	var locker models.Locker
	if err := r.db.WithContext(ctx).
		Where("current_user_id = ? AND status = ?", userID, enums.LockerStatusOccupied).
		First(&locker).Error; err != nil {
		return nil, err
	}
	return &locker, nil
}

func (r *repository) FirstAvailable(ctx context.Context, storeID uuid.UUID) (*models.Locker, error) {
	var locker models.Locker
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND status = ? AND current_user_id IS NULL", storeID, enums.LockerStatusAvailable).
		Order(naturalOrder).
		Take(&locker).Error; err != nil {
		return nil, err
	}
	return &locker, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Locker, error) {
	query := r.db.WithContext(ctx).Model(&models.Locker{})
	if params.StoreID != nil {
		query = query.Where("store_id = ?", *params.StoreID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var lockers []models.Locker
	if err := query.Order("store_id ASC, " + naturalOrder).Find(&lockers).Error; err != nil {
		return nil, err
	}
	return lockers, nil
}

func (r *repository) CountByStatus(ctx context.Context, storeID *uuid.UUID) (map[enums.LockerStatus]int64, error) {
	type statusCount struct {
		Status enums.LockerStatus
		Count  int64
	}

	query := r.db.WithContext(ctx).
		Model(&models.Locker{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if storeID != nil {
		query = query.Where("store_id = ?", *storeID)
	}

	var rows []statusCount
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[enums.LockerStatus]int64{
		enums.LockerStatusAvailable:   0,
		enums.LockerStatusOccupied:    0,
		enums.LockerStatusMaintenance: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// UpdateDetails edits number/notes while the locker is available.
func (r *repository) UpdateDetails(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Locker{}).
		Where("id = ? AND status = ?", id, enums.LockerStatusAvailable).
		Updates(fields)
	return res.RowsAffected == 1, res.Error
}

func (r *repository) Assign(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Locker{}).
		Where("id = ? AND status = ? AND current_user_id IS NULL", id, enums.LockerStatusAvailable).
		Updates(map[string]any{
			"status":          enums.LockerStatusOccupied,
			"current_user_id": userID,
			"assigned_at":     at,
		})
	return res.RowsAffected == 1, res.Error
}

// Release clears the occupant and moves the locker to next (available or
// maintenance) only if occupantID still holds it.
func (r *repository) Release(ctx context.Context, id, occupantID uuid.UUID, next enums.LockerStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Locker{}).
		Where("id = ? AND status = ? AND current_user_id = ?", id, enums.LockerStatusOccupied, occupantID).
		Updates(map[string]any{
			"status":          next,
			"current_user_id": nil,
			"assigned_at":     nil,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, from, to enums.LockerStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Locker{}).
		Where("id = ? AND status = ? AND current_user_id IS NULL", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

// TouchOccupied bumps updated_at only while occupantID still holds the
// locker, so usage records cannot interleave with a release.
func (r *repository) TouchOccupied(ctx context.Context, id, occupantID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Locker{}).
		Where("id = ? AND status = ? AND current_user_id = ?", id, enums.LockerStatusOccupied, occupantID).
		Update("updated_at", at)
	return res.RowsAffected == 1, res.Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ? AND current_user_id IS NULL", id, enums.LockerStatusAvailable).
		Delete(&models.Locker{})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) HasRecords(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LockerRecord{}).
		Where("locker_id = ?", id).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
