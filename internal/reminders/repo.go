package reminders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// Repository persists reminders.
type Repository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error)
	List(ctx context.Context, activeOnly bool) ([]models.Reminder, error)
	Save(ctx context.Context, reminder *models.Reminder) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsActive(ctx context.Context, kind enums.ReminderType, title string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reminder repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reminder).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

// List returns urgent reminders first, then newest.
func (r *repository) List(ctx context.Context, activeOnly bool) ([]models.Reminder, error) {
	query := r.db.WithContext(ctx).Model(&models.Reminder{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Reminder
	err := query.
		Order(gorm.Expr("CASE WHEN type = ? THEN 0 ELSE 1 END", enums.ReminderTypeUrgent)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Save(reminder).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Reminder{})
	return res.RowsAffected > 0, res.Error
}

// ExistsActive reports whether an active reminder with the same type and
// title is already posted.
func (r *repository) ExistsActive(ctx context.Context, kind enums.ReminderType, title string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("type = ? AND title = ? AND is_active = ?", kind, title, true).
		Count(&count).Error
	return count > 0, err
}
