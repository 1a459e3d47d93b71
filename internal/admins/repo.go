package admins

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// Repository handles admin persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to admin operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, admin *models.Admin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *Repository) FindByPhone(ctx context.Context, phone string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// List returns admins ordered by creation; storeID narrows to one store.
func (r *Repository) List(ctx context.Context, storeID *uuid.UUID) ([]models.Admin, error) {
	query := r.db.WithContext(ctx).Model(&models.Admin{})
	if storeID != nil {
		query = query.Where("store_id = ?", *storeID)
	}
	var admins []models.Admin
	if err := query.Order("created_at ASC, id ASC").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AdminStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("id = ?", id).
		Update("status", status)
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}
