package dbtest

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// SeedStore inserts an active store with a unique name.
func SeedStore(t *testing.T, conn *gorm.DB) *models.Store {
	t.Helper()
	store := &models.Store{
		Name:    "Store " + uuid.NewString()[:8],
		Address: "1 Test Road",
		Status:  enums.StoreStatusActive,
	}
	mustCreate(t, conn, store)
	return store
}

// SeedUser inserts an active user whose home store is storeID.
func SeedUser(t *testing.T, conn *gorm.DB, storeID *uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		Phone:        randomPhone(),
		Name:         "Test User",
		PasswordHash: "x",
		StoreID:      storeID,
		Status:       enums.UserStatusActive,
	}
	mustCreate(t, conn, user)
	return user
}

// SeedAdmin inserts an active admin. storeID must be nil for super admins.
func SeedAdmin(t *testing.T, conn *gorm.DB, role enums.AdminRole, storeID *uuid.UUID) *models.Admin {
	t.Helper()
	admin := &models.Admin{
		Phone:        randomPhone(),
		Name:         "Test Admin",
		PasswordHash: "x",
		Role:         role,
		StoreID:      storeID,
		Status:       enums.AdminStatusActive,
	}
	mustCreate(t, conn, admin)
	return admin
}

// SeedLocker inserts an available locker.
func SeedLocker(t *testing.T, conn *gorm.DB, storeID uuid.UUID, number string) *models.Locker {
	t.Helper()
	locker := &models.Locker{
		StoreID: storeID,
		Number:  number,
		Status:  enums.LockerStatusAvailable,
	}
	mustCreate(t, conn, locker)
	return locker
}

func mustCreate(t *testing.T, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

func randomPhone() string {
	return fmt.Sprintf("1%010d", rand.Int64N(1e10))
}
