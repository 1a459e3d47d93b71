// Package dbtest opens isolated SQLite databases carrying the same models and
// partial unique indexes as the Postgres schema. Only test files import it.
package dbtest

import (
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lockerhub/lockerhub-backend/pkg/db"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
)

var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_one_pending_per_user ON applications (user_id) WHERE status = 'pending'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_lockers_current_user ON lockers (current_user_id) WHERE current_user_id IS NOT NULL`,
}

// Open returns a fresh in-memory database and a client wrapping it.
func Open(t *testing.T) (*gorm.DB, *db.Client) {
	t.Helper()

	dsn := fmt.Sprintf("file:lockerhub_%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.New(log.New(io.Discard, "", 0), gormlogger.Config{LogLevel: gormlogger.Silent}),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(
		&models.Store{},
		&models.User{},
		&models.Admin{},
		&models.Locker{},
		&models.Application{},
		&models.LockerRecord{},
		&models.Reminder{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	for _, stmt := range partialIndexes {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create index: %v", err)
		}
	}
	return conn, db.FromConn(conn)
}
