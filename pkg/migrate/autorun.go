package migrate

import (
	"context"
	"fmt"

	"github.com/lockerhub/lockerhub-backend/pkg/config"
	"github.com/lockerhub/lockerhub-backend/pkg/db"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
)

// AutoMigrateEnabled reports whether binaries should migrate on boot. Only
// dev opts in; every other environment migrates through cmd/migrate.
func AutoMigrateEnabled(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev brings the schema up to date when AutoMigrateEnabled holds.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !AutoMigrateEnabled(cfg) {
		return nil
	}
	if err := ValidateDir(DefaultDir); err != nil {
		return err
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}

	from, err := CurrentVersion(ctx, sqlDB, DefaultDir)
	if err != nil {
		return err
	}
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return err
	}
	to, err := CurrentVersion(ctx, sqlDB, DefaultDir)
	if err != nil {
		return err
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"from_version": from,
		"to_version":   to,
	}), "schema migrated on boot")
	return nil
}
