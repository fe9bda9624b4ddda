package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/risbow/risbow-backend/pkg/config"
	"github.com/risbow/risbow-backend/pkg/db"
	"github.com/risbow/risbow-backend/pkg/logger"
)

// ShouldAutoRun is true only in dev with RISBOW_AUTO_MIGRATE set.
func ShouldAutoRun(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev applies pending migrations on boot when ShouldAutoRun allows it.
// The directory is validated first so a malformed file never half-applies.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !ShouldAutoRun(cfg) {
		return nil
	}
	files, err := Scan(DefaultDir)
	if err != nil {
		return fmt.Errorf("refusing to auto-migrate: %w", err)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := prepare(sqlDB, DefaultDir); err != nil {
		return err
	}
	before, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, DefaultDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	after, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"dir":          DefaultDir,
		"files":        len(files),
		"from_version": before,
		"to_version":   after,
	}), "dev auto-migration complete")
	return nil
}
