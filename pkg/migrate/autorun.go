package migrate

import (
	"context"
	"fmt"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/config"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/db"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
)

// MaybeRunDev applies pending ledger migrations at startup, only in dev and
// only when DIAGNOSIS_AUTO_MIGRATE is set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	ctx = logg.WithField(ctx, "driver", client.Driver())
	if err := Run(ctx, sqlDB, client.Driver(), "up"); err != nil {
		return fmt.Errorf("auto-migrate ledger: %w", err)
	}
	version, err := Version(sqlDB, client.Driver())
	if err != nil {
		return fmt.Errorf("read ledger schema version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "schema_version", version), "ledger migrations applied")
	return nil
}
