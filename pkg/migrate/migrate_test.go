package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/config"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/db"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/migrate"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := migrate.ValidateEmbedded(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestCheckoutEventsMigrationContainsSchema(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_checkout_events.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no checkout events migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS checkout_events",
		"attempt_id VARCHAR(64) PRIMARY KEY",
		"CREATE INDEX IF NOT EXISTS idx_checkout_events_username_outcome",
		"DROP TABLE IF EXISTS checkout_events",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestDialect(t *testing.T) {
	cases := map[string]string{"postgres": "postgres", "SQLITE": "sqlite3", " sqlite ": "sqlite3"}
	for driver, want := range cases {
		got, err := migrate.Dialect(driver)
		if err != nil || got != want {
			t.Fatalf("Dialect(%q) = %q, %v; want %q", driver, got, err, want)
		}
	}
	if _, err := migrate.Dialect("mysql"); err == nil {
		t.Fatal("expected mysql to be rejected")
	}
}

func TestRunUpAndDownOnSQLite(t *testing.T) {
	ctx := context.Background()
	client := openSQLite(t)

	sqlDB, err := client.SQL()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if err := migrate.Run(ctx, sqlDB, config.DBDriverSQLite, "up"); err != nil {
		t.Fatalf("goose up: %v", err)
	}
	if !client.DB().Migrator().HasTable("checkout_events") {
		t.Fatal("expected checkout_events table after up")
	}

	version, err := migrate.Version(sqlDB, config.DBDriverSQLite)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 20261001090000 {
		t.Fatalf("unexpected version %d", version)
	}

	if err := migrate.Run(ctx, sqlDB, config.DBDriverSQLite, "down"); err != nil {
		t.Fatalf("goose down: %v", err)
	}
	if client.DB().Migrator().HasTable("checkout_events") {
		t.Fatal("expected checkout_events table to be dropped")
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	client := openSQLite(t)
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logger.Nop(), client); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.DB().Migrator().HasTable("checkout_events") {
		t.Fatal("migrations must not run outside dev")
	}

	cfg.App.Env = "dev"
	if err := migrate.MaybeRunDev(context.Background(), cfg, logger.Nop(), client); err != nil {
		t.Fatalf("dev auto-run failed: %v", err)
	}
	if !client.DB().Migrator().HasTable("checkout_events") {
		t.Fatal("expected dev auto-run to create checkout_events")
	}
}

func TestCreateAndValidateDir(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Resolution Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_resolution_notes.sql") {
		t.Fatalf("unexpected migration path %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail validation")
	}
}

func openSQLite(t *testing.T) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver:       config.DBDriverSQLite,
		DSN:          "file::memory:",
		MaxOpenConns: 1,
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestValidateFSRejectsPostgresOnlySyntax(t *testing.T) {
	fsys := fstest.MapFS{
		"20261002100000_add_meta.sql": {Data: []byte("-- +goose Up\n-- jsonb is fine in a comment\nALTER TABLE checkout_events ADD COLUMN meta JSONB;\n-- +goose Down\n")},
	}
	err := migrate.ValidateFS(fsys, ".")
	if err == nil || !strings.Contains(err.Error(), "JSONB") {
		t.Fatalf("expected JSONB to be rejected, got %v", err)
	}

	fsys = fstest.MapFS{
		"20261002100000_add_meta.sql": {Data: []byte("-- +goose Up\n-- jsonb is fine in a comment\nALTER TABLE checkout_events ADD COLUMN meta TEXT;\n-- +goose Down\n")},
	}
	if err := migrate.ValidateFS(fsys, "."); err != nil {
		t.Fatalf("expected portable migration to pass, got %v", err)
	}
}
