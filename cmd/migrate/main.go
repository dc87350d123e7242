package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/config"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/db"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/instance"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

// offline commands work on the migration files only.
var offline = map[string]func(options) error{
	"create": func(o options) error {
		if o.name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(o options) error {
		if err := migrate.ValidateDir(o.dir); err != nil {
			return err
		}
		if err := migrate.ValidateEmbedded(); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

// online commands run against the configured ledger database.
var online = map[string]func(context.Context, *sql.DB, string, options) error{
	"up":     gooseCommand("up"),
	"down":   gooseCommand("down"),
	"status": gooseCommand("status"),
	"version": func(ctx context.Context, sqlDB *sql.DB, driver string, o options) error {
		if o.version == "" {
			return errors.New("missing -version for version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, driver, o.version)
	},
}

func gooseCommand(name string) func(context.Context, *sql.DB, string, options) error {
	return func(ctx context.Context, sqlDB *sql.DB, driver string, _ options) error {
		return migrate.Run(ctx, sqlDB, driver, name)
	}
}

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate")
	var opts options
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations directory for create and validate")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate", Instance: instance.GetID()})
	cfg, err := config.Load()
	if err != nil {
		exit(context.Background(), logg, "load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"dir":    opts.dir,
		"driver": cfg.DB.NormalizedDriver(),
	})

	if run, ok := offline[*cmd]; ok {
		if err := run(opts); err != nil {
			exit(ctx, logg, *cmd, err)
		}
		return
	}

	run, ok := online[*cmd]
	if !ok {
		exit(ctx, logg, "parse flags", fmt.Errorf("unknown -cmd value %q", *cmd))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		exit(ctx, logg, "open database", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		exit(ctx, logg, "open database", err)
	}

	logg.Info(ctx, "running migration command")
	if err := run(ctx, sqlDB, dbClient.Driver(), opts); err != nil {
		_ = dbClient.Close()
		exit(ctx, logg, *cmd, err)
	}
	logg.Info(ctx, "migration command finished")
}

func exit(ctx context.Context, logg *logger.Logger, step string, err error) {
	logg.Error(ctx, fmt.Sprintf("migrate %s failed", step), err)
	os.Exit(1)
}
