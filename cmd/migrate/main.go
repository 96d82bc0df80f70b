package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Prem931993/buytown-sub000/pkg/config"
	"github.com/Prem931993/buytown-sub000/pkg/db"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
	"github.com/Prem931993/buytown-sub000/pkg/migrate"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	cmd := flags.String("cmd", "up", "up|down|status|version|create|validate")
	dir := flags.String("dir", migrate.DefaultDir, "migrations directory for create and validate")
	name := flags.String("name", "", "migration name for -cmd=create")
	version := flags.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	if err := flags.Parse(args); err != nil {
		return err
	}

	// create and validate only touch files
	switch *cmd {
	case "create":
		if *name == "" {
			return errors.New("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.Validate(os.DirFS(*dir)); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Println("migrations valid")
		return nil
	case "up", "down", "status":
	case "version":
		if *version == "" {
			return errors.New("-version is required for version")
		}
	default:
		return fmt.Errorf("unknown -cmd %q", *cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}

	var report []string
	if *cmd == "version" {
		report, err = migrate.MigrateToVersion(ctx, sqlDB, *version)
	} else {
		report, err = migrate.Run(ctx, sqlDB, *cmd)
	}
	for _, line := range report {
		fmt.Println(line)
	}
	return err
}
