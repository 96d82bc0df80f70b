package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where new migrations are created on disk.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations exposes the embedded SQL files.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

func provider(db *sql.DB) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, Migrations())
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Run executes up, down or status against the embedded migrations and
// returns one report line per migration touched or listed.
func Run(ctx context.Context, db *sql.DB, command string) ([]string, error) {
	p, err := provider(db)
	if err != nil {
		return nil, err
	}
	switch command {
	case "up":
		results, err := p.Up(ctx)
		return describe(results), wrapCommand(command, err)
	case "down":
		result, err := p.Down(ctx)
		if result == nil {
			return nil, wrapCommand(command, err)
		}
		return describe([]*goose.MigrationResult{result}), wrapCommand(command, err)
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return nil, wrapCommand(command, err)
		}
		lines := make([]string, 0, len(statuses))
		for _, st := range statuses {
			applied := "pending"
			if st.State == goose.StateApplied {
				applied = "applied " + st.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			lines = append(lines, fmt.Sprintf("%-40s %s", path.Base(st.Source.Path), applied))
		}
		return lines, nil
	default:
		return nil, fmt.Errorf("unsupported migrate command %q", command)
	}
}

// MigrateToVersion moves the schema up or down to targetVersion
// (YYYYMMDDHHMMSS).
func MigrateToVersion(ctx context.Context, db *sql.DB, targetVersion string) ([]string, error) {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	p, err := provider(db)
	if err != nil {
		return nil, err
	}
	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil, nil
	case current < target:
		results, err = p.UpTo(ctx, target)
	default:
		results, err = p.DownTo(ctx, target)
	}
	return describe(results), wrapCommand(fmt.Sprintf("migrate %d->%d", current, target), err)
}

func describe(results []*goose.MigrationResult) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.String())
	}
	return lines
}

func wrapCommand(command string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("goose %s: %w", command, err)
}
