//go:build integration

package dbtest

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Prem931993/buytown-sub000/pkg/migrate"
)

const postgresImage = "postgres:16-alpine"

// Postgres is a disposable container migrated with the embedded goose files.
type Postgres struct {
	Container *postgres.PostgresContainer
	DB        *gorm.DB
}

// StartPostgres boots a container and applies every migration.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	container, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase("buytown"),
		postgres.WithUsername("buytown"),
		postgres.WithPassword("buytown"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}

	conn, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	if _, err := migrate.Run(ctx, sqlDB, "up"); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &Postgres{Container: container, DB: conn}, nil
}

// Truncate empties the given tables between tests.
func (p *Postgres) Truncate(tables ...string) error {
	for _, table := range tables {
		if err := p.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// Terminate closes the pool and stops the container.
func (p *Postgres) Terminate(ctx context.Context) error {
	if sqlDB, err := p.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return p.Container.Terminate(ctx)
}
