package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a PostgreSQL connection via GORM and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Open dials PostgreSQL and returns the DB with a cleanup that closes it.
// On error the cleanup is a no-op and nothing is left open.
func Open(ctx context.Context, dsn string) (*gorm.DB, func(), error) {
	db, err := Connect(ctx, dsn)
	if err != nil {
		return nil, func() {}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, func() {}, fmt.Errorf("unwrap postgres connection: %w", err)
	}
	return db, func() { _ = sqlDB.Close() }, nil
}

// ConnectWithCleanup dials PostgreSQL and returns the DB plus a cleanup function.
// On failure it logs and returns nil with a no-op cleanup so callers can fall back.
func ConnectWithCleanup(ctx context.Context, dsn string, log *slog.Logger) (*gorm.DB, func()) {
	db, cleanup, err := Open(ctx, dsn)
	if err != nil {
		if log != nil {
			log.Warn("failed to connect to postgres", slog.String("error", err.Error()))
		}
		return nil, cleanup
	}
	if log != nil {
		log.Debug("postgres connection established")
	}
	return db, cleanup
}
