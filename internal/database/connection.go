package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/averlow/otpgate/internal/config"
	_ "modernc.org/sqlite"
)

type DB struct {
	SQL    *sql.DB
	logger *slog.Logger
}

// NewConnection opens the local sqlite database file and verifies it is
// reachable. SQLite allows a single writer, so the pool is kept small.
func NewConnection(cfg *config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Info("database opened", slog.String("path", cfg.Path))

	return &DB{SQL: db, logger: logger}, nil
}

func (db *DB) Close() {
	db.logger.Info("closing database")
	_ = db.SQL.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.SQL.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
