// Package database manages the PostgreSQL connection pool and schema
// migrations for the concierge backend.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Client wraps the shared connection pool.
type Client struct {
	db     *sql.DB
	config Config
	logger *slog.Logger
}

// NewClient opens a pooled connection, verifies it, and applies pending
// migrations.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client := &Client{db: db, config: cfg, logger: logger}

	if err := client.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established",
		"host", cfg.Host, "database", cfg.Database)
	return client, nil
}

// DB exposes the underlying pool for services and the event publisher.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close shuts down the connection pool.
func (c *Client) Close() error {
	c.logger.Info("Closing database connection")
	return c.db.Close()
}
