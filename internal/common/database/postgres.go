// Package database holds the connection plumbing for Postgres, Redis,
// and Elasticsearch. Constructors only dial; callers probe with Ping so
// startup retries stay in one place.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lodgement-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient owns the shared *sql.DB the store layer runs on.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping verifies the pool can reach the server. Also backs /ready.
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
