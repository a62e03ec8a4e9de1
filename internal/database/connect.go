package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/wabooking/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool and checks the database answers within timeout.
func Connect(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
