package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolAdapter exposes a pgx pool as a minimal health-check pinger.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter wraps the pool for readiness checks.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

// Ping verifies database connectivity.
func (a *PoolAdapter) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}
