// Package pg owns the pgx pool and its instrumentation
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config carries what New needs to build a pool
type Config struct {
	// URL is a pgx compatible connection string
	URL string
}

// PG wraps a pgx pool
type PG struct {
	pool *pgxpool.Pool
}

// New builds a pool from cfg without pinging it; callers decide readiness
func New(ctx context.Context, cfg Config) (*PG, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse pg url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("new pg pool: %w", err)
	}
	return &PG{pool: pool}, nil
}

// Pool exposes the raw pool for the sql adapter
func (p *PG) Pool() *pgxpool.Pool { return p.pool }

// Ping checks connectivity
func (p *PG) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

// Close releases the pool
func (p *PG) Close() error {
	p.pool.Close()
	return nil
}
