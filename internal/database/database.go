// Package database wires the connection pool every other storage
// package shares: quizstore, persistence, and the /health endpoint all
// go through the Service this package constructs.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Service is the pool handle passed to quizstore and persistence, and
// consulted directly by the gateway's health route.
type Service interface {
	Pool() *pgxpool.Pool
	Health() map[string]string
	Close()
}

type service struct {
	pool *pgxpool.Pool
}

// New opens a pgx connection pool against dsn and verifies it with a
// ping before returning.
func New(ctx context.Context, dsn string) (Service, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: connecting: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: pinging: %w", err)
	}

	return &service{pool: pool}, nil
}

func (s *service) Pool() *pgxpool.Pool {
	return s.pool
}

// Health reports pool statistics in the same string-map shape the
// health route has always returned.
func (s *service) Health() map[string]string {
	stats := s.pool.Stat()
	health := map[string]string{"status": "up"}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		health["status"] = "down"
		health["error"] = err.Error()
		return health
	}

	health["open_connections"] = fmt.Sprintf("%d", stats.TotalConns())
	health["idle_connections"] = fmt.Sprintf("%d", stats.IdleConns())
	health["acquired_connections"] = fmt.Sprintf("%d", stats.AcquiredConns())
	return health
}

func (s *service) Close() {
	s.pool.Close()
}
