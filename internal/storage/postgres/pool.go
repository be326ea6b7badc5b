// Package postgres is the relational store of §2 and §6: documents,
// chunks, chunk_embeddings, and the processed_runs coordination table,
// over jackc/pgx/v5 and pgvector/pgvector-go.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go/pgxv5"

	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// OpenPool creates a connection pool against dsn with conservative
// defaults, pinging once to fail fast on a bad DSN.
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, trailerr.New(trailerr.KindConfiguration, "postgres.OpenPool", err)
	}
	cfg.MaxConns = 16
	cfg.MinConns = 0
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxv5.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.OpenPool", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.OpenPool", err)
	}
	return pool, nil
}
