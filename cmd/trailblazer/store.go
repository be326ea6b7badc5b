package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailblazer-io/trailblazer/internal/storage/postgres"
)

// openStore opens the relational pool and ensures the schema exists
// for the configured provider's embedding dimension.
func openStore(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := postgres.OpenPool(ctx, config.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	if err := postgres.InitSchema(ctx, pool, config.Provider.Dimension); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
