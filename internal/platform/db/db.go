package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrrecords/internal/platform/querier"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type SchemaInfo struct {
	Version string `json:"version"`
	Applied int    `json:"applied"`
}

// SchemaVersion reports the newest applied migration and how many have run.
func SchemaVersion(ctx context.Context, q querier.Querier) (SchemaInfo, error) {
	var info SchemaInfo
	if err := q.QueryRow(ctx, "SELECT COUNT(1) FROM schema_migrations").Scan(&info.Applied); err != nil {
		return SchemaInfo{}, err
	}
	err := q.QueryRow(ctx, "SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&info.Version)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return SchemaInfo{}, err
	}
	return info, nil
}

// Schema exposes SchemaVersion as a method over a fixed querier.
type Schema struct {
	DB querier.Querier
}

func (s Schema) SchemaVersion(ctx context.Context) (SchemaInfo, error) {
	return SchemaVersion(ctx, s.DB)
}
