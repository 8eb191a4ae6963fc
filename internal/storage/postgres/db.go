// Package postgres provides database-backed persistence implementations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/metaboatrace/crawler/internal/storage/upsert"
)

// Config controls the connection pool.
type Config struct {
	DSN             string
	Dialect         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Querier is the subset of pgxpool.Pool the stores use. pgxmock
// satisfies it for tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type base struct {
	db       Querier
	strategy upsert.Strategy
}

// DB owns the pool and hands out per-entity stores sharing it.
type DB struct {
	base
	closeFn func()
}

// New connects a pool from config.
func New(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	strategy, err := upsert.ForDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &DB{
		base:    base{db: pool, strategy: strategy},
		closeFn: pool.Close,
	}, nil
}

// NewWithQuerier constructs a DB from an existing querier (primarily
// for testing).
func NewWithQuerier(db Querier, dialect string) (*DB, error) {
	if db == nil {
		return nil, fmt.Errorf("querier is required")
	}
	strategy, err := upsert.ForDialect(dialect)
	if err != nil {
		return nil, err
	}
	return &DB{base: base{db: db, strategy: strategy}}, nil
}

// Close releases the underlying pool.
func (d *DB) Close() {
	if d == nil || d.closeFn == nil {
		return
	}
	d.closeFn()
}

func (b *base) upsertMany(ctx context.Context, table string, rows []goqu.Record, conflict, update []string) error {
	if len(rows) == 0 {
		return nil
	}
	sql, args, err := b.strategy.Build(table, rows, conflict, update)
	if err != nil {
		return fmt.Errorf("build upsert for %s: %w", table, err)
	}
	if _, err := b.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func (b *base) upsertOne(ctx context.Context, table string, row goqu.Record, conflict, update []string) error {
	return b.upsertMany(ctx, table, []goqu.Record{row}, conflict, update)
}
