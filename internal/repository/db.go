// Package repository provides PostgreSQL persistence for card templates.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/deckforge/cardscript-engine-go/internal/config"
)

// DB wraps a pgx connection pool.
type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDB connects to PostgreSQL using the provided configuration and verifies
// the connection with a ping.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("repository: parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	connectCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("repository: connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ping: %w", err)
	}

	logger.Info("database connected",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Duration("timeout", cfg.Timeout),
	)
	return &DB{pool: pool, logger: logger}, nil
}

// Pool exposes the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Stats returns connection pool statistics.
func (db *DB) Stats() *pgxpool.Stat {
	return db.pool.Stat()
}

// Close releases all pool connections.
func (db *DB) Close() {
	db.pool.Close()
}

// Migrate creates the card template schema if it does not exist.
func (db *DB) Migrate(ctx context.Context) error {
	start := time.Now()
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS card_templates (
			name       TEXT PRIMARY KEY,
			card_type  TEXT NOT NULL DEFAULT '',
			faceup     BOOLEAN NOT NULL DEFAULT FALSE,
			tokens     JSONB NOT NULL DEFAULT '{}'::jsonb,
			set_name   TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("repository: migrate: %w", err)
	}
	db.logger.Info("schema migrated", zap.Duration("elapsed", time.Since(start)))
	return nil
}
