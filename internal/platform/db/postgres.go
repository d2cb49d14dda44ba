package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/open-builders/giveaway-bot/internal/common/logger"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open initializes a PostgreSQL connection using database/sql and lib/pq.
func Open(ctx context.Context, dsn string, opts Options) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres DSN")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Int("max_open_conns", opts.MaxOpenConns).Msg("PostgreSQL client initialized")
	return db, nil
}

// Migrate creates the schema if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	logger.Info().Int("statements", len(schema)).Msg("Database schema up to date")
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS giveaways (
		id               UUID PRIMARY KEY,
		guild_id         TEXT NOT NULL,
		channel_id       TEXT NOT NULL,
		message_id       TEXT NOT NULL UNIQUE,
		prize            TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
		winner_count     INTEGER NOT NULL CHECK (winner_count > 0),
		conditions       TEXT NOT NULL,
		ends_at          TIMESTAMPTZ NOT NULL,
		participants     TEXT[] NOT NULL DEFAULT '{}',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS giveaways_ends_at_idx ON giveaways (ends_at)`,
	`CREATE TABLE IF NOT EXISTS giveaway_history (
		id               UUID PRIMARY KEY,
		guild_id         TEXT NOT NULL,
		channel_id       TEXT NOT NULL,
		message_id       TEXT NOT NULL,
		prize            TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		winner_count     INTEGER NOT NULL,
		conditions       TEXT NOT NULL,
		ends_at          TIMESTAMPTZ NOT NULL,
		participants     TEXT[] NOT NULL DEFAULT '{}',
		winners          TEXT[] NOT NULL DEFAULT '{}',
		created_at       TIMESTAMPTZ NOT NULL,
		resolved_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS giveaway_history_guild_ends_idx ON giveaway_history (guild_id, ends_at DESC)`,
	`CREATE TABLE IF NOT EXISTS allowlist (user_id TEXT PRIMARY KEY)`,
	`CREATE TABLE IF NOT EXISTS blocked_words (word TEXT PRIMARY KEY)`,
}
