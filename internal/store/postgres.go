package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the credential and post stores over PostgreSQL.
// The pool is owned by the caller; the store never closes it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewPool parses dsn, applies pool sizing and verifies connectivity.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := Ping(ctx, pool, 3*time.Second); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Ping checks that a connection can be acquired within timeout.
func Ping(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            BIGSERIAL    PRIMARY KEY,
		username      VARCHAR(50)  NOT NULL,
		secret_hash   VARCHAR(255) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		bio           TEXT         NOT NULL DEFAULT '',
		is_admin      BOOLEAN      NOT NULL DEFAULT FALSE,
		avatar_key    TEXT         NOT NULL DEFAULT '',
		registered_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		CONSTRAINT uq_accounts_username UNIQUE (username),
		CONSTRAINT uq_accounts_email    UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         BIGSERIAL   PRIMARY KEY,
		author_id  BIGINT      NOT NULL,
		content    TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT fk_posts_author FOREIGN KEY (author_id) REFERENCES accounts (id),
		CONSTRAINT ck_posts_content_not_empty CHECK (length(btrim(content)) > 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at
		ON posts (created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_author_created_at
		ON posts (author_id, created_at DESC, id DESC)`,
}

// Migrate creates the accounts and posts tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
