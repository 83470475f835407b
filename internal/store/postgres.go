// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

// Package store provides the PostgreSQL connection pool and schema
// management for GuildGate.
package store

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

//go:embed migrations/001_users.up.sql
var schemaSQL string

// PoolConfig tunes the process-wide connection pool.
type PoolConfig struct {
	MaxConns       int32
	ConnectTimeout time.Duration
}

// Store owns the process-wide pgx connection pool. It is constructed
// once at startup and passed down explicitly; there is no package-level
// handle.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and verifies connectivity. The initial
// ping is retried with fibonacci backoff up to the connect timeout, so
// a database that is still starting does not fail the process.
func New(ctx context.Context, dsn string, cfg PoolConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse dsn").Wrap(err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}

	backoff := retry.WithMaxDuration(connectTimeout, retry.NewFibonacci(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}

	return &Store{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// InitSchema ensures the users table and its uniqueness invariants
// exist. Idempotent; safe to call on every startup.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return oops.Code("DB_SCHEMA_FAILED").With("operation", "init schema").Wrap(err)
	}
	return nil
}
