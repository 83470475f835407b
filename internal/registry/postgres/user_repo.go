// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

// Package postgres implements registry.UserStore using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/guildgate/guildgate/internal/registry"
)

// nicknameIndexName is the functional unique index on LOWER(nickname).
// Constraint violations are attributed by this name.
const nicknameIndexName = "users_nickname_lower_idx"

// poolIface abstracts *pgxpool.Pool so pgxmock can be injected in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements registry.UserStore using PostgreSQL. Every
// operation is a single statement bounded by opTimeout; a connection is
// held only for the duration of one statement.
type UserRepository struct {
	pool      poolIface
	opTimeout time.Duration
}

// NewUserRepository creates a UserRepository. opTimeout bounds each
// store operation; zero disables the per-operation deadline.
func NewUserRepository(pool poolIface, opTimeout time.Duration) *UserRepository {
	return &UserRepository{pool: pool, opTimeout: opTimeout}
}

// Find retrieves an Identity by external ID.
func (r *UserRepository) Find(ctx context.Context, externalID uint64) (*registry.Identity, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		SELECT external_id, display_name, nickname, password_digest, registered_at, password_changed_at
		FROM users
		WHERE external_id = $1
	`, int64(externalID))

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("external_id", externalID).
			Wrap(registry.ErrNotFound)
	}
	if err != nil {
		return nil, classify(err, "find user", externalID)
	}
	return identity, nil
}

// Exists reports whether an Identity exists for the external ID.
func (r *UserRepository) Exists(ctx context.Context, externalID uint64) (bool, error) {
	_, err := r.Find(ctx, externalID)
	if errors.Is(err, registry.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NicknameTaken reports whether the nickname is taken, using the same
// LOWER() collation as the unique index so the pre-check and the
// constraint agree.
func (r *UserRepository) NicknameTaken(ctx context.Context, nickname string) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var one int
	err := r.pool.QueryRow(ctx, `
		SELECT 1 FROM users WHERE LOWER(nickname) = LOWER($1)
	`, nickname).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err, "nickname lookup", 0)
	}
	return true, nil
}

// Create inserts a new Identity. Unique violations are translated into
// the registry conflict sentinels by constraint name.
func (r *UserRepository) Create(ctx context.Context, identity *registry.Identity) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (external_id, display_name, nickname, password_digest, registered_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		int64(identity.ExternalID),
		identity.DisplayName,
		identity.Nickname,
		identity.PasswordDigest,
		identity.RegisteredAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			sentinel := registry.ErrConflict
			switch pgErr.ConstraintName {
			case nicknameIndexName:
				sentinel = registry.ErrNicknameTaken
			case "users_pkey":
				sentinel = registry.ErrAlreadyRegistered
			}
			return oops.Code("USER_CONFLICT").
				With("constraint", pgErr.ConstraintName).
				With("external_id", identity.ExternalID).
				Wrap(sentinel)
		}
		return classify(err, "create user", identity.ExternalID)
	}
	return nil
}

// UpdatePassword overwrites the digest and stamps password_changed_at.
func (r *UserRepository) UpdatePassword(ctx context.Context, externalID uint64, newDigest string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_digest = $2, password_changed_at = $3
		WHERE external_id = $1
	`, int64(externalID), newDigest, time.Now().UTC())
	if err != nil {
		return classify(err, "update password", externalID)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("external_id", externalID).
			Wrap(registry.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

// scanIdentity scans a single row into an Identity.
// Callers are responsible for handling pgx.ErrNoRows.
func scanIdentity(row pgx.Row) (*registry.Identity, error) {
	var (
		externalID        int64
		displayName       string
		nickname          string
		passwordDigest    string
		registeredAt      time.Time
		passwordChangedAt *time.Time
	)

	err := row.Scan(&externalID, &displayName, &nickname, &passwordDigest, &registeredAt, &passwordChangedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").Wrap(err)
	}

	return &registry.Identity{
		ExternalID:        uint64(externalID),
		DisplayName:       displayName,
		Nickname:          nickname,
		PasswordDigest:    passwordDigest,
		RegisteredAt:      registeredAt,
		PasswordChangedAt: passwordChangedAt,
	}, nil
}

// classify wraps a store failure, mapping timeouts and connectivity
// problems onto registry.ErrStorageUnavailable so workflows surface a
// retryable reason instead of hanging internals. Caller-side
// cancellation is not a storage problem and keeps the plain failure
// code.
func classify(err error, operation string, externalID uint64) error {
	builder := oops.Code("USER_STORE_FAILED").With("operation", operation)
	if externalID != 0 {
		builder = builder.With("external_id", externalID)
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return builder.Wrap(err)
	case errors.Is(err, context.DeadlineExceeded),
		pgconn.Timeout(err),
		errors.As(err, &netErr):
		return builder.Code("USER_STORE_UNAVAILABLE").
			Wrap(errors.Join(registry.ErrStorageUnavailable, err))
	default:
		return builder.Wrap(err)
	}
}

// Compile-time interface check.
var _ registry.UserStore = (*UserRepository)(nil)
