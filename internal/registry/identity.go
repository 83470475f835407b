// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package registry

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Nickname and password length bounds, matching what the platform modal
// enforces client-side. Counted in runes, not bytes.
const (
	MinNicknameLength = 3
	MaxNicknameLength = 16
	MinPasswordLength = 6
	MaxPasswordLength = 32
)

// Identity is the persisted registration record for one community
// member. ExternalID, Nickname, and RegisteredAt are immutable after
// creation; PasswordDigest and PasswordChangedAt change only through
// PasswordService.
type Identity struct {
	ExternalID        uint64
	DisplayName       string
	Nickname          string
	PasswordDigest    string
	RegisteredAt      time.Time
	PasswordChangedAt *time.Time
}

// ValidateNickname validates a candidate nickname. Only length is
// constrained; uniqueness is checked against the store separately,
// case-insensitively (simple case folding via SQL LOWER, no further
// Unicode normalization).
func ValidateNickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	if n < MinNicknameLength {
		return oops.Code("REG_INVALID_NICKNAME").
			With("min", MinNicknameLength).
			Errorf("nickname must be at least %d characters", MinNicknameLength)
	}
	if n > MaxNicknameLength {
		return oops.Code("REG_INVALID_NICKNAME").
			With("max", MaxNicknameLength).
			Errorf("nickname must be at most %d characters", MaxNicknameLength)
	}
	return nil
}

// ValidatePassword validates a candidate plaintext password.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return oops.Code("REG_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return oops.Code("REG_INVALID_PASSWORD").
			With("max", MaxPasswordLength).
			Errorf("password must be at most %d characters", MaxPasswordLength)
	}
	return nil
}

// UserStore manages Identity persistence. Implementations must enforce
// the uniqueness invariants themselves (constraint-backed): primary key
// on ExternalID and a case-insensitive unique index on Nickname. All
// operations are single-statement and safe for concurrent use.
type UserStore interface {
	// Find retrieves an Identity by external ID.
	// Returns ErrNotFound when absent.
	Find(ctx context.Context, externalID uint64) (*Identity, error)

	// Exists reports whether an Identity exists for the external ID.
	Exists(ctx context.Context, externalID uint64) (bool, error)

	// NicknameTaken reports whether the nickname is taken,
	// case-insensitively, using the same collation as the unique index.
	NicknameTaken(ctx context.Context, nickname string) (bool, error)

	// Create inserts a new Identity with RegisteredAt set and
	// PasswordChangedAt absent. Returns ErrAlreadyRegistered or
	// ErrNicknameTaken (both matching ErrConflict) on constraint
	// violation.
	Create(ctx context.Context, identity *Identity) error

	// UpdatePassword overwrites the stored digest and sets
	// PasswordChangedAt to now. Returns ErrNotFound when no Identity
	// exists for the external ID.
	UpdatePassword(ctx context.Context, externalID uint64, newDigest string) error
}
