// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks across package boundaries.
// Workflow errors carry oops codes on top of these for user-facing
// reason mapping.
var (
	// ErrNotFound is returned when no Identity exists for an external ID.
	ErrNotFound = errors.New("not found")

	// ErrConflict is the base error for uniqueness violations.
	ErrConflict = errors.New("conflict")

	// ErrNicknameTaken wraps ErrConflict for nickname collisions.
	ErrNicknameTaken = fmt.Errorf("nickname taken: %w", ErrConflict)

	// ErrAlreadyRegistered wraps ErrConflict for duplicate external IDs.
	ErrAlreadyRegistered = fmt.Errorf("already registered: %w", ErrConflict)

	// ErrStorageUnavailable is returned when the persistence layer is
	// unreachable or a store operation timed out. Transient; callers may
	// resubmit. The workflows never retry it themselves, which would risk
	// duplicate audit events.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
