// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package registry

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ChangeInput carries one password-change submission.
type ChangeInput struct {
	ExternalID      uint64
	OldPassword     string
	NewPassword     string
	PasswordConfirm string
}

// PasswordService validates and commits credential rotations for
// existing identities.
type PasswordService struct {
	store  UserStore
	hasher Digester
	audit  AuditEmitter
	logger *slog.Logger
}

// NewPasswordService creates a PasswordService.
func NewPasswordService(store UserStore, hasher Digester, audit AuditEmitter, logger *slog.Logger) (*PasswordService, error) {
	if store == nil {
		return nil, oops.Code("PWD_SERVICE_INVALID").Errorf("user store is required")
	}
	if hasher == nil {
		return nil, oops.Code("PWD_SERVICE_INVALID").Errorf("digester is required")
	}
	if audit == nil {
		return nil, oops.Code("PWD_SERVICE_INVALID").Errorf("audit emitter is required")
	}
	if logger == nil {
		return nil, oops.Code("PWD_SERVICE_INVALID").Errorf("logger is required")
	}
	return &PasswordService{
		store:  store,
		hasher: hasher,
		audit:  audit,
		logger: logger,
	}, nil
}

// ChangePassword rotates the caller's credential. The current password
// is verified by digest comparison only; plaintext never touches the
// store or the audit trail.
//
// Error codes: PWD_NOT_REGISTERED, PWD_INCORRECT, PWD_INVALID_PASSWORD,
// PWD_MISMATCH, PWD_STORAGE_UNAVAILABLE.
func (s *PasswordService) ChangePassword(ctx context.Context, in ChangeInput) error {
	identity, err := s.store.Find(ctx, in.ExternalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("PWD_NOT_REGISTERED").
				With("external_id", in.ExternalID).
				Wrap(err)
		}
		return s.storeErr(err, "Find", in.ExternalID)
	}

	oldDigest := s.hasher.Digest(in.OldPassword)
	if subtle.ConstantTimeCompare([]byte(oldDigest), []byte(identity.PasswordDigest)) != 1 {
		return oops.Code("PWD_INCORRECT").
			With("external_id", in.ExternalID).
			Errorf("incorrect current password")
	}

	if err := ValidatePassword(in.NewPassword); err != nil {
		return oops.Code("PWD_INVALID_PASSWORD").Wrap(err)
	}
	if in.NewPassword != in.PasswordConfirm {
		return oops.Code("PWD_MISMATCH").Errorf("new passwords do not match")
	}

	newDigest := s.hasher.Digest(in.NewPassword)
	if err := s.store.UpdatePassword(ctx, in.ExternalID, newDigest); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("PWD_NOT_REGISTERED").
				With("external_id", in.ExternalID).
				Wrap(err)
		}
		return s.storeErr(err, "UpdatePassword", in.ExternalID)
	}

	s.audit.Emit(Event{
		ID:          ulid.Make(),
		Kind:        EventPasswordChange,
		ExternalID:  identity.ExternalID,
		DisplayName: identity.DisplayName,
		Nickname:    identity.Nickname,
		OldPreview:  DigestPreview(identity.PasswordDigest),
		NewPreview:  DigestPreview(newDigest),
		Timestamp:   time.Now().UTC(),
	})

	s.logger.Info("password changed",
		"external_id", identity.ExternalID,
		"nickname", identity.Nickname)

	return nil
}

func (s *PasswordService) storeErr(err error, operation string, externalID uint64) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return oops.Code("PWD_STORAGE_UNAVAILABLE").
			With("operation", operation).
			With("external_id", externalID).
			Wrap(err)
	}
	return oops.Code("PWD_STORE_FAILED").
		With("operation", operation).
		With("external_id", externalID).
		Wrap(err)
}
