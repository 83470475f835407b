// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// affirmativeConsent is the set of accepted consent answers, compared
// after trimming and lowercasing.
var affirmativeConsent = map[string]struct{}{
	"yes": {},
	"y":   {},
}

// RegisterInput carries one registration submission. Caller identity
// (ExternalID, DisplayName, Roles) arrives already authenticated by the
// chat platform.
type RegisterInput struct {
	ExternalID      uint64
	DisplayName     string
	Nickname        string
	Password        string
	PasswordConfirm string
	Consent         string
	Roles           []uint64
}

// RegistrationService validates registration submissions and commits
// new identities.
type RegistrationService struct {
	store  UserStore
	hasher Digester
	gate   Gate
	audit  AuditEmitter
	logger *slog.Logger
}

// NewRegistrationService creates a RegistrationService.
func NewRegistrationService(store UserStore, hasher Digester, gate Gate, audit AuditEmitter, logger *slog.Logger) (*RegistrationService, error) {
	if store == nil {
		return nil, oops.Code("REG_SERVICE_INVALID").Errorf("user store is required")
	}
	if hasher == nil {
		return nil, oops.Code("REG_SERVICE_INVALID").Errorf("digester is required")
	}
	if audit == nil {
		return nil, oops.Code("REG_SERVICE_INVALID").Errorf("audit emitter is required")
	}
	if logger == nil {
		return nil, oops.Code("REG_SERVICE_INVALID").Errorf("logger is required")
	}
	return &RegistrationService{
		store:  store,
		hasher: hasher,
		gate:   gate,
		audit:  audit,
		logger: logger,
	}, nil
}

// Register validates a submission and commits a new Identity. The first
// failing check short-circuits with a distinct error code; no side
// effects occur before every check passes. The store's constraints
// remain the authority on uniqueness: a conflict surfacing from Create
// maps to the same codes as the advisory pre-checks.
//
// Error codes: REG_INVALID_NICKNAME, REG_INVALID_PASSWORD,
// REG_PASSWORD_MISMATCH, REG_CONSENT_REQUIRED, REG_FORBIDDEN,
// REG_NICKNAME_TAKEN, REG_ALREADY_REGISTERED, REG_STORAGE_UNAVAILABLE.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*Identity, error) {
	if err := ValidateNickname(in.Nickname); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Password != in.PasswordConfirm {
		return nil, oops.Code("REG_PASSWORD_MISMATCH").Errorf("passwords do not match")
	}
	if !consentGiven(in.Consent) {
		return nil, oops.Code("REG_CONSENT_REQUIRED").Errorf("explicit consent to the rules is required")
	}
	if !s.gate.Eligible(in.Roles) {
		return nil, oops.Code("REG_FORBIDDEN").
			With("external_id", in.ExternalID).
			Errorf("caller lacks a required role")
	}

	// Advisory fast path; the unique index is the authority.
	taken, err := s.store.NicknameTaken(ctx, in.Nickname)
	if err != nil {
		return nil, s.storeErr(err, "NicknameTaken", in.ExternalID)
	}
	if taken {
		return nil, oops.Code("REG_NICKNAME_TAKEN").
			With("nickname", in.Nickname).
			Wrap(ErrNicknameTaken)
	}

	exists, err := s.store.Exists(ctx, in.ExternalID)
	if err != nil {
		return nil, s.storeErr(err, "Exists", in.ExternalID)
	}
	if exists {
		return nil, oops.Code("REG_ALREADY_REGISTERED").
			With("external_id", in.ExternalID).
			Wrap(ErrAlreadyRegistered)
	}

	identity := &Identity{
		ExternalID:     in.ExternalID,
		DisplayName:    in.DisplayName,
		Nickname:       in.Nickname,
		PasswordDigest: s.hasher.Digest(in.Password),
		RegisteredAt:   time.Now().UTC(),
	}

	if err := s.store.Create(ctx, identity); err != nil {
		// A race lost against a concurrent registration lands here.
		switch {
		case errors.Is(err, ErrAlreadyRegistered):
			return nil, oops.Code("REG_ALREADY_REGISTERED").
				With("external_id", in.ExternalID).
				Wrap(err)
		case errors.Is(err, ErrConflict):
			return nil, oops.Code("REG_NICKNAME_TAKEN").
				With("nickname", in.Nickname).
				Wrap(err)
		default:
			return nil, s.storeErr(err, "Create", in.ExternalID)
		}
	}

	s.audit.Emit(Event{
		ID:            ulid.Make(),
		Kind:          EventRegistration,
		ExternalID:    identity.ExternalID,
		DisplayName:   identity.DisplayName,
		Nickname:      identity.Nickname,
		DigestPreview: DigestPreview(identity.PasswordDigest),
		Consent:       in.Consent,
		Timestamp:     identity.RegisteredAt,
	})

	s.logger.Info("registration committed",
		"external_id", identity.ExternalID,
		"nickname", identity.Nickname)

	return identity, nil
}

// storeErr wraps a store failure, classifying availability problems
// under REG_STORAGE_UNAVAILABLE so callers can suggest a retry.
func (s *RegistrationService) storeErr(err error, operation string, externalID uint64) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return oops.Code("REG_STORAGE_UNAVAILABLE").
			With("operation", operation).
			With("external_id", externalID).
			Wrap(err)
	}
	return oops.Code("REG_STORE_FAILED").
		With("operation", operation).
		With("external_id", externalID).
		Wrap(err)
}

func consentGiven(answer string) bool {
	_, ok := affirmativeConsent[strings.ToLower(strings.TrimSpace(answer))]
	return ok
}
