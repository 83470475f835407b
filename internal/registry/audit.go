// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package registry

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// EventKind identifies the audited operation.
type EventKind string

// Audit event kinds.
const (
	EventRegistration   EventKind = "registration"
	EventPasswordChange EventKind = "password_change"
)

// Event is a security-relevant audit record. Digest fields carry only
// previews (see DigestPreview); plaintext passwords and full digests
// never appear in an Event.
type Event struct {
	ID            ulid.ULID `json:"id"`
	Kind          EventKind `json:"kind"`
	ExternalID    uint64    `json:"external_id"`
	DisplayName   string    `json:"display_name"`
	Nickname      string    `json:"nickname"`
	DigestPreview string    `json:"digest_preview,omitempty"`
	OldPreview    string    `json:"old_preview,omitempty"`
	NewPreview    string    `json:"new_preview,omitempty"`
	Consent       string    `json:"consent,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// AuditEmitter receives audit events after successful mutations.
// Delivery is best-effort and must not block the caller; implementations
// own queuing and failure handling.
type AuditEmitter interface {
	Emit(event Event)
}
