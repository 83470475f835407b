// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package registry

import (
	"crypto/sha256"
	"encoding/hex"
)

// digestPreviewLen is how many hex characters of a digest audit events
// may carry. Never the full digest, never plaintext.
const digestPreviewLen = 16

// Digester produces a storable digest from a plaintext password.
//
// The digest must be deterministic: the companion game launcher
// recomputes it from the password a player types and compares against
// the stored value, so equal plaintexts must always yield equal
// digests. This rules out salted schemes.
type Digester interface {
	// Digest returns a fixed-length lowercase hex digest of plaintext.
	Digest(plaintext string) string
}

// SHA256Digester implements Digester with unsalted SHA-256, the scheme
// the launcher contract requires. Output is 64 lowercase hex characters.
type SHA256Digester struct{}

// NewSHA256Digester creates a new SHA256Digester.
func NewSHA256Digester() *SHA256Digester {
	return &SHA256Digester{}
}

// Digest returns the SHA-256 hex digest of plaintext.
func (d *SHA256Digester) Digest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// DigestPreview returns the truncated form of a digest safe to include
// in audit events and logs.
func DigestPreview(digest string) string {
	if len(digest) <= digestPreviewLen {
		return digest
	}
	return digest[:digestPreviewLen] + "..."
}

// Compile-time interface check.
var _ Digester = (*SHA256Digester)(nil)
