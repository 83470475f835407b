// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

// Package registry implements account registration for a chat community.
//
// # Domain Types
//
// Identity is the persisted registration record for one community
// member. Create one via RegistrationService.Register; direct struct
// initialization bypasses validation and may create invalid state.
//
// # Services
//
// Service types coordinate domain operations:
//   - RegistrationService - validates and commits new registrations
//   - PasswordService - validates and commits credential rotations
//
// Both services are single-pass and stateless across invocations: either
// every check passes and exactly one persistence mutation occurs, or
// nothing is written. Uniqueness is ultimately enforced by the user
// store's constraints; the in-workflow checks are a fast path that
// produces friendlier errors, never the authority.
//
// Audit events are emitted after successful mutations, best-effort.
// A failed emit never fails the workflow.
package registry
