// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package registry

// Gate is the registration gating policy: a caller is eligible iff
// their role set intersects the configured allow-list. Pure value type,
// no side effects.
type Gate struct {
	allowed map[uint64]struct{}
}

// NewGate creates a Gate from the allow-listed role IDs.
func NewGate(roleIDs []uint64) Gate {
	allowed := make(map[uint64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		allowed[id] = struct{}{}
	}
	return Gate{allowed: allowed}
}

// Eligible reports whether any of the caller's roles is allow-listed.
func (g Gate) Eligible(roles []uint64) bool {
	for _, id := range roles {
		if _, ok := g.allowed[id]; ok {
			return true
		}
	}
	return false
}
