// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package registry

import "context"

// fakeStore implements UserStore with overridable function fields.
// Unset fields report an empty store.
type fakeStore struct {
	findFunc           func(ctx context.Context, externalID uint64) (*Identity, error)
	existsFunc         func(ctx context.Context, externalID uint64) (bool, error)
	nicknameTakenFunc  func(ctx context.Context, nickname string) (bool, error)
	createFunc         func(ctx context.Context, identity *Identity) error
	updatePasswordFunc func(ctx context.Context, externalID uint64, newDigest string) error

	created         []*Identity
	updatedDigests  map[uint64]string
	createCalls     int
	updateCalls     int
	nicknameLookups []string
}

func (s *fakeStore) Find(ctx context.Context, externalID uint64) (*Identity, error) {
	if s.findFunc != nil {
		return s.findFunc(ctx, externalID)
	}
	return nil, ErrNotFound
}

func (s *fakeStore) Exists(ctx context.Context, externalID uint64) (bool, error) {
	if s.existsFunc != nil {
		return s.existsFunc(ctx, externalID)
	}
	return false, nil
}

func (s *fakeStore) NicknameTaken(ctx context.Context, nickname string) (bool, error) {
	s.nicknameLookups = append(s.nicknameLookups, nickname)
	if s.nicknameTakenFunc != nil {
		return s.nicknameTakenFunc(ctx, nickname)
	}
	return false, nil
}

func (s *fakeStore) Create(ctx context.Context, identity *Identity) error {
	s.createCalls++
	if s.createFunc != nil {
		return s.createFunc(ctx, identity)
	}
	s.created = append(s.created, identity)
	return nil
}

func (s *fakeStore) UpdatePassword(ctx context.Context, externalID uint64, newDigest string) error {
	s.updateCalls++
	if s.updatePasswordFunc != nil {
		return s.updatePasswordFunc(ctx, externalID, newDigest)
	}
	if s.updatedDigests == nil {
		s.updatedDigests = make(map[uint64]string)
	}
	s.updatedDigests[externalID] = newDigest
	return nil
}

// captureEmitter records emitted audit events.
type captureEmitter struct {
	events []Event
}

func (e *captureEmitter) Emit(event Event) {
	e.events = append(e.events, event)
}

var _ UserStore = (*fakeStore)(nil)
var _ AuditEmitter = (*captureEmitter)(nil)
