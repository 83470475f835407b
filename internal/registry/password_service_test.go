// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package registry

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildgate/guildgate/pkg/errutil"
)

func newPasswordService(t *testing.T, store UserStore, emitter AuditEmitter) *PasswordService {
	t.Helper()
	svc, err := NewPasswordService(store, NewSHA256Digester(), emitter, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return svc
}

// registeredStore returns a fakeStore holding one identity whose
// password is "hunter2x".
func registeredStore() *fakeStore {
	digest := NewSHA256Digester().Digest("hunter2x")
	identity := &Identity{
		ExternalID:     1001,
		DisplayName:    "tester",
		Nickname:       "Shadow",
		PasswordDigest: digest,
		RegisteredAt:   time.Now().UTC().Add(-24 * time.Hour),
	}
	return &fakeStore{
		findFunc: func(_ context.Context, externalID uint64) (*Identity, error) {
			if externalID != identity.ExternalID {
				return nil, ErrNotFound
			}
			cp := *identity
			return &cp, nil
		},
	}
}

func changeInput() ChangeInput {
	return ChangeInput{
		ExternalID:      1001,
		OldPassword:     "hunter2x",
		NewPassword:     "newpass99",
		PasswordConfirm: "newpass99",
	}
}

func TestNewPasswordService_RequiresDependencies(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	_, err := NewPasswordService(nil, NewSHA256Digester(), &captureEmitter{}, logger)
	errutil.AssertErrorCode(t, err, "PWD_SERVICE_INVALID")

	_, err = NewPasswordService(&fakeStore{}, nil, &captureEmitter{}, logger)
	errutil.AssertErrorCode(t, err, "PWD_SERVICE_INVALID")

	_, err = NewPasswordService(&fakeStore{}, NewSHA256Digester(), nil, logger)
	errutil.AssertErrorCode(t, err, "PWD_SERVICE_INVALID")

	_, err = NewPasswordService(&fakeStore{}, NewSHA256Digester(), &captureEmitter{}, nil)
	errutil.AssertErrorCode(t, err, "PWD_SERVICE_INVALID")
}

func TestChangePassword_Success(t *testing.T) {
	store := registeredStore()
	emitter := &captureEmitter{}
	svc := newPasswordService(t, store, emitter)

	require.NoError(t, svc.ChangePassword(context.Background(), changeInput()))

	newDigest := NewSHA256Digester().Digest("newpass99")
	assert.Equal(t, newDigest, store.updatedDigests[1001])

	require.Len(t, emitter.events, 1)
	ev := emitter.events[0]
	assert.Equal(t, EventPasswordChange, ev.Kind)
	assert.Equal(t, "Shadow", ev.Nickname)
	assert.Equal(t, newDigest[:16]+"...", ev.NewPreview)
	assert.NotEqual(t, ev.OldPreview, ev.NewPreview)
}

func TestChangePassword_NotRegistered(t *testing.T) {
	svc := newPasswordService(t, &fakeStore{}, &captureEmitter{})

	err := svc.ChangePassword(context.Background(), changeInput())
	errutil.AssertErrorCode(t, err, "PWD_NOT_REGISTERED")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	store := registeredStore()
	emitter := &captureEmitter{}
	svc := newPasswordService(t, store, emitter)

	in := changeInput()
	in.OldPassword = "wrongpass"

	err := svc.ChangePassword(context.Background(), in)
	errutil.AssertErrorCode(t, err, "PWD_INCORRECT")

	// The stored digest must not change on a failed verification.
	assert.Zero(t, store.updateCalls)
	assert.Empty(t, emitter.events)
}

func TestChangePassword_VerifiesBeforeValidatingNew(t *testing.T) {
	// Wrong old password and an invalid new one: verification wins, so
	// the caller learns nothing about the new password's validity.
	store := registeredStore()
	svc := newPasswordService(t, store, &captureEmitter{})

	in := changeInput()
	in.OldPassword = "wrongpass"
	in.NewPassword = "a"
	in.PasswordConfirm = "a"

	err := svc.ChangePassword(context.Background(), in)
	errutil.AssertErrorCode(t, err, "PWD_INCORRECT")
}

func TestChangePassword_InvalidNewPassword(t *testing.T) {
	store := registeredStore()
	svc := newPasswordService(t, store, &captureEmitter{})

	in := changeInput()
	in.NewPassword = "abc"
	in.PasswordConfirm = "abc"

	err := svc.ChangePassword(context.Background(), in)
	errutil.AssertErrorCode(t, err, "PWD_INVALID_PASSWORD")
	assert.Zero(t, store.updateCalls)
}

func TestChangePassword_Mismatch(t *testing.T) {
	store := registeredStore()
	svc := newPasswordService(t, store, &captureEmitter{})

	in := changeInput()
	in.PasswordConfirm = "different99"

	err := svc.ChangePassword(context.Background(), in)
	errutil.AssertErrorCode(t, err, "PWD_MISMATCH")
	assert.Zero(t, store.updateCalls)
}

func TestChangePassword_DeletedBetweenFindAndUpdate(t *testing.T) {
	store := registeredStore()
	store.updatePasswordFunc = func(_ context.Context, _ uint64, _ string) error {
		return ErrNotFound
	}
	svc := newPasswordService(t, store, &captureEmitter{})

	err := svc.ChangePassword(context.Background(), changeInput())
	errutil.AssertErrorCode(t, err, "PWD_NOT_REGISTERED")
}

func TestChangePassword_StorageUnavailable(t *testing.T) {
	wrapped := errors.Join(ErrStorageUnavailable, context.DeadlineExceeded)

	t.Run("on find", func(t *testing.T) {
		store := &fakeStore{
			findFunc: func(_ context.Context, _ uint64) (*Identity, error) {
				return nil, wrapped
			},
		}
		svc := newPasswordService(t, store, &captureEmitter{})

		err := svc.ChangePassword(context.Background(), changeInput())
		errutil.AssertErrorCode(t, err, "PWD_STORAGE_UNAVAILABLE")
	})

	t.Run("on update", func(t *testing.T) {
		store := registeredStore()
		store.updatePasswordFunc = func(_ context.Context, _ uint64, _ string) error {
			return wrapped
		}
		svc := newPasswordService(t, store, &captureEmitter{})

		err := svc.ChangePassword(context.Background(), changeInput())
		errutil.AssertErrorCode(t, err, "PWD_STORAGE_UNAVAILABLE")
	})
}
