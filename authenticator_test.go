package manager_test

import (
	"context"
	"testing"

	manager "github.com/adminware/go-manager"
	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateIdentify(t *testing.T) {
	ctx := context.Background()
	cfg := manager.DefaultConfig("test-signing-key")

	hash, err := manager.HashPassword("sup3r-secret-pass")
	require.NoError(t, err)

	active := &manager.Account{
		Email:        "peque@example.com",
		PasswordHash: hash,
		Active:       true,
	}

	t.Run("valid credentials", func(t *testing.T) {
		store := new(MockAccountStore)
		store.On("GetByEmail", ctx, "peque@example.com").Return(active, nil)

		gate := manager.NewGate(store, cfg)
		account, err := gate.Identify(ctx, "peque@example.com", "sup3r-secret-pass")
		assert.NoError(t, err)
		assert.Same(t, active, account)
	})

	t.Run("wrong password", func(t *testing.T) {
		store := new(MockAccountStore)
		store.On("GetByEmail", ctx, "peque@example.com").Return(active, nil)

		gate := manager.NewGate(store, cfg)
		_, err := gate.Identify(ctx, "peque@example.com", "wrong-pass-phrase")
		assert.True(t, manager.IsCredentialInvalid(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		store := new(MockAccountStore)
		store.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repository.NewRecordNotFound())

		gate := manager.NewGate(store, cfg)
		_, err := gate.Identify(ctx, "nobody@example.com", "sup3r-secret-pass")
		assert.True(t, manager.IsCredentialInvalid(err))
	})

	t.Run("inactive account", func(t *testing.T) {
		store := new(MockAccountStore)
		store.On("GetByEmail", ctx, "pending@example.com").Return(&manager.Account{
			Email:           "pending@example.com",
			PasswordHash:    hash,
			ActivationToken: "abc123",
		}, nil)

		gate := manager.NewGate(store, cfg)
		_, err := gate.Identify(ctx, "pending@example.com", "sup3r-secret-pass")
		assert.True(t, manager.IsCredentialInvalid(err))
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		store := new(MockAccountStore)
		store.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repository.NewRecordNotFound())
		store.On("GetByEmail", ctx, "peque@example.com").Return(active, nil)

		gate := manager.NewGate(store, cfg)
		_, unknownErr := gate.Identify(ctx, "nobody@example.com", "sup3r-secret-pass")
		_, wrongErr := gate.Identify(ctx, "peque@example.com", "wrong-pass-phrase")

		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	})
}

func TestGateSessions(t *testing.T) {
	ctx := context.Background()
	cfg := manager.DefaultConfig("test-signing-key")
	store := new(MockAccountStore)
	gate := manager.NewGate(store, cfg)

	account := &manager.Account{Email: "peque@example.com", Active: true}
	sess := &fakeSession{}

	_, ok := gate.CurrentAccount(ctx, sess)
	assert.False(t, ok)

	require.NoError(t, gate.EstablishSession(ctx, sess, account))

	current, ok := gate.CurrentAccount(ctx, sess)
	assert.True(t, ok)
	assert.Same(t, account, current)

	dest := gate.TerminateSession(ctx, sess)
	assert.Equal(t, cfg.GetLogoutRedirect(), dest)
	assert.True(t, sess.terminated)

	_, ok = gate.CurrentAccount(ctx, sess)
	assert.False(t, ok)
}
