package manager_test

import (
	"context"
	"encoding/hex"
	"testing"

	manager "github.com/adminware/go-manager"
	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTokenServiceGenerate(t *testing.T) {
	store := new(MockAccountStore)
	svc := manager.NewTokenService(store, nil)

	token, err := svc.Generate()
	assert.NoError(t, err)
	assert.Len(t, token, manager.TokenByteLength*2)

	_, err = hex.DecodeString(token)
	assert.NoError(t, err, "token should be hex encoded")

	other, err := svc.Generate()
	assert.NoError(t, err)
	assert.NotEqual(t, token, other, "tokens should be unique")
}

func TestTokenServiceValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("matching token", func(t *testing.T) {
		store := new(MockAccountStore)
		store.On("GetByEmail", ctx, "peque@example.com").Return(&manager.Account{
			Email:           "peque@example.com",
			ActivationToken: "abc123",
		}, nil)

		svc := manager.NewTokenService(store, nil)
		assert.True(t, svc.Validate(ctx, "peque@example.com", "abc123"))
		store.AssertExpectations(t)
	})

	t.Run("mismatched token", func(t *testing.T) {
		store := new(MockAccountStore)
		store.On("GetByEmail", ctx, "peque@example.com").Return(&manager.Account{
			Email:           "peque@example.com",
			ActivationToken: "abc123",
		}, nil)

		svc := manager.NewTokenService(store, nil)
		assert.False(t, svc.Validate(ctx, "peque@example.com", "nope"))
	})

	t.Run("consumed token", func(t *testing.T) {
		store := new(MockAccountStore)
		store.On("GetByEmail", ctx, "peque@example.com").Return(&manager.Account{
			Email:  "peque@example.com",
			Active: true,
		}, nil)

		svc := manager.NewTokenService(store, nil)
		assert.False(t, svc.Validate(ctx, "peque@example.com", "abc123"))
	})

	t.Run("unknown email", func(t *testing.T) {
		store := new(MockAccountStore)
		store.On("GetByEmail", ctx, "missing@example.com").Return(nil, repository.NewRecordNotFound())

		svc := manager.NewTokenService(store, nil)
		assert.False(t, svc.Validate(ctx, "missing@example.com", "abc123"))
	})

	t.Run("empty arguments short circuit", func(t *testing.T) {
		store := new(MockAccountStore)
		svc := manager.NewTokenService(store, nil)

		assert.False(t, svc.Validate(ctx, "", "abc123"))
		assert.False(t, svc.Validate(ctx, "peque@example.com", ""))
		store.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})
}

func TestTokenServiceConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("redeems through the store", func(t *testing.T) {
		account := &manager.Account{Email: "peque@example.com", Active: true}

		store := new(MockAccountStore)
		store.On("ConsumeActivationToken", ctx, "peque@example.com", "abc123", true).Return(account, nil)

		svc := manager.NewTokenService(store, nil)
		got, err := svc.Consume(ctx, "peque@example.com", "abc123", true)
		assert.NoError(t, err)
		assert.Same(t, account, got)
		store.AssertExpectations(t)
	})

	t.Run("nothing matched maps to invalid token", func(t *testing.T) {
		store := new(MockAccountStore)
		store.On("ConsumeActivationToken", ctx, "peque@example.com", "abc123", false).
			Return(nil, repository.NewRecordNotFound())

		svc := manager.NewTokenService(store, nil)
		_, err := svc.Consume(ctx, "peque@example.com", "abc123", false)
		assert.True(t, manager.IsTokenInvalid(err))
	})

	t.Run("empty arguments are invalid without a store roundtrip", func(t *testing.T) {
		store := new(MockAccountStore)
		svc := manager.NewTokenService(store, nil)

		_, err := svc.Consume(ctx, "", "abc123", true)
		assert.True(t, manager.IsTokenInvalid(err))

		_, err = svc.Consume(ctx, "peque@example.com", "", true)
		assert.True(t, manager.IsTokenInvalid(err))

		store.AssertNotCalled(t, "ConsumeActivationToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
