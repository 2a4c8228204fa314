package manager_test

import (
	"context"
	"testing"

	manager "github.com/adminware/go-manager"
	"github.com/stretchr/testify/assert"
)

func TestAccountContext(t *testing.T) {
	ctx := context.Background()

	_, ok := manager.AccountFromContext(ctx)
	assert.False(t, ok)

	account := &manager.Account{Email: "peque@example.com"}
	ctx = manager.WithAccount(ctx, account)

	got, ok := manager.AccountFromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, account, got)
}

func TestScopeContext(t *testing.T) {
	ctx := context.Background()

	_, ok := manager.ScopeFromContext(ctx)
	assert.False(t, ok)

	ctx = manager.WithScope(ctx, manager.RequestScope{Prefix: "admin"})

	scope, ok := manager.ScopeFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "admin", scope.Prefix)
	assert.True(t, scope.IsPrefix())
}
