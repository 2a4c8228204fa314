package manager

import (
	"context"

	"github.com/goliatone/go-router"
)

var accountCtxKey = &contextKey{"account"}
var scopeCtxKey = &contextKey{"scope"}

type contextKey struct {
	name string
}

// WithAccount sets the Account in the given context
func WithAccount(ctx context.Context, account *Account) context.Context {
	return context.WithValue(ctx, accountCtxKey, account)
}

// AccountFromContext finds the account from the context.
func AccountFromContext(ctx context.Context) (*Account, bool) {
	raw, ok := ctx.Value(accountCtxKey).(*Account)
	return raw, ok
}

// WithScope sets the request scope in the given context
func WithScope(ctx context.Context, scope RequestScope) context.Context {
	return context.WithValue(ctx, scopeCtxKey, scope)
}

// ScopeFromContext finds the request scope from the context.
func ScopeFromContext(ctx context.Context) (RequestScope, bool) {
	raw, ok := ctx.Value(scopeCtxKey).(RequestScope)
	return raw, ok
}

// AccountFromRouterContext extracts the Account stored in the router locals
// by the session guard middleware.
func AccountFromRouterContext(ctx router.Context, key string) (*Account, bool) {
	if key == "" {
		key = "authUser"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	account, ok := raw.(*Account)
	return account, ok
}

// IsAdministrator reports whether the account carries the Administrators role.
// The Role relation must be loaded for this to return true.
func IsAdministrator(account *Account) bool {
	if account == nil || account.Role == nil {
		return false
	}
	return account.Role.Name == RoleAdministrators
}
