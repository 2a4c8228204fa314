package manager

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session binds an authenticated account to the current request. The
// transport owns the mechanics (cookie, JWT, server side store); the core
// only needs these three operations.
type Session interface {
	// Account returns the bound identity, if any.
	Account(ctx context.Context) (*Account, bool)
	// Establish binds the identity to the current request.
	Establish(ctx context.Context, account *Account) error
	// Terminate clears the bound identity.
	Terminate(ctx context.Context) error
}

// AccountStore is the persistence surface the core consumes for accounts.
// Save and the token operations must be atomic against the backing store.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Save(ctx context.Context, account *Account) (*Account, error)
	// ConsumeActivationToken clears the token iff (email, token) still match,
	// in one conditional update. When activate is true the matching row is
	// also flipped to active. Zero rows matched means the token was invalid
	// or already consumed.
	ConsumeActivationToken(ctx context.Context, email, token string, activate bool) (*Account, error)
	// ResetPassword applies the new password hash, clears the token and
	// ensures active=true in a single conditional update keyed on (email, token).
	ResetPassword(ctx context.Context, email, token, passwordHash string) (*Account, error)
}

// RoleStore resolves role reference data.
type RoleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
}

// Config holds manager options
type Config interface {
	GetSigningKey() string
	GetContextKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetLoginRoute() string
	GetDefaultRedirect() string
	GetLogoutRedirect() string
	GetAdminTheme() string
	GetAdminLayout() string
	GetViews() Views
}

// Views names the user-facing templates the transport renders. The core
// treats these as opaque identifiers.
type Views struct {
	Login          string
	ForgotPassword string
	ResetPassword  string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] MANAGER "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] MANAGER "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] MANAGER "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] MANAGER "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
