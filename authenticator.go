package manager

import (
	"context"

	"github.com/goliatone/go-repository-bun"
)

// Gate validates credentials against the account store and manages the
// authenticated identity for the current request.
type Gate struct {
	accounts AccountStore
	cfg      Config
	logger   Logger
}

// NewGate returns a new Gate
func NewGate(accounts AccountStore, cfg Config) *Gate {
	return &Gate{
		accounts: accounts,
		cfg:      cfg,
		logger:   defLogger{},
	}
}

func (g *Gate) WithLogger(logger Logger) *Gate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Identify looks the account up by email, requires it to be active, and
// verifies the password. Every failure collapses into ErrCredentialInvalid:
// the caller cannot tell an unknown email from an inactive account from a
// wrong password. The specific cause stays in the logs.
func (g *Gate) Identify(ctx context.Context, email, password string) (*Account, error) {
	account, err := g.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// Burn a hash comparison anyway so the unknown-email path costs
			// the same as a wrong password.
			ComparePasswordAndHash(password, dummyHash)
			g.logger.Debug("identify: unknown email", "email", email)
			return nil, ErrCredentialInvalid
		}
		return nil, wrapPersistence(err, "failed to retrieve account during identify")
	}

	if !account.Active {
		ComparePasswordAndHash(password, dummyHash)
		g.logger.Debug("identify: inactive account", "email", email)
		return nil, ErrCredentialInvalid
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		g.logger.Debug("identify: password mismatch", "email", email)
		return nil, ErrCredentialInvalid
	}

	return account, nil
}

// EstablishSession binds the identity to the current request.
func (g *Gate) EstablishSession(ctx context.Context, sess Session, account *Account) error {
	if err := sess.Establish(ctx, account); err != nil {
		return wrapPersistence(err, "failed to establish session")
	}
	return nil
}

// CurrentAccount reads the bound identity, if any.
func (g *Gate) CurrentAccount(ctx context.Context, sess Session) (*Account, bool) {
	return sess.Account(ctx)
}

// TerminateSession clears the bound identity and returns the destination the
// caller should redirect to.
func (g *Gate) TerminateSession(ctx context.Context, sess Session) string {
	if err := sess.Terminate(ctx); err != nil {
		g.logger.Error("failed to terminate session", "error", err)
	}
	return g.cfg.GetLogoutRedirect()
}

// dummyHash is a throwaway bcrypt hash compared against on the failure paths
// that have no stored hash, so an unknown email costs a full verification.
const dummyHash = "$2a$14$x8S2UT0rkRXSDRKnHDOWIO3uT9WrXIRgqFBQrU3z1PcVkNyiYPm7W"
