package manager

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// TokenByteLength is the entropy of a generated activation token.
var TokenByteLength = 32

// TokenService generates and redeems the single use activation/reset tokens
// stored on accounts.
type TokenService interface {
	Generate() (string, error)
	Validate(ctx context.Context, email, token string) bool
	Consume(ctx context.Context, email, token string, activate bool) (*Account, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	store  AccountStore
	logger Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(store AccountStore, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		store:  store,
		logger: logger,
	}
}

// Generate returns an opaque random token, hex encoded.
func (ts *TokenServiceImpl) Generate() (string, error) {
	buf := make([]byte, TokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate activation token")
	}
	return hex.EncodeToString(buf), nil
}

// Validate reports whether the account identified by email currently holds
// the given token. It never mutates state; comparison is constant time.
func (ts *TokenServiceImpl) Validate(ctx context.Context, email, token string) bool {
	if email == "" || token == "" {
		return false
	}

	account, err := ts.store.GetByEmail(ctx, email)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			ts.logger.Error("token validate lookup failed", "email", email, "error", err)
		}
		return false
	}

	if account.ActivationToken == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(account.ActivationToken), []byte(token)) == 1
}

// Consume redeems the token in a single conditional update against the
// store: re-validation and invalidation happen in one statement so two
// concurrent requests cannot both redeem the same token. With activate set,
// the matching account is flipped to active. Returns ErrTokenInvalid when
// nothing matched, which covers mismatch, unknown email and already-consumed
// alike.
func (ts *TokenServiceImpl) Consume(ctx context.Context, email, token string, activate bool) (*Account, error) {
	if email == "" || token == "" {
		return nil, ErrTokenInvalid
	}

	account, err := ts.store.ConsumeActivationToken(ctx, email, token, activate)
	if err != nil {
		if repository.IsRecordNotFound(err) || IsTokenInvalid(err) {
			return nil, ErrTokenInvalid
		}
		return nil, wrapPersistence(err, "failed to consume activation token")
	}

	return account, nil
}
