package manager

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
)

// RouteSession is the JWT cookie backed Session implementation used by the
// HTTP controller. One instance is built per request around the router
// context; the identity travels as a signed HS256 token in an HTTP-only
// cookie, so the core never needs server side session storage.
type RouteSession struct {
	rctx     router.Context
	accounts AccountStore
	cfg      Config
	logger   Logger

	cached   *Account
	resolved bool
}

var _ Session = (*RouteSession)(nil)

// NewRouteSession wraps the current request in a Session.
func NewRouteSession(rctx router.Context, accounts AccountStore, cfg Config) *RouteSession {
	return &RouteSession{
		rctx:     rctx,
		accounts: accounts,
		cfg:      cfg,
		logger:   defLogger{},
	}
}

func (s *RouteSession) WithLogger(logger Logger) *RouteSession {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Account parses the session cookie and resolves the bound account. The
// result is cached for the remainder of the request.
func (s *RouteSession) Account(ctx context.Context) (*Account, bool) {
	if s.resolved {
		return s.cached, s.cached != nil
	}
	s.resolved = true

	raw := s.rctx.Cookies(s.cfg.GetContextKey())
	if raw == "" {
		return nil, false
	}

	email, err := s.subjectFromToken(raw)
	if err != nil {
		s.logger.Debug("session decode failed", "error", err)
		return nil, false
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Debug("session account lookup failed", "error", err)
		return nil, false
	}

	// A session minted before deactivation must not keep authenticating.
	if !account.Active {
		return nil, false
	}

	s.cached = account
	return account, true
}

// Establish signs a session token for the account and sets the cookie.
func (s *RouteSession) Establish(ctx context.Context, account *Account) error {
	now := time.Now()
	duration := 24 * time.Hour
	if s.cfg.GetTokenExpiration() > 0 {
		duration = time.Duration(s.cfg.GetTokenExpiration()) * time.Hour
	}

	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.GetIssuer(),
		Subject:   account.Email,
		Audience:  s.cfg.GetAudience(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.cfg.GetSigningKey()))
	if err != nil {
		return err
	}

	s.rctx.Cookie(&router.Cookie{
		Name:     s.cfg.GetContextKey(),
		Value:    token,
		Expires:  now.Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})

	s.cached = account
	s.resolved = true
	return nil
}

// Terminate expires the session cookie.
func (s *RouteSession) Terminate(ctx context.Context) error {
	s.rctx.Cookie(&router.Cookie{
		Name:     s.cfg.GetContextKey(),
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})

	s.cached = nil
	s.resolved = true
	return nil
}

func (s *RouteSession) subjectFromToken(raw string) (string, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if iss := s.cfg.GetIssuer(); iss != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(iss))
	}
	if aud := s.cfg.GetAudience(); len(aud) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(aud...))
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.GetSigningKey()), nil
	}, parserOptions...)

	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrUnableToDecodeSession
	}

	return claims.Subject, nil
}

// SessionFactory builds per-request sessions for the controller.
type SessionFactory func(rctx router.Context) Session

// DefaultSessionFactory returns the JWT cookie session factory.
func DefaultSessionFactory(accounts AccountStore, cfg Config) SessionFactory {
	return func(rctx router.Context) Session {
		return NewRouteSession(rctx, accounts, cfg)
	}
}

func redirectStatus(c router.Context) int {
	if c.Method() == string(router.GET) {
		return router.StatusFound
	}
	return router.StatusSeeOther
}
