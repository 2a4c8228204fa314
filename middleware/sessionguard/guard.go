// Package sessionguard protects prefixed route groups (the admin area) with
// the manager session token. It verifies the JWT carried in the session
// cookie or Authorization header, resolves the account behind it, and can
// require a role name before letting the request through.
package sessionguard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
)

// ErrMissingOrMalformed is returned when no usable token was found on the
// request.
var ErrMissingOrMalformed = errors.New("missing or malformed session token")

// ErrAccessDenied is returned when the account does not carry the required
// role.
var ErrAccessDenied = errors.New("access denied")

// AccountResolver turns the token subject into the account the guard stores
// on the request. Returning an error rejects the request.
type AccountResolver func(ctx context.Context, subject string) (any, error)

// RoleChecker decides whether the resolved account may enter the guarded
// area.
type RoleChecker func(account any) bool

type SigningKey struct {
	JWTAlg string
	Key    any
}

type Config struct {
	// Filter skips the guard for matching requests.
	Filter func(router.Context) bool
	// SuccessHandler runs after the account was stored; defaults to Next.
	SuccessHandler router.HandlerFunc
	// ErrorHandler defaults to a redirect to LoginRoute.
	ErrorHandler router.ErrorHandler

	SigningKey  SigningKey
	SigningKeys map[string]SigningKey
	KeyFunc     jwt.Keyfunc
	// JWKSetURLs lets hosts that mint session tokens elsewhere verify them
	// against a published key set.
	JWKSetURLs []string

	Issuer   string
	Audience []string

	// TokenLookup is a comma separated list of sources, e.g.
	// "cookie:manager_session,header:Authorization".
	TokenLookup string
	AuthScheme  string

	// ContextKey is the Locals key the resolved account is stored under.
	ContextKey string
	// LoginRoute is where unauthenticated requests are sent.
	LoginRoute string

	AccountResolver AccountResolver
	RoleChecker     RoleChecker
}

// New builds the guard middleware.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := withDefaults(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := extractRawToken(ctx, cfg.extractors())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			subject, err := cfg.subjectFromToken(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			account, err := cfg.AccountResolver(ctx.Context(), subject)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if cfg.RoleChecker != nil && !cfg.RoleChecker(account) {
				return cfg.ErrorHandler(ctx, ErrAccessDenied)
			}

			ctx.Locals(cfg.ContextKey, account)

			return cfg.SuccessHandler(ctx)
		}
	}
}

func withDefaults(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.LoginRoute == "" {
		cfg.LoginRoute = "/login"
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		loginRoute := cfg.LoginRoute
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if errors.Is(err, ErrAccessDenied) {
				return c.Status(router.StatusForbidden).SendString(ErrAccessDenied.Error())
			}
			return c.Redirect(loginRoute, router.StatusFound)
		}
	}

	if cfg.AccountResolver == nil {
		panic("MANAGER: session guard configuration: AccountResolver is required.")
	}

	if cfg.SigningKey.Key == nil && len(cfg.SigningKeys) == 0 && len(cfg.JWKSetURLs) == 0 && cfg.KeyFunc == nil {
		panic("MANAGER: session guard configuration: At least one of the following is required: KeyFunc, JWKSetURLs, SigningKeys, or SigningKey.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "authUser"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = "cookie:manager_session,header:" + router.HeaderAuthorization
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.KeyFunc == nil {
		if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
			var givenKeys map[string]keyfunc.GivenKey
			if cfg.SigningKeys != nil {
				givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
				for kid, key := range cfg.SigningKeys {
					givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
						Algorithm: key.JWTAlg,
					})
				}
			}
			if len(cfg.JWKSetURLs) > 0 {
				var err error
				cfg.KeyFunc, err = multiKeyfunc(givenKeys, cfg.JWKSetURLs)
				if err != nil {
					panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
				}
			} else {
				cfg.KeyFunc = keyfunc.NewGiven(givenKeys).Keyfunc
			}
		} else {
			cfg.KeyFunc = signingKeyFunc(cfg.SigningKey)
		}
	}

	return cfg
}

func (cfg *Config) subjectFromToken(raw string) (string, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if cfg.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(cfg.Audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, cfg.KeyFunc, parserOptions...)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrMissingOrMalformed
	}

	return claims.Subject, nil
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetUrls []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetUrls))
	for _, url := range jwtSetUrls {
		m[url] = opts
	}
	mopts := keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	}
	multi, err := keyfunc.GetMultiple(m, mopts)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

type tokenExtractor func(c router.Context) (string, error)

func (cfg *Config) extractors() []tokenExtractor {
	extractors := make([]tokenExtractor, 0)

	for _, rootPart := range strings.Split(cfg.TokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}
		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

		switch source {
		case "cookie":
			extractors = append(extractors, fromCookie(name))
		case "header":
			extractors = append(extractors, fromHeader(name, cfg.AuthScheme))
		case "query":
			extractors = append(extractors, fromQuery(name))
		}
	}

	return extractors
}

func extractRawToken(ctx router.Context, extractors []tokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	if raw == "" && err == nil {
		err = ErrMissingOrMalformed
	}

	return raw, err
}

func fromCookie(name string) tokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

func fromHeader(header, authScheme string) tokenExtractor {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		scheme := strings.TrimSpace(authScheme)
		l := len(scheme)
		if l == 0 || len(a) <= l+1 || !strings.EqualFold(a[:l], scheme) {
			return "", ErrMissingOrMalformed
		}
		return strings.TrimSpace(a[l:]), nil
	}
}

func fromQuery(param string) tokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}
