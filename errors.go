package manager

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeCredentialInvalid = "CREDENTIAL_INVALID"
	textCodeTokenInvalid      = "TOKEN_INVALID"
	textCodeRoleNotFound      = "ROLE_NOT_FOUND"
)

// ErrCredentialInvalid is returned for every identify failure: unknown email,
// inactive account, or wrong password. The cause is never distinguished at
// this boundary so callers cannot enumerate accounts.
var ErrCredentialInvalid = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeCredentialInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid is returned when an activation token is missing, mismatched,
// or already consumed. The three causes are indistinguishable by contract.
var ErrTokenInvalid = goerrors.New("invalid activation token", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrRoleNotFound is returned when a role id no longer resolves. Callers are
// expected to recover with a default destination; roles are mutable data.
var ErrRoleNotFound = goerrors.New("role not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeRoleNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrNoSession is the error when the current request has no bound identity
var ErrNoSession = errors.New("no session bound to request")

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrNoEmptyString rejects empty secrets before hashing
var ErrNoEmptyString = errors.New("string must not be empty")

// ErrMismatchedHashAndPassword is our stable wrapper over the bcrypt mismatch
var ErrMismatchedHashAndPassword = errors.New("hashed password mismatch")

// IsTokenInvalid will check for consumed/mismatched token errors
func IsTokenInvalid(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeTokenInvalid
	}
	return false
}

// IsCredentialInvalid will check for collapsed identify failures
func IsCredentialInvalid(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeCredentialInvalid
	}
	return false
}

// wrapPersistence tags store failures so the transport layer can collapse
// them into a generic notice while operators keep the detail in logs.
func wrapPersistence(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}
