package manager

import (
	"context"

	"github.com/goliatone/go-repository-bun"
)

// NoticeKind tells the transport how to render a notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a user facing flash message.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Outcome is the result of a workflow step. An empty Redirect with ShowForm
// unset means the transport should re-render the current view; ShowForm
// gates rendering of the reset-password form.
type Outcome struct {
	Redirect string
	Notice   Notice
	ShowForm bool
}

// User facing messages. Failure messages are deliberately generic: the
// workflow never reveals which factor failed, whether an email is
// registered, or whether a token was already used.
const (
	MsgInvalidCredentials = "Your email or password is incorrect."
	MsgForgotPassword     = "We have sent you an email. Check your inbox to continue."
	MsgTokenInvalid       = "Your activation token is invalid. We could not complete your request."
	MsgAccountActivated   = "Congratulations! Your account has been activated."
	MsgPasswordSaved      = "Your password has been saved."
	MsgPasswordNotSaved   = "Something went wrong. Your password could not be saved."
	MsgLoggedOut          = "You are now logged out."
)

// Workflow composes the gate, token service and redirect resolver into the
// login / forgot-password / activate / reset-password use cases, emitting
// domain events for external consumers.
type Workflow struct {
	gate     *Gate
	tokens   TokenService
	resolver *RedirectResolver
	accounts AccountStore
	bus      *Dispatcher
	cfg      Config
	logger   Logger
}

// NewWorkflow returns a new Workflow
func NewWorkflow(gate *Gate, tokens TokenService, resolver *RedirectResolver, accounts AccountStore, bus *Dispatcher, cfg Config) *Workflow {
	return &Workflow{
		gate:     gate,
		tokens:   tokens,
		resolver: resolver,
		accounts: accounts,
		bus:      bus,
		cfg:      cfg,
		logger:   defLogger{},
	}
}

func (w *Workflow) WithLogger(logger Logger) *Workflow {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// Login authenticates the credentials and establishes a session. Re-entry by
// an already authenticated account redirects per their role without touching
// the credentials. A failed identify reports one generic message and emits
// afterInvalidLogin with the attempted identifier.
func (w *Workflow) Login(ctx context.Context, sess Session, email, password string) (Outcome, error) {
	if current, ok := w.gate.CurrentAccount(ctx, sess); ok {
		return Outcome{Redirect: w.resolver.Resolve(ctx, current.RoleID)}, nil
	}

	account, err := w.gate.Identify(ctx, email, password)
	if err != nil {
		if IsCredentialInvalid(err) {
			w.bus.Dispatch(ctx, Event{
				Name: EventAfterInvalidLogin,
				Data: map[string]any{"email": email},
			})
			return Outcome{Notice: Notice{Kind: NoticeError, Message: MsgInvalidCredentials}}, nil
		}
		return Outcome{}, err
	}

	if err := w.gate.EstablishSession(ctx, sess, account); err != nil {
		return Outcome{}, err
	}

	redirect := w.resolver.Resolve(ctx, account.RoleID)

	w.bus.Dispatch(ctx, Event{Name: EventAfterLogin, Account: account})

	return Outcome{Redirect: redirect}, nil
}

// ForgotPassword generates and stores a fresh token for an existing active
// account and emits afterForgotPassword. Whatever the lookup finds, the
// caller gets the identical success notice and redirect: an observer cannot
// tell a registered email from an unknown one. Only active accounts get a
// new token.
func (w *Workflow) ForgotPassword(ctx context.Context, sess Session, email string) (Outcome, error) {
	if _, ok := w.gate.CurrentAccount(ctx, sess); ok {
		return Outcome{Redirect: w.cfg.GetLoginRoute()}, nil
	}

	success := Outcome{
		Redirect: w.cfg.GetLoginRoute(),
		Notice:   Notice{Kind: NoticeSuccess, Message: MsgForgotPassword},
	}

	account, err := w.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return success, nil
		}
		return Outcome{}, wrapPersistence(err, "failed to retrieve account for password reset")
	}

	if !account.Active {
		return success, nil
	}

	token, err := w.tokens.Generate()
	if err != nil {
		return Outcome{}, err
	}

	account.ActivationToken = token
	if account, err = w.accounts.Save(ctx, account); err != nil {
		return Outcome{}, wrapPersistence(err, "failed to store reset token")
	}

	w.bus.Dispatch(ctx, Event{Name: EventAfterForgotPassword, Account: account})

	return success, nil
}

// Activate consumes the token with activation semantics. The first
// successful consume flips the account active and clears the token; any
// later attempt with the same pair fails with the same generic message as a
// mismatch or an unknown email.
func (w *Workflow) Activate(ctx context.Context, sess Session, email, token, referer string) (Outcome, error) {
	if token == "" {
		return Outcome{
			Redirect: w.refererOrLogin(referer),
			Notice:   Notice{Kind: NoticeError, Message: MsgTokenInvalid},
		}, nil
	}

	if _, ok := w.gate.CurrentAccount(ctx, sess); ok {
		return Outcome{Redirect: w.cfg.GetLoginRoute()}, nil
	}

	if _, err := w.tokens.Consume(ctx, email, token, true); err != nil {
		if IsTokenInvalid(err) {
			return Outcome{
				Redirect: w.cfg.GetLoginRoute(),
				Notice:   Notice{Kind: NoticeError, Message: MsgTokenInvalid},
			}, nil
		}
		return Outcome{}, err
	}

	return Outcome{
		Redirect: w.cfg.GetLoginRoute(),
		Notice:   Notice{Kind: NoticeSuccess, Message: MsgAccountActivated},
	}, nil
}

// ShowResetForm gates rendering of the reset form: the token is validated
// without being consumed, so an expired link fails before the user types a
// new password.
func (w *Workflow) ShowResetForm(ctx context.Context, sess Session, email, token, referer string) (Outcome, error) {
	if token == "" {
		return Outcome{
			Redirect: w.refererOrLogin(referer),
			Notice:   Notice{Kind: NoticeError, Message: MsgTokenInvalid},
		}, nil
	}

	if _, ok := w.gate.CurrentAccount(ctx, sess); ok {
		return Outcome{Redirect: w.cfg.GetLoginRoute()}, nil
	}

	if !w.tokens.Validate(ctx, email, token) {
		return Outcome{
			Redirect: w.cfg.GetLoginRoute(),
			Notice:   Notice{Kind: NoticeError, Message: MsgTokenInvalid},
		}, nil
	}

	return Outcome{ShowForm: true}, nil
}

// ResetPassword applies the submitted password. Hashing happens up front;
// the store then sets the new hash, clears the token and ensures the account
// is active in one conditional write, so a token raced away between form
// render and submit leaves the account untouched and yields the generic
// failure message.
func (w *Workflow) ResetPassword(ctx context.Context, sess Session, email, token, newPassword, referer string) (Outcome, error) {
	if token == "" {
		return Outcome{
			Redirect: w.refererOrLogin(referer),
			Notice:   Notice{Kind: NoticeError, Message: MsgTokenInvalid},
		}, nil
	}

	if _, ok := w.gate.CurrentAccount(ctx, sess); ok {
		return Outcome{Redirect: w.cfg.GetLoginRoute()}, nil
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return Outcome{
			Notice:   Notice{Kind: NoticeError, Message: MsgPasswordNotSaved},
			ShowForm: true,
		}, nil
	}

	if _, err := w.accounts.ResetPassword(ctx, email, token, hash); err != nil {
		if repository.IsRecordNotFound(err) || IsTokenInvalid(err) {
			return Outcome{
				Notice:   Notice{Kind: NoticeError, Message: MsgPasswordNotSaved},
				ShowForm: true,
			}, nil
		}
		return Outcome{}, wrapPersistence(err, "failed to reset password")
	}

	return Outcome{
		Redirect: w.cfg.GetLoginRoute(),
		Notice:   Notice{Kind: NoticeSuccess, Message: MsgPasswordSaved},
	}, nil
}

// Logout clears the session and redirects to the destination the gate
// returns.
func (w *Workflow) Logout(ctx context.Context, sess Session) (Outcome, error) {
	dest := w.gate.TerminateSession(ctx, sess)
	return Outcome{
		Redirect: dest,
		Notice:   Notice{Kind: NoticeSuccess, Message: MsgLoggedOut},
	}, nil
}

func (w *Workflow) refererOrLogin(referer string) string {
	if referer != "" {
		return referer
	}
	return w.cfg.GetLoginRoute()
}
