package manager

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// ManagerControllerRoutes names the paths the controller mounts.
type ManagerControllerRoutes struct {
	Login          string
	Logout         string
	ForgotPassword string
	Activate       string
	ResetPassword  string
}

// ManagerController exposes the account lifecycle workflows over HTTP. Every
// handler runs inside the lifecycle router so prefix hooks and the
// generic/scoped events fire around the use case.
type ManagerController struct {
	Debug          bool
	Logger         Logger
	Workflow       *Workflow
	Lifecycle      *LifecycleRouter
	Sessions       SessionFactory
	Config         Config
	Routes         *ManagerControllerRoutes
	PrefixResolver func(router.Context) string
	ErrorHandler   router.ErrorHandler
}

type ManagerControllerOption func(*ManagerController) *ManagerController

func NewManagerController(opts ...ManagerControllerOption) *ManagerController {
	c := &ManagerController{
		Logger:         defLogger{},
		ErrorHandler:   defaultErrHandler,
		PrefixResolver: DefaultPrefixResolver("admin"),
		Routes: &ManagerControllerRoutes{
			Login:          "/login",
			Logout:         "/logout",
			ForgotPassword: "/forgot-password",
			Activate:       "/activate",
			ResetPassword:  "/reset-password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Workflow == nil {
		panic("Missing Workflow in manager controller...")
	}

	if c.Lifecycle == nil {
		panic("Missing LifecycleRouter in manager controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionFactory in manager controller...")
	}

	if c.Config == nil {
		panic("Missing Config in manager controller...")
	}

	return c
}

func WithControllerWorkflow(w *Workflow) ManagerControllerOption {
	return func(c *ManagerController) *ManagerController {
		c.Workflow = w
		return c
	}
}

func WithControllerLifecycle(l *LifecycleRouter) ManagerControllerOption {
	return func(c *ManagerController) *ManagerController {
		c.Lifecycle = l
		return c
	}
}

func WithControllerSessions(f SessionFactory) ManagerControllerOption {
	return func(c *ManagerController) *ManagerController {
		c.Sessions = f
		return c
	}
}

func WithControllerConfig(cfg Config) ManagerControllerOption {
	return func(c *ManagerController) *ManagerController {
		c.Config = cfg
		return c
	}
}

func WithControllerLogger(l Logger) ManagerControllerOption {
	return func(c *ManagerController) *ManagerController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerDebug(debug bool) ManagerControllerOption {
	return func(c *ManagerController) *ManagerController {
		c.Debug = debug
		return c
	}
}

// RegisterManagerRoutes mounts the account lifecycle routes.
func RegisterManagerRoutes[T any](app router.Router[T], opts ...ManagerControllerOption) *ManagerController {
	controller := NewManagerController(opts...)

	app.Get(controller.Routes.Login, controller.LoginShow).
		SetName("manager.login.get")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("manager.login.post")

	app.Get(controller.Routes.Logout, controller.Logout).
		SetName("manager.logout.get")

	app.Get(controller.Routes.ForgotPassword, controller.ForgotPasswordShow).
		SetName("manager.forgot-password.get")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("manager.forgot-password.post")

	// The token-less variants exist so a truncated link still lands on the
	// generic invalid-token answer instead of a 404.
	app.Get(fmt.Sprintf("%s/:email", controller.Routes.Activate), controller.Activate).
		SetName("manager.activate-notoken.get")
	app.Get(fmt.Sprintf("%s/:email/:token", controller.Routes.Activate), controller.Activate).
		SetName("manager.activate.get")

	app.Get(fmt.Sprintf("%s/:email", controller.Routes.ResetPassword), controller.ResetPasswordForm).
		SetName("manager.reset-password-notoken.get")
	app.Get(fmt.Sprintf("%s/:email/:token", controller.Routes.ResetPassword), controller.ResetPasswordForm).
		SetName("manager.reset-password.get")
	app.Post(fmt.Sprintf("%s/:email/:token", controller.Routes.ResetPassword), controller.ResetPasswordExecute).
		SetName("manager.reset-password.post")

	return controller
}

// DefaultPrefixResolver matches the first path segment against the known
// prefixes; requests outside those areas carry no prefix.
func DefaultPrefixResolver(prefixes ...string) func(router.Context) string {
	known := make(map[string]bool, len(prefixes))
	for _, p := range prefixes {
		known[p] = true
	}

	return func(ctx router.Context) string {
		path := strings.TrimPrefix(ctx.Path(), "/")
		segment, _, _ := strings.Cut(path, "/")
		if known[segment] {
			return segment
		}
		return ""
	}
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *ManagerController) LoginShow(ctx router.Context) error {
	return a.around(ctx, func(c context.Context, pc *PhaseContext, sess Session) (Outcome, error) {
		if current, ok := sess.Account(c); ok {
			return Outcome{Redirect: a.Workflow.resolver.Resolve(c, current.RoleID)}, nil
		}
		return Outcome{ShowForm: true}, nil
	}, a.Config.GetViews().Login, nil)
}

func (a *ManagerController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.badPayload(ctx, err, a.Config.GetViews().Login, payload)
	}

	if err := payload.Validate(); err != nil {
		return a.invalidPayload(ctx, err, a.Config.GetViews().Login, payload)
	}

	if a.Debug {
		a.Logger.Debug("login payload", "payload", print.MaybePrettyJSON(payload))
	}

	return a.around(ctx, func(c context.Context, pc *PhaseContext, sess Session) (Outcome, error) {
		return a.Workflow.Login(c, sess, payload.Email, payload.Password)
	}, a.Config.GetViews().Login, map[string]any{"record": payload})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *ManagerController) ForgotPasswordShow(ctx router.Context) error {
	return a.around(ctx, func(c context.Context, pc *PhaseContext, sess Session) (Outcome, error) {
		if _, ok := sess.Account(c); ok {
			return Outcome{Redirect: a.Config.GetLoginRoute()}, nil
		}
		return Outcome{ShowForm: true}, nil
	}, a.Config.GetViews().ForgotPassword, nil)
}

func (a *ManagerController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.badPayload(ctx, err, a.Config.GetViews().ForgotPassword, payload)
	}

	if err := payload.Validate(); err != nil {
		return a.invalidPayload(ctx, err, a.Config.GetViews().ForgotPassword, payload)
	}

	return a.around(ctx, func(c context.Context, pc *PhaseContext, sess Session) (Outcome, error) {
		return a.Workflow.ForgotPassword(c, sess, payload.Email)
	}, a.Config.GetViews().ForgotPassword, map[string]any{"record": payload})
}

func (a *ManagerController) Activate(ctx router.Context) error {
	email := ctx.Param("email", "")
	token := ctx.Param("token", "")
	referer := string(ctx.Referer())

	return a.around(ctx, func(c context.Context, pc *PhaseContext, sess Session) (Outcome, error) {
		return a.Workflow.Activate(c, sess, email, token, referer)
	}, a.Config.GetViews().Login, nil)
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(10, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *ManagerController) ResetPasswordForm(ctx router.Context) error {
	email := ctx.Param("email", "")
	token := ctx.Param("token", "")
	referer := string(ctx.Referer())

	return a.around(ctx, func(c context.Context, pc *PhaseContext, sess Session) (Outcome, error) {
		return a.Workflow.ShowResetForm(c, sess, email, token, referer)
	}, a.Config.GetViews().ResetPassword, map[string]any{"email": email, "token": token})
}

func (a *ManagerController) ResetPasswordExecute(ctx router.Context) error {
	email := ctx.Param("email", "")
	token := ctx.Param("token", "")
	referer := string(ctx.Referer())

	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.badPayload(ctx, err, a.Config.GetViews().ResetPassword, payload)
	}

	if err := payload.Validate(); err != nil {
		return a.invalidPayload(ctx, err, a.Config.GetViews().ResetPassword, payload)
	}

	return a.around(ctx, func(c context.Context, pc *PhaseContext, sess Session) (Outcome, error) {
		return a.Workflow.ResetPassword(c, sess, email, token, payload.Password, referer)
	}, a.Config.GetViews().ResetPassword, map[string]any{"email": email, "token": token})
}

func (a *ManagerController) Logout(ctx router.Context) error {
	return a.around(ctx, func(c context.Context, pc *PhaseContext, sess Session) (Outcome, error) {
		return a.Workflow.Logout(c, sess)
	}, a.Config.GetViews().Login, nil)
}

// around runs the handler inside the lifecycle phases and translates the
// resulting Outcome into a redirect or a render. Values the hooks applied to
// the PhaseContext (theme, layout, menu, title) are merged into the view
// context so scoped listeners and templates see the same state.
func (a *ManagerController) around(
	ctx router.Context,
	handler func(context.Context, *PhaseContext, Session) (Outcome, error),
	view string,
	viewData map[string]any,
) error {
	sess := a.Sessions(ctx)
	pc := NewPhaseContext(RequestScope{Prefix: a.PrefixResolver(ctx)})

	reqCtx := WithScope(ctx.Context(), pc.Scope)
	if account, ok := sess.Account(reqCtx); ok {
		pc.Account = account
		reqCtx = WithAccount(reqCtx, account)
	}

	var outcome Outcome

	err := a.Lifecycle.Around(reqCtx, pc, func(c context.Context, pc *PhaseContext) error {
		var err error
		outcome, err = handler(c, pc, sess)
		return err
	})

	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return a.applyOutcome(ctx, pc, outcome, view, viewData)
}

func (a *ManagerController) applyOutcome(ctx router.Context, pc *PhaseContext, outcome Outcome, view string, viewData map[string]any) error {
	vc := router.ViewContext{}
	for k, v := range pc.Values() {
		vc[k] = v
	}
	for k, v := range viewData {
		vc[k] = v
	}
	if pc.Account != nil {
		vc["authUser"] = pc.Account
	}

	if outcome.Redirect != "" {
		switch outcome.Notice.Kind {
		case NoticeSuccess:
			return flash.WithSuccess(ctx, router.ViewContext{
				"system_message": outcome.Notice.Message,
			}).Redirect(outcome.Redirect, redirectStatus(ctx))
		case NoticeError:
			return flash.WithError(ctx, router.ViewContext{
				"system_message": outcome.Notice.Message,
			}).Redirect(outcome.Redirect, redirectStatus(ctx))
		default:
			return ctx.Redirect(outcome.Redirect, redirectStatus(ctx))
		}
	}

	if outcome.Notice.Kind == NoticeError {
		vc["errors"] = map[string]string{"workflow": outcome.Notice.Message}
	}

	return ctx.Render(view, vc)
}

func (a *ManagerController) badPayload(ctx router.Context, err error, view string, payload any) error {
	a.Logger.Error("manager controller parse payload", "error", err)
	return flash.WithError(ctx, router.ViewContext{
		"error_message":  err.Error(),
		"system_message": "Error parsing body",
	}).Status(fiber.StatusBadRequest).Render(view, router.ViewContext{
		"errors": map[string]string{"form": "Failed to parse form"},
		"record": payload,
	})
}

func (a *ManagerController) invalidPayload(ctx router.Context, err error, view string, payload any) error {
	a.Logger.Error("manager controller validate payload", "error", err)
	return flash.WithError(ctx, router.ViewContext{
		"error_message":  err.Error(),
		"system_message": "Error validating payload",
	}).Render(view, router.ViewContext{
		"record":     payload,
		"validation": FormatValidationErrorToMap(err),
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return stderrors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map for templates.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["validation"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
