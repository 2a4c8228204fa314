// Package manager provides the authentication and account lifecycle core for
// a pluggable admin area (login, logout, activation, password recovery) plus
// the request lifecycle extension points downstream modules hook into.
//
// Account lifecycle:
//   - Accounts are created inactive with a single use activation token. The
//     token is consumed atomically with a conditional UPDATE keyed on the
//     email and token pair, so two concurrent requests can never both succeed.
//   - Password recovery reuses the same token protocol. Identify, token, and
//     activation failures all collapse into one generic answer so responses
//     never reveal whether an email address is registered.
//
// Request lifecycle:
//   - LifecycleRouter runs the beforeFilter, startup, beforeRender, and
//     shutdown phases around every use case. Each phase fires a generic event,
//     then the registered prefix hook (for example adminBeforeFilter), then a
//     prefix scoped event, synchronously and in that order, so listeners can
//     rely on hook side effects being visible.
//   - Hooks are registered explicitly on a HookRegistry and receive a
//     PhaseContext they can decorate with theme, layout, menu, and title
//     values that flow into the rendered view.
//
// Roles:
//   - Roles carry a login redirect target. RedirectResolver maps an account's
//     role to its post-login destination and falls back to the configured
//     default when the role or its redirect is missing, without failing the
//     login.
package manager
