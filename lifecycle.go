package manager

import (
	"context"
	"strings"
	"unicode"
)

// Phase is one of the four fixed per-request lifecycle stages. Phases run in
// declaration order, exactly once per request.
type Phase string

const (
	PhaseBeforeFilter Phase = "beforeFilter"
	PhaseStartup      Phase = "startup"
	PhaseBeforeRender Phase = "beforeRender"
	PhaseShutdown     Phase = "shutdown"
)

// Phases is the fixed execution order.
var Phases = [4]Phase{PhaseBeforeFilter, PhaseStartup, PhaseBeforeRender, PhaseShutdown}

// lifecycleEventRoot prefixes every generic and scoped lifecycle event name.
const lifecycleEventRoot = "Component.Manager."

// GenericEventName is the event fired for every request on the given phase,
// e.g. "Component.Manager.beforeFilter".
func GenericEventName(phase Phase) string {
	return lifecycleEventRoot + string(phase)
}

// ScopedEventName is the event fired only for prefixed requests, e.g.
// "Component.Manager.beforeFilter.admin".
func ScopedEventName(phase Phase, prefix string) string {
	return lifecycleEventRoot + string(phase) + "." + prefix
}

// HookName builds the registry key for a prefix override of a phase,
// e.g. ("admin", beforeFilter) -> "adminBeforeFilter".
func HookName(prefix string, phase Phase) string {
	s := string(phase)
	if s == "" {
		return prefix
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return prefix + string(r)
}

// RequestScope carries the per-request routing facts the lifecycle router
// needs: the optional prefix naming a sub-application area.
type RequestScope struct {
	Prefix string
}

// IsPrefix reports whether the request is scoped to any prefix.
func (s RequestScope) IsPrefix() bool {
	return strings.TrimSpace(s.Prefix) != ""
}

// PhaseContext is handed to hooks and carried across phases of one request.
// Hooks mutate it (theme, layout, navigation, view variables); listeners of
// the scoped event observe those mutations.
type PhaseContext struct {
	Phase   Phase
	Scope   RequestScope
	Account *Account

	values map[string]any
}

// NewPhaseContext builds the mutable context for a single request.
func NewPhaseContext(scope RequestScope) *PhaseContext {
	return &PhaseContext{
		Scope:  scope,
		values: make(map[string]any),
	}
}

// Set stores a request scoped value, e.g. the selected theme.
func (pc *PhaseContext) Set(key string, val any) {
	if pc.values == nil {
		pc.values = make(map[string]any)
	}
	pc.values[key] = val
}

// Get reads a request scoped value.
func (pc *PhaseContext) Get(key string) (any, bool) {
	v, ok := pc.values[key]
	return v, ok
}

// GetString reads a request scoped string value, "" when absent.
func (pc *PhaseContext) GetString(key string) string {
	if v, ok := pc.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Values exposes a copy of the accumulated request values, mainly so the
// transport can merge them into the view context.
func (pc *PhaseContext) Values() map[string]any {
	out := make(map[string]any, len(pc.values))
	for k, v := range pc.values {
		out[k] = v
	}
	return out
}

// HookFunc is a prefix override for one phase, invoked synchronously between
// the generic and the scoped event.
type HookFunc func(ctx context.Context, pc *PhaseContext) error

// HookRegistry maps (prefix, phase) to a registered override. It replaces
// runtime method-name construction with an explicit table populated at
// startup. Registration is not safe for concurrent use with dispatch.
type HookRegistry struct {
	hooks map[string]HookFunc
}

// NewHookRegistry creates an empty registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{hooks: make(map[string]HookFunc)}
}

// Register installs fn as the override for the (prefix, phase) pair. A later
// registration for the same pair replaces the earlier one.
func (r *HookRegistry) Register(prefix string, phase Phase, fn HookFunc) {
	if prefix == "" || fn == nil {
		return
	}
	r.hooks[HookName(prefix, phase)] = fn
}

// Lookup returns the override registered under the exact computed name.
func (r *HookRegistry) Lookup(prefix string, phase Phase) (HookFunc, bool) {
	fn, ok := r.hooks[HookName(prefix, phase)]
	return fn, ok
}

// LifecycleRouter orchestrates the per-request phases. For every phase it
// fires the generic event, then, when the request carries a prefix, runs the
// registered prefix hook (silent no-op when absent) and fires the scoped
// event. That order is a contract: scoped listeners may depend on state the
// hook applied to the PhaseContext.
type LifecycleRouter struct {
	bus    *Dispatcher
	hooks  *HookRegistry
	logger Logger
}

// NewLifecycleRouter creates a router over the given bus and registry.
func NewLifecycleRouter(bus *Dispatcher, hooks *HookRegistry) *LifecycleRouter {
	if hooks == nil {
		hooks = NewHookRegistry()
	}
	return &LifecycleRouter{
		bus:    bus,
		hooks:  hooks,
		logger: defLogger{},
	}
}

func (m *LifecycleRouter) WithLogger(logger Logger) *LifecycleRouter {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Hooks exposes the registry so hosts can install prefix overrides.
func (m *LifecycleRouter) Hooks() *HookRegistry {
	return m.hooks
}

// RunPhase executes a single phase: generic event, prefix hook, scoped event.
func (m *LifecycleRouter) RunPhase(ctx context.Context, pc *PhaseContext, phase Phase) error {
	pc.Phase = phase

	m.bus.Dispatch(ctx, Event{
		Name:    GenericEventName(phase),
		Account: pc.Account,
		Data:    map[string]any{"phase": string(phase)},
	})

	if !pc.Scope.IsPrefix() {
		return nil
	}

	prefix := pc.Scope.Prefix

	if hook, ok := m.hooks.Lookup(prefix, phase); ok {
		if err := hook(ctx, pc); err != nil {
			return err
		}
	}

	// The scoped event fires whether or not a hook was registered.
	m.bus.Dispatch(ctx, Event{
		Name:    ScopedEventName(phase, prefix),
		Account: pc.Account,
		Data:    map[string]any{"phase": string(phase), "prefix": prefix},
	})

	return nil
}

// Around runs the full request lifecycle with the use case handler between
// startup and beforeRender: beforeFilter, startup, handler, beforeRender,
// shutdown. A handler error short circuits the remaining phases.
func (m *LifecycleRouter) Around(ctx context.Context, pc *PhaseContext, handler func(ctx context.Context, pc *PhaseContext) error) error {
	if err := m.RunPhase(ctx, pc, PhaseBeforeFilter); err != nil {
		return err
	}
	if err := m.RunPhase(ctx, pc, PhaseStartup); err != nil {
		return err
	}

	if handler != nil {
		if err := handler(ctx, pc); err != nil {
			return err
		}
	}

	if err := m.RunPhase(ctx, pc, PhaseBeforeRender); err != nil {
		return err
	}
	return m.RunPhase(ctx, pc, PhaseShutdown)
}
