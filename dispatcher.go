package manager

import (
	"context"
	"sync"
)

// Domain events emitted by the account lifecycle workflow. External
// consumers (mail, audit) subscribe to these by name.
const (
	EventAfterLogin          = "Accounts.afterLogin"
	EventAfterInvalidLogin   = "Accounts.afterInvalidLogin"
	EventAfterForgotPassword = "Accounts.afterForgotPassword"
	EventAfterRegister       = "Accounts.afterRegister"
)

// Event is a named payload dispatched to subscribers.
type Event struct {
	Name string
	// Account is set for account scoped domain events.
	Account *Account
	// Data carries event specific values, e.g. the attempted identifier on
	// an invalid login.
	Data map[string]any
}

// Listener consumes dispatched events. Listeners run synchronously on the
// dispatching goroutine, in subscription order.
type Listener func(ctx context.Context, event Event)

// Dispatcher is an explicit, instance based event bus. There is no package
// level singleton: hosts create one at bootstrap and hand it to the router
// and workflow.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	logger    Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: make(map[string][]Listener),
		logger:    defLogger{},
	}
}

func (d *Dispatcher) WithLogger(logger Logger) *Dispatcher {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// Subscribe registers a listener for the named event.
func (d *Dispatcher) Subscribe(name string, listener Listener) {
	if listener == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = append(d.listeners[name], listener)
}

// Dispatch delivers the event to every subscriber of its name, in order,
// before returning. Downstream listeners may rely on state applied by the
// caller being visible, so delivery is never deferred to another goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	d.mu.RLock()
	listeners := d.listeners[event.Name]
	d.mu.RUnlock()

	for _, listener := range listeners {
		listener(ctx, event)
	}
}

// HasListeners reports whether anything subscribed to the named event.
func (d *Dispatcher) HasListeners(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[name]) > 0
}
