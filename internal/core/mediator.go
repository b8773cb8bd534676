package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNoHandler is returned by Send when no handler is registered for a request.
var ErrNoHandler = errors.New("mediator: no handler registered")

// Request is a command dispatched through the Mediator. Requests are value
// types; RequestName must not depend on field values.
type Request interface {
	RequestName() string
}

// Handler handles one request type.
type Handler[R Request] interface {
	Handle(ctx context.Context, req R) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[R Request] func(ctx context.Context, req R) error

// Handle calls f(ctx, req).
func (f HandlerFunc[R]) Handle(ctx context.Context, req R) error { return f(ctx, req) }

type dispatchFunc func(ctx context.Context, req Request) error

// Mediator routes requests to their single registered handler.
type Mediator struct {
	mu       sync.RWMutex
	handlers map[string]dispatchFunc
	logger   Logger
	metrics  MetricsRecorder
	now      func() time.Time
}

// NewMediator constructs a mediator with no-op logging and metrics unless
// options supply them.
func NewMediator(opts ...Option) *Mediator {
	o := applyOptions(opts)
	return &Mediator{
		handlers: make(map[string]dispatchFunc),
		logger:   o.logger,
		metrics:  o.metrics,
		now:      o.now,
	}
}

// Register binds h to the request type R. Registering a second handler for
// the same request name fails.
func Register[R Request](m *Mediator, h Handler[R]) error {
	if h == nil {
		return fmt.Errorf("mediator: handler cannot be nil")
	}
	var zero R
	name := zero.RequestName()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.handlers[name]; exists {
		return fmt.Errorf("mediator: handler for %s already registered", name)
	}
	m.handlers[name] = func(ctx context.Context, req Request) error {
		typed, ok := req.(R)
		if !ok {
			return fmt.Errorf("mediator: request %s has unexpected type %T", name, req)
		}
		return h.Handle(ctx, typed)
	}
	return nil
}

// Registered returns the sorted names of requests that have a handler.
func (m *Mediator) Registered() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.handlers))
	for name := range m.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Send dispatches req to its handler and returns the handler's error unchanged.
func (m *Mediator) Send(ctx context.Context, req Request) error {
	if req == nil {
		return fmt.Errorf("mediator: request cannot be nil")
	}
	name := req.RequestName()
	m.mu.RLock()
	handler, ok := m.handlers[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, name)
	}

	start := m.now()
	err := handler(ctx, req)
	elapsed := m.now().Sub(start)
	m.metrics.Observe(ctx, name, err == nil, elapsed)
	if err != nil {
		m.logger.Warn("request failed", "request", name, "duration", elapsed, "error", err)
		return err
	}
	m.logger.Debug("request handled", "request", name, "duration", elapsed)
	return nil
}
