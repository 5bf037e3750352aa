// Package handler implements the per-server-type registry of user handler
// code and its invocation contract.
package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/stacklok/gamemesh/internal/corelog"
	"github.com/stacklok/gamemesh/internal/corerr"
	"github.com/stacklok/gamemesh/internal/message"
	"github.com/stacklok/gamemesh/internal/route"
	"github.com/stacklok/gamemesh/internal/session"
)

// Func is the invocation contract every user handler method implements.
type Func func(ctx context.Context, msg *message.Message, sess session.Session) (resp any, err error)

// Registry is a {handler -> {method -> Func}} map for a single server type.
// It is populated once at start (by loading user-supplied code from a
// conventional directory, via Register) and is read-only afterwards.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]map[string]Func
	loaded   bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]map[string]Func)}
}

// Register adds a method to a handler. It is intended to be called during
// the load phase, before the registry is marked loaded; calls made after
// MarkLoaded are ignored, since the core does not support reloading.
func (r *Registry) Register(handlerName, method string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		corelog.Warnf("Register(%s.%s) called on a loaded handler registry; ignoring", handlerName, method)
		return
	}
	if r.handlers[handlerName] == nil {
		r.handlers[handlerName] = make(map[string]Func)
	}
	r.handlers[handlerName][method] = fn
}

// MarkLoaded freezes the registry against further structural change.
// Reloading is not supported by the core.
func (r *Registry) MarkLoaded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = true
}

// Lookup returns the Func bound to handlerName.method, if any.
func (r *Registry) Lookup(handlerName, method string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.handlers[handlerName]
	if !ok {
		return nil, false
	}
	fn, ok := m[method]
	return fn, ok
}

// Handle looks up handlers[rr.Handler][rr.Method] and invokes it with
// (msg, sess). A missing handler or method is an ErrHandlerNotFound error;
// handlers are user code and are not wrapped in an exception barrier beyond
// whatever the caller's own recover middleware provides.
func (r *Registry) Handle(ctx context.Context, rr *route.Record, msg *message.Message, sess session.Session) (any, error) {
	fn, ok := r.Lookup(rr.Handler, rr.Method)
	if !ok {
		return nil, corerr.New(corerr.ErrHandlerNotFound,
			fmt.Sprintf("no handler registered for %s.%s", rr.Handler, rr.Method), nil)
	}
	return fn(ctx, msg, sess)
}
