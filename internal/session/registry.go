package session

import (
	"context"
	"fmt"
	"sync"
)

// Registry tracks live FrontendSessions by id on a connector process. It
// backs the in-process LocalFrontendRPC and is what a real sysrpc transport
// would look up after deserializing an incoming push/bind RPC.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*FrontendSession
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*FrontendSession)}
}

// Put registers a session.
func (r *Registry) Put(s *FrontendSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Remove drops a session from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*FrontendSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// LocalFrontendRPC implements FrontendRPC by mutating sessions directly out
// of a Registry, for single-process deployments and tests. Production
// deployments implement FrontendRPC over the real sysrpc mesh instead.
type LocalFrontendRPC struct {
	Registry *Registry
}

var _ FrontendRPC = (*LocalFrontendRPC)(nil)

func (l *LocalFrontendRPC) lookup(sessionID string) (*FrontendSession, error) {
	s, ok := l.Registry.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s not found on frontend", sessionID)
	}
	return s, nil
}

// BindUID implements FrontendRPC.
func (l *LocalFrontendRPC) BindUID(_ context.Context, _, sessionID, uid string) error {
	s, err := l.lookup(sessionID)
	if err != nil {
		return err
	}
	s.Bind(uid)
	return nil
}

// UnbindUID implements FrontendRPC.
func (l *LocalFrontendRPC) UnbindUID(_ context.Context, _, sessionID string) error {
	s, err := l.lookup(sessionID)
	if err != nil {
		return err
	}
	s.Unbind()
	return nil
}

// PushSetting implements FrontendRPC.
func (l *LocalFrontendRPC) PushSetting(_ context.Context, _, sessionID, key, value string) error {
	s, err := l.lookup(sessionID)
	if err != nil {
		return err
	}
	s.applySettings(map[string]string{key: value})
	return nil
}

// PushAllSettings implements FrontendRPC.
func (l *LocalFrontendRPC) PushAllSettings(_ context.Context, _, sessionID string, settings map[string]string) error {
	s, err := l.lookup(sessionID)
	if err != nil {
		return err
	}
	s.applySettings(settings)
	return nil
}
