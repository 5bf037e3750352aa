package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store is the host-configured persistent store that FrontendSession.Push
// writes through to. The dispatch core treats it as an external
// collaborator; a no-op Store is fine for processes that don't persist
// session state.
type Store interface {
	SaveSetting(ctx context.Context, sessionID, key, value string) error
}

type nopStore struct{}

func (nopStore) SaveSetting(context.Context, string, string, string) error { return nil }

// FrontendSession is the mutable, authoritative per-connection session that
// lives on the connector process. Mutations are visible to every subsequent
// request on the same connection.
type FrontendSession struct {
	mu         sync.RWMutex
	id         string
	frontendID string
	uid        string
	settings   map[string]string
	store      Store
}

// NewFrontendSession creates a FrontendSession with a generated id.
func NewFrontendSession(frontendID string, store Store) *FrontendSession {
	if store == nil {
		store = nopStore{}
	}
	return &FrontendSession{
		id:         uuid.NewString(),
		frontendID: frontendID,
		settings:   make(map[string]string),
		store:      store,
	}
}

// ID returns the session id.
func (s *FrontendSession) ID() string { return s.id }

// Bind associates a uid with this session.
func (s *FrontendSession) Bind(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uid = uid
}

// Unbind clears the uid associated with this session.
func (s *FrontendSession) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uid = ""
}

// UID returns the currently bound uid, or "" if unbound.
func (s *FrontendSession) UID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uid
}

// Set stores a setting locally, visible to subsequent requests on this
// connection immediately (no push required: FrontendSession is
// authoritative).
func (s *FrontendSession) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

// Get reads a setting.
func (s *FrontendSession) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	return v, ok
}

// Push writes the named setting through to the configured persistent Store.
// It is a no-op on the settings map itself, which already holds the value
// set via Set.
func (s *FrontendSession) Push(ctx context.Context, key string) error {
	s.mu.RLock()
	value, ok := s.settings[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return s.store.SaveSetting(ctx, s.id, key, value)
}

// Export returns a plain-data snapshot of the session for forwarding.
func (s *FrontendSession) Export() Export {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Export{
		ID:         s.id,
		FrontendID: s.frontendID,
		UID:        s.uid,
		Settings:   cloneSettings(s.settings),
	}
}

// applySettings overwrites the named keys atomically; used by BackendSession
// push RPCs to mutate the authoritative session. Concurrent pushes of the
// same key from different processes are last-writer-wins — there is no
// transactionality, by design of the framework this mirrors.
func (s *FrontendSession) applySettings(kv map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range kv {
		s.settings[k] = v
	}
}
