package session

import (
	"context"
	"sync"
)

// FrontendRPC is the boundary contract a backend process uses to mutate the
// authoritative FrontendSession living on the originating connector
// process. The dispatch core depends only on this interface; the transport
// underneath it (this module's sysrpc facade, or any other RPC mesh) is an
// external collaborator.
type FrontendRPC interface {
	BindUID(ctx context.Context, frontendID, sessionID, uid string) error
	UnbindUID(ctx context.Context, frontendID, sessionID string) error
	PushSetting(ctx context.Context, frontendID, sessionID, key, value string) error
	PushAllSettings(ctx context.Context, frontendID, sessionID string, settings map[string]string) error
}

// BackendSession is a read-mostly snapshot of a FrontendSession, held by a
// backend for the duration of one request. Local Set calls mutate only the
// snapshot; unpushed changes are silently discarded when the snapshot goes
// out of scope. Push/PushAll/Bind/Unbind are explicit RPCs back to the
// originating frontend.
type BackendSession struct {
	mu         sync.Mutex
	id         string
	frontendID string
	uid        string
	settings   map[string]string
	rpc        FrontendRPC
}

// NewBackendSession builds a snapshot from an exported frontend session view.
func NewBackendSession(exp Export, rpc FrontendRPC) *BackendSession {
	return &BackendSession{
		id:         exp.ID,
		frontendID: exp.FrontendID,
		uid:        exp.UID,
		settings:   cloneSettings(exp.Settings),
		rpc:        rpc,
	}
}

// ID returns the session id this snapshot was built from.
func (s *BackendSession) ID() string { return s.id }

// FrontendID returns the originating frontend's id.
func (s *BackendSession) FrontendID() string { return s.frontendID }

// UID returns the locally-known uid. It is not updated by a remote Bind
// performed by another process.
func (s *BackendSession) UID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}

// Set mutates only the local snapshot.
func (s *BackendSession) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

// Get reads from the local snapshot.
func (s *BackendSession) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	return v, ok
}

// Bind RPCs the frontend to mutate the authoritative session's uid, then
// updates the local snapshot to match.
func (s *BackendSession) Bind(ctx context.Context, uid string) error {
	if err := s.rpc.BindUID(ctx, s.frontendID, s.id, uid); err != nil {
		return err
	}
	s.mu.Lock()
	s.uid = uid
	s.mu.Unlock()
	return nil
}

// Unbind RPCs the frontend to clear the authoritative session's uid.
func (s *BackendSession) Unbind(ctx context.Context) error {
	if err := s.rpc.UnbindUID(ctx, s.frontendID, s.id); err != nil {
		return err
	}
	s.mu.Lock()
	s.uid = ""
	s.mu.Unlock()
	return nil
}

// Push RPCs a single setting to the frontend, atomically overwriting that
// key on the authoritative session.
func (s *BackendSession) Push(ctx context.Context, key string) error {
	s.mu.Lock()
	value, ok := s.settings[key]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.rpc.PushSetting(ctx, s.frontendID, s.id, key, value)
}

// PushAll RPCs every local setting to the frontend.
func (s *BackendSession) PushAll(ctx context.Context) error {
	s.mu.Lock()
	snapshot := cloneSettings(s.settings)
	s.mu.Unlock()
	return s.rpc.PushAllSettings(ctx, s.frontendID, s.id, snapshot)
}

// Export returns a plain-data view of {id, frontendId, uid, settings} for
// further forwarding.
func (s *BackendSession) Export() Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Export{
		ID:         s.id,
		FrontendID: s.frontendID,
		UID:        s.uid,
		Settings:   cloneSettings(s.settings),
	}
}
