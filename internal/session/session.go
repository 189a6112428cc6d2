// Package session holds the identity of the current caller. The server
// attaches one per request; the terminal client keeps one per process,
// restored from disk at start-up.
package session

import (
	"context"
	"sync"
)

// Identity is an authenticated user as seen by the rest of the app.
type Identity struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Token  string `json:"token,omitempty"`
	JTI    string `json:"jti,omitempty"`
}

// Authenticated reports whether id names a user.
func (id *Identity) Authenticated() bool {
	return id != nil && id.UserID != ""
}

// Owns reports whether id is the user with userID.
func (id *Identity) Owns(userID string) bool {
	return id.Authenticated() && id.UserID == userID
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity attached to ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// Store persists an identity between runs.
type Store interface {
	Load() (*Identity, error)
	Save(id *Identity) error
	Clear() error
}

// Session is the client-side holder of the current identity.
type Session struct {
	mu      sync.RWMutex
	current *Identity
	store   Store
}

// New creates an empty session backed by store. A nil store keeps it in memory only.
func New(store Store) *Session {
	return &Session{store: store}
}

// Restore loads the persisted identity, if any.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	id, err := s.store.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = id
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current identity, or nil when signed out.
func (s *Session) Get() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Set replaces the current identity and persists it.
func (s *Session) Set(id *Identity) error {
	cp := *id
	s.mu.Lock()
	s.current = &cp
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Save(&cp)
}

// Clear signs out and removes the persisted identity.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Clear()
}
