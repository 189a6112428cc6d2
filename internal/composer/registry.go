package composer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"sudonet/internal/observability"

	"github.com/google/uuid"
)

const (
	DefaultIdleTimeout = 30 * time.Minute
	DefaultMaxSessions = 1000
)

var ErrTooManySessions = errors.New("too many composer sessions")

type entry struct {
	composer *Composer
	lastUsed time.Time
}

// Registry holds the composer sessions opened over HTTP, keyed by an
// unguessable id. Idle sessions are swept periodically.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	factory  func() *Composer
	idle     time.Duration
	max      int
	now      func() time.Time
}

func NewRegistry(factory func() *Composer, idle time.Duration) *Registry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Registry{
		sessions: make(map[string]*entry),
		factory:  factory,
		idle:     idle,
		max:      DefaultMaxSessions,
		now:      time.Now,
	}
}

// Open starts a new composer and returns its id and welcome lines.
func (r *Registry) Open() (string, *Composer, []Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.max {
		return "", nil, nil, ErrTooManySessions
	}
	c := r.factory()
	lines := c.Start()
	id := uuid.NewString()
	r.sessions[id] = &entry{composer: c, lastUsed: r.now()}
	observability.ComposerSessions.Inc()
	return id, c, lines, nil
}

// Get returns the session and marks it used.
func (r *Registry) Get(id string) (*Composer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.composer, true
}

// Close discards a session. Closing an unknown id is a no-op.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	observability.ComposerSessions.Dec()
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the timeout and returns how many went.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idle)
	removed := 0
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	observability.ComposerSessions.Sub(float64(removed))
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Printf("composer: swept %d idle sessions", n)
			}
		}
	}
}
