package sessions

import (
	"sync"
	"time"
)

// Registry keeps per-session state in memory, keyed by session id. Entries
// expire after their TTL and are dropped lazily on access or by Sweep.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[string]*Session[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewRegistry creates a registry whose entries live for ttl. A zero ttl
// keeps entries until they are deleted.
func NewRegistry[T any](ttl time.Duration) *Registry[T] {
	return &Registry[T]{entries: make(map[string]*Session[T]), ttl: ttl, now: time.Now}
}

// GetOrCreate returns the live value for id, building one with create when
// the session is unknown or expired.
func (r *Registry[T]) GetOrCreate(id string, create func() T) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if s, ok := r.entries[id]; ok && !s.expired(now) {
		return s.Value
	}
	s := &Session[T]{ID: id, Value: create(), CreatedAt: now}
	if r.ttl > 0 {
		s.ExpiresAt = now.Add(r.ttl)
	}
	r.entries[id] = s
	return s.Value
}

// Get returns the live value for id.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	if s.expired(r.now()) {
		delete(r.entries, id)
		var zero T
		return zero, false
	}
	return s.Value, true
}

func (r *Registry[T]) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Sweep drops expired entries and returns how many were removed.
func (r *Registry[T]) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for id, s := range r.entries {
		if s.expired(now) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
