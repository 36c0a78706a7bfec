package websocket

import "sync"

// Registry tracks the set of live connections. Removal is idempotent so
// the read pump's teardown and the heartbeat sweep can both evict the
// same connection without coordination.
type Registry struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[*Conn]struct{}),
	}
}

// Add inserts a connection.
func (r *Registry) Add(c *Conn) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
}

// Remove deletes a connection. Removing an absent connection is a no-op.
func (r *Registry) Remove(c *Conn) {
	r.mu.Lock()
	delete(r.conns, c)
	r.mu.Unlock()
}

// Snapshot returns the current connections as a slice, so callers can
// iterate and mutate the registry without holding its lock.
func (r *Registry) Snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Len returns the number of tracked connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
