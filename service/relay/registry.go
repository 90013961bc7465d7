package relay

import (
	"sync"
)

// Registry is the authoritative bookkeeping of currently-open visitor
// connections. Mutated only by the Gateway on connect/disconnect; the live
// counter always equals the map size and never goes negative.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*Client // conn_id -> client
	live   int
}

func NewRegistry() *Registry {
	return &Registry{byConn: make(map[string]*Client)}
}

// Add inserts the client and returns the new live count.
func (r *Registry) Add(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byConn[c.ID]; !exists {
		r.live++
	}
	r.byConn[c.ID] = c
	return r.live
}

// Remove deletes the entry if present and returns the new live count plus
// whether anything was removed. Unknown IDs and duplicate disconnects are
// no-ops.
func (r *Registry) Remove(connID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byConn[connID]; !ok {
		return r.live, false
	}
	delete(r.byConn, connID)
	if r.live > 0 {
		r.live--
	}
	return r.live, true
}

func (r *Registry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byConn[connID]
	return c, ok
}

// List snapshots all open connections for fan-out. Broadcast iterates the
// snapshot without holding the lock, so a concurrent disconnect may still
// see one enqueue race its own closure; that frame has no receiver anyway.
func (r *Registry) List() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.live
}
