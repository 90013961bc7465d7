package bridge

import "sync"

// Handoff is a one-shot readiness cell. The bridge starts before the gateway
// exists; the gateway is resolved into the cell once main has constructed it.
// Anything arriving before Resolve sees ok=false and must drop (logged at the
// call site), never queue.
type Handoff[T any] struct {
	once  sync.Once
	ready chan struct{}

	mu sync.RWMutex
	v  T
}

func NewHandoff[T any]() *Handoff[T] {
	return &Handoff[T]{ready: make(chan struct{})}
}

// Resolve publishes the value. First call wins; later calls are ignored.
func (h *Handoff[T]) Resolve(v T) {
	h.once.Do(func() {
		h.mu.Lock()
		h.v = v
		h.mu.Unlock()
		close(h.ready)
	})
}

// Get returns the resolved value, or ok=false if Resolve has not fired yet.
func (h *Handoff[T]) Get() (T, bool) {
	select {
	case <-h.ready:
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.v, true
	default:
		var zero T
		return zero, false
	}
}

func (h *Handoff[T]) Ready() bool {
	select {
	case <-h.ready:
		return true
	default:
		return false
	}
}
