package chat

import (
	"context"
	"sync"
)

// Registry tracks the cancellation handle of every in-flight stream so a
// separate request can stop it.
type Registry struct {
	mu      sync.Mutex
	streams map[string]registration
}

type registration struct {
	owner  string
	cancel context.CancelFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]registration)}
}

// Register stores cancel under streamID. owner is the uid or guest id that
// started the stream; only the same owner may cancel it.
func (r *Registry) Register(streamID, owner string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[streamID] = registration{owner: owner, cancel: cancel}
}

// Cancel stops the stream and reports whether it was found.
func (r *Registry) Cancel(streamID, owner string) bool {
	r.mu.Lock()
	reg, ok := r.streams[streamID]
	if ok && reg.owner == owner {
		delete(r.streams, streamID)
	}
	r.mu.Unlock()

	if !ok || reg.owner != owner {
		return false
	}
	reg.cancel()
	return true
}

// Done forgets streamID once the stream has finished.
func (r *Registry) Done(streamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, streamID)
}

// Active returns the number of registered streams.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
