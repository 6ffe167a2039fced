package hub

import (
	"sync"
	"sync/atomic"

	"github.com/alxayo/fcast-core/internal/session"
)

// SessionID is a monotone identifier assigned at registration. Ids are
// never reused, so a stale reference after Unregister is simply absent
// from the registry rather than aliasing a newer session.
type SessionID uint64

type registeredSession struct {
	id       SessionID
	outbound chan session.OutboundMessage
}

// registry is the hub's arena+index of live sessions: a flat map keyed by
// the monotone SessionID, snapshotted under a read lock before any
// broadcast so slow or blocking sends never hold up registration.
type registry struct {
	mu      sync.RWMutex
	nextID  uint64
	entries map[SessionID]*registeredSession
}

func newRegistry() *registry {
	return &registry{entries: make(map[SessionID]*registeredSession)}
}

// register allocates a SessionID and an outbound channel the caller reads
// from to learn what to forward to its peer. The channel is buffered so a
// momentarily busy session doesn't block the broadcaster; Broadcast drops
// the message for that session instead of blocking when it's full.
func (r *registry) register() (SessionID, <-chan session.OutboundMessage) {
	id := SessionID(atomic.AddUint64(&r.nextID, 1))
	entry := &registeredSession{id: id, outbound: make(chan session.OutboundMessage, 32)}

	r.mu.Lock()
	r.entries[id] = entry
	r.mu.Unlock()

	return id, entry.outbound
}

func (r *registry) unregister(id SessionID) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if ok {
		close(entry.outbound)
	}
}

func (r *registry) snapshot() []*registeredSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*registeredSession, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
