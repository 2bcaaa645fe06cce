package fae

import (
	"sync"
	"sync/atomic"

	"github.com/easternanemone/daqcore/internal/capability"
	"github.com/easternanemone/daqcore/internal/frame"
)

// observerRegistry holds the capability.FrameObserver callbacks
// registered by the Run Engine (and any other consumer) on this stream.
// Invocation happens synchronously on the retrieval worker goroutine, so
// observers must not block — this mirrors the non-owning, low-latency
// contract §3/§6 place on FrameObserver.
type observerRegistry struct {
	mu   sync.RWMutex
	obs  map[capability.ObserverHandle]capability.FrameObserver
	next atomic.Uint64
}

func newObserverRegistry() *observerRegistry {
	return &observerRegistry{obs: make(map[capability.ObserverHandle]capability.FrameObserver)}
}

func (r *observerRegistry) register(obs capability.FrameObserver) capability.ObserverHandle {
	h := capability.ObserverHandle(r.next.Add(1))
	r.mu.Lock()
	r.obs[h] = obs
	r.mu.Unlock()
	return h
}

func (r *observerRegistry) unregister(h capability.ObserverHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.obs, h)
}

// notify invokes every registered observer synchronously with a
// non-owning view of f. A panicking observer would otherwise take down
// the retrieval worker; each call is isolated with recover.
func (r *observerRegistry) notify(f frame.Frame) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.obs {
		callObserver(o, f)
	}
}

func callObserver(o capability.FrameObserver, f frame.Frame) {
	defer func() { recover() }()
	o.OnFrame(f)
}
