package fae

import (
	"sync"
	"sync/atomic"

	"github.com/easternanemone/daqcore/internal/frame"
)

// broadcastHub fans a frame out to many live subscribers, never blocking
// the retrieval worker: a subscriber whose channel is full simply misses
// that frame. Grounded on the same try-send-or-drop shape as
// internal/ringbuffer's tap registry, here applied to subscribe_frames()
// rather than ring-buffer records.
type broadcastHub struct {
	mu   sync.RWMutex
	subs map[uint64]chan frame.Frame
	next atomic.Uint64
}

func newBroadcastHub() *broadcastHub {
	return &broadcastHub{subs: make(map[uint64]chan frame.Frame)}
}

// subscribe registers a new subscriber with the given buffered channel
// capacity and returns the receive-only channel plus an unsubscribe
// function. Subscribers joining now receive only frames published after
// this call — there is no replay.
func (h *broadcastHub) subscribe(capacity int) (<-chan frame.Frame, func()) {
	if capacity < 1 {
		capacity = 1
	}
	id := h.next.Add(1)
	ch := make(chan frame.Frame, capacity)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	unsub := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
	return ch, unsub
}

func (h *broadcastHub) publish(f frame.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- f:
		default:
		}
	}
}

func (h *broadcastHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}
