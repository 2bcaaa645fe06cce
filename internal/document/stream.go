package document

import (
	"sync"
	"sync/atomic"
)

// SubscriberID is the unique 64-bit handle for a document stream
// subscription.
type SubscriberID uint64

const streamChannelCapacity = 64

// Stream is the typed, broadcast-shaped subscription boundary for the
// run document stream: subscribers may join at any time and receive
// only documents emitted after they joined — there is no replay. A
// subscriber whose channel backs up gets its own overflow counter
// rather than stalling every other subscriber or the engine, grounded
// on the same non-blocking fan-out as internal/fae's broadcastHub,
// generalized here from Frame to Document.
type Stream struct {
	mu   sync.RWMutex
	subs map[SubscriberID]*subscriber
	next atomic.Uint64
}

type subscriber struct {
	ch      chan Document
	dropped atomic.Uint64
}

func NewStream() *Stream {
	return &Stream{subs: make(map[SubscriberID]*subscriber)}
}

// Subscribe registers a new subscriber and returns its receive channel,
// ID, and an unsubscribe function.
func (s *Stream) Subscribe() (<-chan Document, SubscriberID, func()) {
	id := SubscriberID(s.next.Add(1))
	sub := &subscriber{ch: make(chan Document, streamChannelCapacity)}

	s.mu.Lock()
	s.subs[id] = sub
	s.mu.Unlock()

	unsub := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing.ch)
		}
	}
	return sub.ch, id, unsub
}

// Publish fans doc out to every current subscriber without blocking. A
// full subscriber channel drops the document and increments that
// subscriber's own overflow counter.
func (s *Stream) Publish(doc Document) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		select {
		case sub.ch <- doc:
		default:
			sub.dropped.Add(1)
		}
	}
}

// DroppedCount reports how many documents a subscriber has missed due to
// a full channel. Returns (0, false) if id is not a current subscriber.
func (s *Stream) DroppedCount(id SubscriberID) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return 0, false
	}
	return sub.dropped.Load(), true
}
