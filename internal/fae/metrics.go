package fae

import "sync"

// Discontinuity records one gap or reset detected in the hardware frame
// number sequence. Kept as a bounded ring rather than an unbounded log so
// a pathological stream can't grow this without limit.
type Discontinuity struct {
	Expected  int32
	Got       int32
	LostCount uint64
}

const maxDiscontinuityHistory = 32

// Metrics accumulates the loss/discontinuity counters §4.1 and §8
// require the FrameProducer capability to surface, plus a bounded
// history of individual discontinuity events for diagnostics.
type Metrics struct {
	mu                  sync.Mutex
	framesDelivered     uint64
	lostFrames          uint64
	discontinuityEvents uint64
	timeouts            uint64
	history             []Discontinuity
}

func newMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordDelivered() {
	m.mu.Lock()
	m.framesDelivered++
	m.mu.Unlock()
}

func (m *Metrics) recordDiscontinuity(expected, got int32, lost uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discontinuityEvents++
	m.lostFrames += lost
	m.history = append(m.history, Discontinuity{Expected: expected, Got: got, LostCount: lost})
	if len(m.history) > maxDiscontinuityHistory {
		m.history = m.history[len(m.history)-maxDiscontinuityHistory:]
	}
}

func (m *Metrics) recordTimeout() {
	m.mu.Lock()
	m.timeouts++
	m.mu.Unlock()
}

// Snapshot is an immutable copy of the current counters, safe to read
// after the stream has stopped.
type Snapshot struct {
	FramesDelivered     uint64
	LostFrames          uint64
	DiscontinuityEvents uint64
	Timeouts            uint64
	History             []Discontinuity
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	hist := make([]Discontinuity, len(m.history))
	copy(hist, m.history)
	return Snapshot{
		FramesDelivered:     m.framesDelivered,
		LostFrames:          m.lostFrames,
		DiscontinuityEvents: m.discontinuityEvents,
		Timeouts:            m.timeouts,
		History:             hist,
	}
}
