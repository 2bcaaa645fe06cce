package devices

import (
	"math/rand"
	"sync"

	"github.com/easternanemone/daqcore/internal/capability"
)

// Sensor is a mock scalar-producing device — a power meter or
// photodiode stand-in. Read returns a base value plus bounded jitter so
// successive Event documents carry distinguishable readings, the way a
// real detector's shot noise would.
type Sensor struct {
	id   string
	base float64
	jitter float64

	mu        sync.Mutex
	readCalls int
	rng       *rand.Rand
}

// NewSensor creates a mock sensor that reads base +/- jitter.
func NewSensor(id string, base, jitter float64) *Sensor {
	return &Sensor{
		id:     id,
		base:   base,
		jitter: jitter,
		rng:    rand.New(rand.NewSource(1)),
	}
}

func (s *Sensor) ID() string { return s.id }

func (s *Sensor) Read() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCalls++
	if s.jitter == 0 {
		return s.base, nil
	}
	return s.base + (s.rng.Float64()*2-1)*s.jitter, nil
}

// ReadCalls reports how many times Read has run, for test assertions.
func (s *Sensor) ReadCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCalls
}

var _ capability.Readable = (*Sensor)(nil)
