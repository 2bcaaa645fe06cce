package devices

import (
	"sync"
	"time"

	"github.com/easternanemone/daqcore/internal/capability"
)

// Stage is a single-axis mock motor, grounded on the teacher's
// MockBackend: synchronous, in-memory, call-counted, with a settle
// delay that stands in for real motion time so WaitSettled has
// something to actually wait on.
type Stage struct {
	id          string
	settleDelay time.Duration

	mu        sync.Mutex
	pos       float64
	moving    bool
	moveCalls int
	velocity  capability.ParamValue
}

// NewStage creates a mock stage starting at position 0.
func NewStage(id string, settleDelay time.Duration) *Stage {
	return &Stage{
		id:          id,
		settleDelay: settleDelay,
		velocity:    capability.FloatParam(1.0),
	}
}

func (s *Stage) ID() string { return s.id }

func (s *Stage) MoveAbs(pos float64) error {
	s.mu.Lock()
	s.pos = pos
	s.moving = true
	s.moveCalls++
	s.mu.Unlock()

	if s.settleDelay > 0 {
		time.Sleep(s.settleDelay)
	}

	s.mu.Lock()
	s.moving = false
	s.mu.Unlock()
	return nil
}

func (s *Stage) MoveRel(delta float64) error {
	s.mu.Lock()
	target := s.pos + delta
	s.mu.Unlock()
	return s.MoveAbs(target)
}

func (s *Stage) Position() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, nil
}

// WaitSettled returns immediately: MoveAbs already blocks for
// settleDelay, so by the time it returns the stage is always settled.
// The timeout parameter exists to satisfy capability.Movable for
// devices whose motion genuinely runs in the background.
func (s *Stage) WaitSettled(_ time.Duration) error {
	return nil
}

func (s *Stage) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moving = false
	return nil
}

func (s *Stage) Parameters() map[string]capability.ParamValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]capability.ParamValue{"velocity": s.velocity}
}

func (s *Stage) SetParameter(name string, value capability.ParamValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "velocity" {
		s.velocity = value
	}
	return nil
}

// MoveCalls reports how many times MoveAbs has run, for test assertions.
func (s *Stage) MoveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveCalls
}

var (
	_ capability.Movable       = (*Stage)(nil)
	_ capability.Parameterized = (*Stage)(nil)
)
