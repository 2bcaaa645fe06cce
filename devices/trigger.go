package devices

import (
	"sync"

	"github.com/easternanemone/daqcore/internal/capability"
)

// TriggerUnit is a mock arm/trigger device, such as a pulse generator
// gating a detector's exposure window.
type TriggerUnit struct {
	id string

	mu         sync.Mutex
	armed      bool
	armCalls   int
	triggerCalls int
}

func NewTriggerUnit(id string) *TriggerUnit {
	return &TriggerUnit{id: id}
}

func (t *TriggerUnit) ID() string { return t.id }

func (t *TriggerUnit) Arm() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
	t.armCalls++
	return nil
}

// Trigger fires only if armed, matching a real gated-trigger unit's
// interlock: an un-armed Trigger is a no-op rather than a misfire.
func (t *TriggerUnit) Trigger() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return nil
	}
	t.armed = false
	t.triggerCalls++
	return nil
}

// TriggerCalls reports how many times Trigger has actually fired, for
// test assertions.
func (t *TriggerUnit) TriggerCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.triggerCalls
}

var _ capability.Triggerable = (*TriggerUnit)(nil)
