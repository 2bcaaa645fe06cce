// Package devices holds reference device backends the Device Registry
// can host: a camera wrapping the Frame Acquisition Engine, a
// single-axis stage, a scalar sensor, and a mechanical shutter. None of
// them talk to real hardware; like the teacher's MockBackend
// (testing.go), they exist so the rest of the system can be exercised
// and tested without a vendor SDK or an instrument on the bench.
package devices

import "github.com/easternanemone/daqcore/internal/fae"

// Camera adapts a Frame Acquisition Engine instance to the Device
// Registry: it carries the registry ID that *fae.Engine itself has no
// notion of, and otherwise delegates every capability.FrameProducer
// method straight through.
type Camera struct {
	id string
	*fae.Engine
}

// NewCamera wires a registry-addressable camera around an already
// constructed Frame Acquisition Engine.
func NewCamera(id string, engine *fae.Engine) *Camera {
	return &Camera{id: id, Engine: engine}
}

func (c *Camera) ID() string { return c.id }
