// Package registry is the Device Registry (component E): an ID->device
// map that answers capability queries and snapshots parameters for the
// Manifest document, grounded on the teacher's Controller/AddDevice
// lifecycle pattern (internal/ctrl/control.go) adapted from one
// io_uring-backed block device to many heterogeneous lab-hardware
// devices addressed by string ID.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/easternanemone/daqcore/internal/capability"
	"github.com/easternanemone/daqcore/internal/logging"
)

// Device is the minimal contract every registered device must satisfy:
// an identity and, optionally, any subset of the capability interfaces
// in internal/capability. The registry discovers those by type
// assertion, the same narrow-trait pattern go-ublk's Backend interface
// uses for MemBackend/FileBackend.
type Device interface {
	ID() string
}

// Registry is the single process-wide device table. All operations are
// safe for concurrent use; the Run Engine and any RPC-facing layer share
// one Registry instance.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]Device
	logger  *logging.Logger
}

func New() *Registry {
	return &Registry{
		devices: make(map[string]Device),
		logger:  logging.Default(),
	}
}

// Add registers a device under its own ID. Re-registering an existing ID
// replaces it after logging a warning — this matches go-ublk's
// AddDevice, which treats re-adding an index as a deliberate hot-swap
// rather than an error.
func (r *Registry) Add(d Device) error {
	if d == nil {
		return fmt.Errorf("registry: cannot add nil device")
	}
	id := d.ID()
	if id == "" {
		return fmt.Errorf("registry: device ID must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.devices[id]; exists {
		r.logger.Warn("registry: replacing existing device", "id", id)
	}
	r.devices[id] = d
	return nil
}

// Remove deregisters a device. A no-op if id is not present.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, id)
}

// Get returns the device registered under id.
func (r *Registry) Get(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[id]
	return d, ok
}

// IDs returns every registered device ID, sorted for deterministic
// iteration (Manifest capture and tests both want stable ordering).
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Movable looks up id and reports whether it implements capability.Movable.
func (r *Registry) Movable(id string) (capability.Movable, bool) {
	d, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	m, ok := d.(capability.Movable)
	return m, ok
}

// Readable looks up id and reports whether it implements capability.Readable.
func (r *Registry) Readable(id string) (capability.Readable, bool) {
	d, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	rd, ok := d.(capability.Readable)
	return rd, ok
}

// Triggerable looks up id and reports whether it implements capability.Triggerable.
func (r *Registry) Triggerable(id string) (capability.Triggerable, bool) {
	d, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	tr, ok := d.(capability.Triggerable)
	return tr, ok
}

// FrameProducer looks up id and reports whether it implements capability.FrameProducer.
func (r *Registry) FrameProducer(id string) (capability.FrameProducer, bool) {
	d, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	fp, ok := d.(capability.FrameProducer)
	return fp, ok
}

// Parameterized looks up id and reports whether it implements capability.Parameterized.
func (r *Registry) Parameterized(id string) (capability.Parameterized, bool) {
	d, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	p, ok := d.(capability.Parameterized)
	return p, ok
}

// ParameterSnapshot captures device -> (name -> value) for every
// registered device that implements Parameterized, for the Run Engine's
// Manifest document. A device with no parameters contributes an empty
// (not absent) map, so subscribers can distinguish "queried, has none"
// from "not queried".
func (r *Registry) ParameterSnapshot() map[string]map[string]capability.ParamValue {
	r.mu.RLock()
	ids := make([]string, 0, len(r.devices))
	snapshot := make(map[string]capability.Parameterized, len(r.devices))
	for id, d := range r.devices {
		if p, ok := d.(capability.Parameterized); ok {
			snapshot[id] = p
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	out := make(map[string]map[string]capability.ParamValue, len(snapshot))
	for _, id := range ids {
		out[id] = snapshot[id].Parameters()
	}
	return out
}
