// Package capability defines the narrow, polymorphic device traits the
// Run Engine programs against. Separating these from the main daq package
// avoids a circular import between the root package (Plan/Document types)
// and the Device Registry, the same reason go-ublk keeps its Backend
// interface in internal/interfaces rather than the root package.
package capability

import (
	"time"

	"github.com/easternanemone/daqcore/internal/frame"
)

// Movable is any device with a single controllable axis: a stage, a
// rotation mount, a filter wheel position.
type Movable interface {
	MoveAbs(pos float64) error
	MoveRel(delta float64) error
	Position() (float64, error)
	WaitSettled(timeout time.Duration) error
	Stop() error
}

// Readable is any device that produces one scalar per Read command — a
// power meter, a photodiode, a thermocouple.
type Readable interface {
	Read() (float64, error)
}

// Triggerable is any device with an arm/trigger cycle, typically paired
// with a FrameProducer or Readable on the same physical unit.
type Triggerable interface {
	Arm() error
	Trigger() error
}

// FrameObserver is a non-owning, low-latency hook invoked synchronously
// by the Frame Acquisition Engine for each successfully retrieved frame.
// Implementations MUST NOT block: the engine calls observers on its
// retrieval-worker goroutine, in the hot path between hardware callbacks.
type FrameObserver interface {
	OnFrame(f frame.Frame)
}

// FrameObserverFunc adapts a plain function to FrameObserver.
type FrameObserverFunc func(f frame.Frame)

func (fn FrameObserverFunc) OnFrame(f frame.Frame) { fn(f) }

// ObserverHandle identifies a registered FrameObserver for later removal.
type ObserverHandle uint64

// FrameProducer is any device backed by the Frame Acquisition Engine: a
// scientific camera. subscribe_frames returns a broadcast-shaped channel;
// register_observer additionally drives synchronous, non-owning observers.
type FrameProducer interface {
	StartStream(roi ROI, binning uint32, exposure time.Duration) error
	StopStream() error
	Resolution() (uint32, uint32)
	SubscribeFrames() (<-chan frame.Frame, func())
	SupportsObservers() bool
	RegisterObserver(obs FrameObserver) ObserverHandle
	UnregisterObserver(handle ObserverHandle)
}

// ROI is a region of interest in sensor pixel coordinates.
type ROI struct {
	X, Y, Width, Height uint32
}

// ExposureControl exposes vendor exposure time as an independent knob
// from StartStream's exposure argument, for devices that allow changing
// exposure mid-stream.
type ExposureControl interface {
	SetExposure(d time.Duration) error
	Exposure() (time.Duration, error)
}

// ShutterControl is a mechanical or electronic shutter paired with a
// camera or a laser source.
type ShutterControl interface {
	OpenShutter() error
	CloseShutter() error
	ShutterOpen() (bool, error)
}

// WavelengthTunable is a tunable laser or monochromator.
type WavelengthTunable interface {
	SetWavelength(nm float64) error
	Wavelength() (float64, error)
}

// EmissionControl gates a laser's output independent of shutter state
// (interlock/emission enable, as distinct from a mechanical shutter).
type EmissionControl interface {
	EnableEmission() error
	DisableEmission() error
	EmissionEnabled() (bool, error)
}

// ParamValue is a typed parameter value for Parameterized introspection,
// grounded on the original Rust implementation's typed parameter enum
// rather than a bare interface{} — the Run Engine's Manifest capture
// round-trips these through JSON without losing int-vs-float distinction.
type ParamValue struct {
	Kind ParamKind
	F    float64
	I    int64
	B    bool
	S    string
}

type ParamKind uint8

const (
	ParamFloat ParamKind = iota
	ParamInt
	ParamBool
	ParamString
)

func FloatParam(v float64) ParamValue  { return ParamValue{Kind: ParamFloat, F: v} }
func IntParam(v int64) ParamValue      { return ParamValue{Kind: ParamInt, I: v} }
func BoolParam(v bool) ParamValue      { return ParamValue{Kind: ParamBool, B: v} }
func StringParam(v string) ParamValue  { return ParamValue{Kind: ParamString, S: v} }

// Parameterized is name->value introspection and mutation for devices
// with an open-ended parameter set (gain, binning mode, cooling setpoint)
// that don't warrant their own capability interface.
type Parameterized interface {
	Parameters() map[string]ParamValue
	SetParameter(name string, value ParamValue) error
}
