// Package fae is the Frame Acquisition Engine: it turns a vendor camera
// SDK's callback-driven frame-ready events into an ordered, loss-annotated
// stream of frame.Frame values, fanned out over a broadcast channel, an
// optional reliable channel, and registered observers.
//
// The vendor SDK itself is a C-ABI boundary (§6): setup_continuous,
// register_eof_callback, start_continuous and friends, with calling
// conventions and struct layouts that vary per camera family. Concrete
// cgo bindings for any one vendor are out of scope here — VendorSDK below
// is the Go-shaped contract every vendor binding must satisfy, and
// MockVendorSDK (mock.go) is the only implementation this module ships,
// used both for the "no hardware present" demo path and for tests.
package fae

import "github.com/easternanemone/daqcore/internal/capability"

// Handle identifies one open vendor stream session.
type Handle uint64

// SetupConfig mirrors the region/exposure/mode arguments to the vendor's
// setup_continuous entry point.
type SetupConfig struct {
	ROI        capability.ROI
	Binning    uint32
	ExposureMs uint32
}

// VendorSDK is the Go-shaped contract for the three C-ABI entry points
// §6 names, plus the status/fetch operations the retrieval worker needs
// to drain frames once the callback has fired.
//
// FetchFrame must release the vendor's internal lock on the returned
// frame slot before returning, matching the real SDK's "copy then
// release" contract — callers must not retain the returned byte slice
// past the call.
type VendorSDK interface {
	SetupContinuous(h Handle, cfg SetupConfig) (frameBytes uint32, recommendedFrames uint32, err error)
	RegisterEOFCallback(h Handle, cb func(frameNr int32)) error
	DeregisterEOFCallback(h Handle) error
	StartContinuous(h Handle, bufferLen uint32) error
	HaltContinuous(h Handle) error
	Status(h Handle) (hasFrame bool, fatal bool, err error)
	FetchFrame(h Handle) (frameNr int32, bytes []byte, err error)
}
