// Package errs is the structured error taxonomy (§7) shared by every
// layer of daqcore — kept as its own leaf package (rather than in the
// root daq package) so internal packages like runengine, registry, and
// fae can return the same *Error type the public API uses without
// importing the root package back.
package errs

import (
	"errors"
	"fmt"
)

// Code is the high-level error category a *Error carries: FrameLoss is
// informational and never fatal, Timeout bounds waits, WrongEngineState
// rejects illegal run-engine transitions, and so on.
type Code string

const (
	CodeHardwareSetup         Code = "hardware setup failed"
	CodeHardwareCommunication Code = "hardware communication failed"
	CodeHardwareState         Code = "invalid hardware state"
	CodeFrameLoss             Code = "frame loss"
	CodeTimeout               Code = "timeout"
	CodeWrongEngineState      Code = "wrong engine state"
	CodePlanExecution         Code = "plan execution failed"
	CodeConfigInvalid         Code = "invalid configuration"
	CodeNotFound              Code = "not found"
)

// Error is a structured daqcore error with enough context to log and to
// match on programmatically via errors.Is/errors.As.
type Error struct {
	Op       string // operation that failed, e.g. "start_stream", "queue"
	DeviceID string // device or run identifier, empty if not applicable
	Code     Code
	Msg      string
	Inner    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	switch {
	case e.Op != "" && e.DeviceID != "":
		return fmt.Sprintf("daq: %s (op=%s device=%s)", msg, e.Op, e.DeviceID)
	case e.Op != "":
		return fmt.Sprintf("daq: %s (op=%s)", msg, e.Op)
	default:
		return fmt.Sprintf("daq: %s", msg)
	}
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports comparing two *Error by Code, so errors.Is(err,
// &Error{Code: CodeTimeout}) matches regardless of Op/Msg.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

// New creates a structured error with no device context.
func New(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewDevice creates a structured error scoped to one device.
func NewDevice(op, deviceID string, code Code, msg string) *Error {
	return &Error{Op: op, DeviceID: deviceID, Code: code, Msg: msg}
}

// Wrap wraps an arbitrary error with daqcore context, preserving the
// code of an inner *Error if there is one.
func Wrap(op string, code Code, inner error) *Error {
	if inner == nil {
		return nil
	}
	if de, ok := inner.(*Error); ok {
		return &Error{Op: op, DeviceID: de.DeviceID, Code: de.Code, Msg: de.Msg, Inner: de}
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is (or wraps) a *Error with the given code.
func IsCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Sentinel errors for the handful of places a plain sentinel reads more
// naturally than a structured Error.
var (
	ErrQueueEmpty       = errors.New("daq: run queue is empty")
	ErrAlreadyStreaming = errors.New("daq: already streaming")
	ErrNotStreaming     = errors.New("daq: not streaming")
)
