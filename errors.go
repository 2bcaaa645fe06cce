// Package daq is the core of a scientific data-acquisition daemon: frame
// acquisition, experiment run orchestration, and a memory-mapped ring
// buffer for scalar/frame persistence and live taps.
package daq

import "github.com/easternanemone/daqcore/internal/errs"

// Code, Error and the constructors below are re-exported from
// internal/errs so internal packages (runengine, registry, fae) can
// return the same structured error type the public API uses without
// importing this package back.
type Code = errs.Code

const (
	CodeHardwareSetup         = errs.CodeHardwareSetup
	CodeHardwareCommunication = errs.CodeHardwareCommunication
	CodeHardwareState         = errs.CodeHardwareState
	CodeFrameLoss             = errs.CodeFrameLoss
	CodeTimeout               = errs.CodeTimeout
	CodeWrongEngineState      = errs.CodeWrongEngineState
	CodePlanExecution         = errs.CodePlanExecution
	CodeConfigInvalid         = errs.CodeConfigInvalid
	CodeNotFound              = errs.CodeNotFound
)

type Error = errs.Error

var (
	NewError       = errs.New
	NewDeviceError = errs.NewDevice
	WrapError      = errs.Wrap
	IsCode         = errs.IsCode
)

var (
	ErrQueueEmpty       = errs.ErrQueueEmpty
	ErrAlreadyStreaming = errs.ErrAlreadyStreaming
	ErrNotStreaming     = errs.ErrNotStreaming
)
