package daq

import (
	"time"

	"github.com/easternanemone/daqcore/internal/frame"
)

// Frame, BitDepth and NewFrame are re-exported from internal/frame so the
// Frame Acquisition Engine (internal/fae) can construct frames without
// importing this root package.
type Frame = frame.Frame
type BitDepth = frame.BitDepth

const (
	BitDepth8  = frame.BitDepth8
	BitDepth16 = frame.BitDepth16
)

// NewFrame constructs a Frame, validating that pixels is exactly
// width*height*(bitDepth/8) bytes long. The caller must not retain or
// mutate pixels after this call succeeds — Frame takes ownership.
func NewFrame(width, height uint32, bitDepth BitDepth, pixels []byte, frameNumber uint64, timestamp time.Time) (Frame, error) {
	f, err := frame.New(width, height, bitDepth, pixels, frameNumber, timestamp)
	if err != nil {
		return Frame{}, NewError("NewFrame", CodeConfigInvalid, err.Error())
	}
	return f, nil
}
