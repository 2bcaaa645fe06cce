// Package frame defines the Frame value object as a dependency-free leaf
// type, so both the root daq package (public API) and internal/fae (which
// constructs Frame values straight off the vendor callback path) can import
// it without creating an import cycle.
package frame

import (
	"fmt"
	"time"
)

// BitDepth is the per-pixel sample width of a Frame. The core only ever
// sees 8-bit or 16-bit frames; vendor-specific packing (e.g. 12-bit
// packed) is unpacked by the driver before a Frame is constructed.
type BitDepth uint8

const (
	BitDepth8  BitDepth = 8
	BitDepth16 BitDepth = 16
)

func (b BitDepth) bytesPerPixel() int {
	return int(b) / 8
}

// Frame is an owned, immutable 2-D image acquired from a camera. Once
// constructed it is never mutated; subscribers share the same Frame value
// without copying pixel bytes.
type Frame struct {
	width       uint32
	height      uint32
	bitDepth    BitDepth
	pixels      []byte
	frameNumber uint64
	timestamp   time.Time
}

// New constructs a Frame, validating that pixels is exactly
// width*height*(bitDepth/8) bytes long. The caller must not retain or
// mutate pixels after this call succeeds — Frame takes ownership.
func New(width, height uint32, bitDepth BitDepth, pixels []byte, frameNumber uint64, timestamp time.Time) (Frame, error) {
	if bitDepth != BitDepth8 && bitDepth != BitDepth16 {
		return Frame{}, fmt.Errorf("frame: unsupported bit depth %d", bitDepth)
	}
	want := int(width) * int(height) * bitDepth.bytesPerPixel()
	if len(pixels) != want {
		return Frame{}, fmt.Errorf("frame: pixel buffer length %d does not match %dx%d at %d bits (want %d)",
			len(pixels), width, height, bitDepth, want)
	}
	return Frame{
		width:       width,
		height:      height,
		bitDepth:    bitDepth,
		pixels:      pixels,
		frameNumber: frameNumber,
		timestamp:   timestamp,
	}, nil
}

func (f Frame) Width() uint32        { return f.width }
func (f Frame) Height() uint32       { return f.height }
func (f Frame) BitDepth() BitDepth   { return f.bitDepth }
func (f Frame) FrameNumber() uint64  { return f.frameNumber }
func (f Frame) Timestamp() time.Time { return f.timestamp }

// Pixels returns the owned pixel buffer. Callers must treat it as
// read-only: Frame is shared by reference-counted Go slice headers across
// subscribers, and mutating it would be observable to all of them.
func (f Frame) Pixels() []byte { return f.pixels }

// ByteSize returns len(Pixels()), i.e. width*height*(bitDepth/8).
func (f Frame) ByteSize() int { return len(f.pixels) }

// Resolution returns (width, height), matching the FrameProducer
// capability's resolution() contract.
func (f Frame) Resolution() (uint32, uint32) { return f.width, f.height }
