package ringbuffer

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Magic identifies a daqcore ring buffer file. Never rewritten after
// creation; a mismatch on open means "not our file" and open fails
// rather than remapping over unrelated data.
const Magic uint64 = 0x4441515f52494e47 // "DAQ_RING"

// HeaderSize is the fixed, C-layout-compatible header size in bytes.
// Cross-process readers mmap the same file and must agree on this
// exactly, the same way go-ublk's uapi structs assert their size with a
// compile-time array-length check.
const HeaderSize = 128

var _ = [HeaderSize]byte{} // documents the contract; real check is in header_test.go

// header field byte offsets, in the order specified: magic, capacity,
// write_head, read_tail, write_epoch, schema_len, reserved, stream_id,
// then padding out to 128 bytes.
const (
	offMagic         = 0
	offCapacityBytes = 8
	offWriteHead     = 16
	offReadTail      = 24
	offWriteEpoch    = 32
	offSchemaLen     = 40
	offReserved      = 44
	offStreamID      = 48
	// [56, 128) is padding.
)

// Header is a typed view over the first HeaderSize bytes of the mmap'd
// ring buffer file. It holds no data itself — every accessor reads or
// writes through atomic operations directly into the backing mmap, so
// multiple readers (in this process or another) see a consistent view
// without a lock.
type Header struct {
	base unsafe.Pointer // &mmap[0]
}

// NewHeaderView wraps a HeaderSize-or-larger byte slice backing an mmap
// region. The caller owns the slice's lifetime (munmap).
func NewHeaderView(mmap []byte) (*Header, error) {
	if len(mmap) < HeaderSize {
		return nil, fmt.Errorf("ringbuffer: mmap region too small for header: %d < %d", len(mmap), HeaderSize)
	}
	return &Header{base: unsafe.Pointer(&mmap[0])}, nil
}

func (h *Header) ptr64(off uintptr) *uint64 {
	return (*uint64)(unsafe.Pointer(uintptr(h.base) + off))
}

func (h *Header) ptr32(off uintptr) *uint32 {
	return (*uint32)(unsafe.Pointer(uintptr(h.base) + off))
}

// Init writes magic, capacity, and a fresh stream_id into a newly created
// file. Must only be called once, before any reader attaches.
func (h *Header) Init(capacityBytes uint64, streamID uint64) {
	atomic.StoreUint64(h.ptr64(offCapacityBytes), capacityBytes)
	atomic.StoreUint64(h.ptr64(offWriteHead), 0)
	atomic.StoreUint64(h.ptr64(offReadTail), 0)
	atomic.StoreUint64(h.ptr64(offWriteEpoch), 0)
	atomic.StoreUint32(h.ptr32(offSchemaLen), 0)
	atomic.StoreUint32(h.ptr32(offReserved), 0)
	atomic.StoreUint64(h.ptr64(offStreamID), streamID)
	// Magic is written last: its presence signals the rest of the header
	// is valid to a concurrently-opening cross-process reader.
	atomic.StoreUint64(h.ptr64(offMagic), Magic)
}

func (h *Header) Magic() uint64         { return atomic.LoadUint64(h.ptr64(offMagic)) }
func (h *Header) CapacityBytes() uint64 { return atomic.LoadUint64(h.ptr64(offCapacityBytes)) }
func (h *Header) StreamID() uint64      { return atomic.LoadUint64(h.ptr64(offStreamID)) }

func (h *Header) WriteHead() uint64 { return atomic.LoadUint64(h.ptr64(offWriteHead)) }
func (h *Header) SetWriteHead(v uint64) {
	atomic.StoreUint64(h.ptr64(offWriteHead), v)
}

func (h *Header) ReadTail() uint64 { return atomic.LoadUint64(h.ptr64(offReadTail)) }

// CASReadTail performs a plain compare-and-swap on read_tail. It does not
// itself reject a smaller new value; RingBuffer.AdvanceTail enforces the
// "retreating values are ignored" rule before calling it.
func (h *Header) CASReadTail(old, new uint64) bool {
	return atomic.CompareAndSwapUint64(h.ptr64(offReadTail), old, new)
}

func (h *Header) Epoch() uint64 { return atomic.LoadUint64(h.ptr64(offWriteEpoch)) }

// BeginWrite increments the epoch to odd, signaling "write in progress."
func (h *Header) BeginWrite() { atomic.AddUint64(h.ptr64(offWriteEpoch), 1) }

// EndWrite increments the epoch to even, signaling "write complete."
func (h *Header) EndWrite() { atomic.AddUint64(h.ptr64(offWriteEpoch), 1) }

// ForceEpoch is a test-only hook to simulate a crashed writer leaving the
// epoch stuck odd (scenario 2 in the spec's testable properties).
func (h *Header) ForceEpoch(v uint64) { atomic.StoreUint64(h.ptr64(offWriteEpoch), v) }
