// Package ringbuffer implements the single-writer / multi-reader,
// lock-free, mmap-backed byte ring described in spec §3 and §4.3: a
// 128-byte C-layout header (see header.go), a seqlock read protocol, and
// a non-blocking tap registry for live secondary consumers (tap.go).
//
// The seqlock protocol and the mmap-as-struct technique are grounded on
// AlephTX/aleph-tx's feeder/shm/seqlock.go (odd/even epoch over a fixed
// C-compatible layout) and on go-ublk's internal/queue/runner.go mmap
// handling (golang.org/x/sys/unix, page-rounded sizes, pointer
// indirection into mmap'd memory).
package ringbuffer

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/easternanemone/daqcore/internal/bufpool"
	"github.com/easternanemone/daqcore/internal/logging"
)

// maxSeqlockRetries bounds spin-then-yield retries within one snapshot
// attempt before checking the deadline and yielding to the scheduler.
const maxSeqlockRetries = 64

// snapshotDeadline is the overall time budget for read_snapshot before it
// gives up on a stuck writer (spec scenario 2: stuck odd epoch).
const snapshotDeadline = 100 * time.Millisecond

// RingBuffer is a durable, single-process-writer byte ring over an mmap'd
// file. Many readers (in-process or cross-process) may snapshot
// concurrently; only one process may hold it open for writing.
type RingBuffer struct {
	file   *os.File
	mmap   []byte
	header *Header
	region []byte // mmap[HeaderSize:], the circular record domain

	writeMu sync.Mutex // serializes writers; a single producer is expected
	taps    *TapRegistry

	logger *logging.Logger
}

// Create creates a new ring buffer file holding a HeaderSize-byte header
// followed by a record region of capacityBytes, and initializes its
// header. streamID
// identifies this buffer incarnation to cross-process readers.
func Create(path string, capacityBytes uint64, streamID uint64) (*RingBuffer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ringbuffer: create %s: %w", path, err)
	}
	total := int64(HeaderSize) + int64(capacityBytes)
	if err := f.Truncate(total); err != nil {
		f.Close()
		return nil, fmt.Errorf("ringbuffer: truncate %s: %w", path, err)
	}
	rb, err := mapFile(f, total)
	if err != nil {
		f.Close()
		return nil, err
	}
	rb.header.Init(capacityBytes, streamID)
	return rb, nil
}

// Open attaches to an existing ring buffer file, either as the writer
// resuming after a restart or as a cross-process reader. It fails rather
// than silently remapping when the file's length doesn't match its own
// header-declared capacity, and fails on a magic mismatch — both are
// hard errors per spec §4.3's failure semantics.
func Open(path string) (*RingBuffer, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ringbuffer: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	rb, err := mapFile(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	if rb.header.Magic() != Magic {
		rb.Close()
		return nil, fmt.Errorf("ringbuffer: magic mismatch in %s: got %#x want %#x", path, rb.header.Magic(), Magic)
	}
	wantLen := int64(HeaderSize) + int64(rb.header.CapacityBytes())
	if info.Size() != wantLen {
		rb.Close()
		return nil, fmt.Errorf("ringbuffer: file length %d does not match header capacity+header %d", info.Size(), wantLen)
	}
	return rb, nil
}

func mapFile(f *os.File, size int64) (*RingBuffer, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("ringbuffer: mmap: %w", err)
	}
	hdr, err := NewHeaderView(data)
	if err != nil {
		unix.Munmap(data)
		return nil, err
	}
	return &RingBuffer{
		file:   f,
		mmap:   data,
		header: hdr,
		region: data[HeaderSize:],
		taps:   NewTapRegistry(),
		logger: logging.Default(),
	}, nil
}

// Close unmaps and closes the backing file. Registered taps are dropped.
func (rb *RingBuffer) Close() error {
	rb.taps.closeAll()
	var err error
	if rb.mmap != nil {
		err = unix.Munmap(rb.mmap)
		rb.mmap = nil
	}
	if rb.file != nil {
		if cerr := rb.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Capacity returns the size of the circular record region in bytes
// (excluding the header).
func (rb *RingBuffer) Capacity() uint64 { return rb.header.CapacityBytes() }

// StreamID identifies this buffer incarnation to cross-process readers.
func (rb *RingBuffer) StreamID() uint64 { return rb.header.StreamID() }

// Write appends record bytes to the ring, wrapping at the capacity
// boundary. It rejects records larger than capacity and serializes
// concurrent writers with an internal mutex — the byte copy itself, not
// any blocking I/O, is the only critical section. After a successful
// write it notifies the tap registry synchronously; tap delivery is
// itself non-blocking, so this never stalls the writer.
func (rb *RingBuffer) Write(record []byte) error {
	capacity := rb.header.CapacityBytes()
	if uint64(len(record)) > capacity {
		return fmt.Errorf("ringbuffer: record of %d bytes exceeds capacity %d", len(record), capacity)
	}

	rb.writeMu.Lock()
	defer rb.writeMu.Unlock()

	head := rb.header.WriteHead()
	rb.header.BeginWrite()
	rb.copyIntoRegion(head, record, capacity)
	newHead := head + uint64(len(record))
	rb.header.SetWriteHead(newHead)
	rb.header.EndWrite()

	rb.taps.notify(record)
	return nil
}

// copyIntoRegion writes record starting at the circular offset derived
// from the monotonic head, splitting across the wrap boundary as needed.
func (rb *RingBuffer) copyIntoRegion(head uint64, record []byte, capacity uint64) {
	if capacity == 0 {
		return
	}
	start := head % capacity
	n := uint64(len(record))
	firstPart := capacity - start
	if n <= firstPart {
		copy(rb.region[start:start+n], record)
		return
	}
	copy(rb.region[start:capacity], record[:firstPart])
	copy(rb.region[0:n-firstPart], record[firstPart:])
}

// Snapshot is an owned copy of the ring's current readable window,
// [EffectiveTail, WriteHead), along with the bounds it was taken at.
type Snapshot struct {
	Data          []byte
	EffectiveTail uint64
	WriteHead     uint64
}

// Release returns the snapshot's backing buffer to the shared pool used
// by ReadSnapshot. Calling it is optional — a caller that doesn't is no
// worse off than before pooling existed, since the buffer is still
// reclaimed by the garbage collector normally — but a caller in a tight
// polling loop should call it once done with Data to avoid a fresh
// allocation on every subsequent snapshot.
func (s Snapshot) Release() {
	if s.Data != nil {
		bufpool.Put(s.Data)
	}
}

// newSnapshotBuffer allocates the scratch buffer ReadSnapshot copies
// into, pooling sizes bufpool buckets, falling back to a plain
// allocation for anything larger or for a size bufpool's uint32
// parameter can't represent.
func newSnapshotBuffer(n uint64) []byte {
	if n > math.MaxUint32 {
		return make([]byte, n)
	}
	return bufpool.Get(uint32(n))
}

// ReadSnapshot implements the seqlock read protocol from spec §4.3: spin
// on an odd epoch, copy the readable window, and verify the epoch didn't
// change underneath the copy. It clamps the effective tail to
// max(read_tail, write_head-capacity) so a reader that fell behind still
// gets the freshest available window instead of a torn or stale one. On
// a stuck odd epoch (a crashed writer) it gives up after snapshotDeadline
// and returns an empty snapshot — it never panics.
func (rb *RingBuffer) ReadSnapshot() Snapshot {
	capacity := rb.header.CapacityBytes()
	deadline := time.Now().Add(snapshotDeadline)

	for {
		epochBefore, ok := rb.waitForEvenEpoch(deadline)
		if !ok {
			rb.logger.Warn("ringbuffer: read_snapshot timed out on stuck epoch", "epoch", epochBefore)
			return Snapshot{}
		}

		writeHead := rb.header.WriteHead()
		readTail := rb.header.ReadTail()
		effectiveTail := readTail
		if writeHead > capacity && writeHead-capacity > effectiveTail {
			effectiveTail = writeHead - capacity
		}
		available := writeHead - effectiveTail

		data := newSnapshotBuffer(available)
		rb.copyFromRegion(effectiveTail, data, capacity)

		memoryFence()
		epochAfter := rb.header.Epoch()
		if epochAfter == epochBefore && epochAfter%2 == 0 {
			return Snapshot{Data: data, EffectiveTail: effectiveTail, WriteHead: writeHead}
		}

		if time.Now().After(deadline) {
			rb.logger.Warn("ringbuffer: read_snapshot timed out after torn read", "retries", maxSeqlockRetries)
			return Snapshot{}
		}
	}
}

// waitForEvenEpoch spins briefly, then yields, waiting for the epoch to
// be even (no write in progress). It returns the observed even epoch, or
// false if the deadline passed first.
func (rb *RingBuffer) waitForEvenEpoch(deadline time.Time) (uint64, bool) {
	for {
		for i := 0; i < maxSeqlockRetries; i++ {
			epoch := rb.header.Epoch()
			if epoch%2 == 0 {
				return epoch, true
			}
		}
		if time.Now().After(deadline) {
			return rb.header.Epoch(), false
		}
		yieldToScheduler()
	}
}

func (rb *RingBuffer) copyFromRegion(effectiveTail uint64, dst []byte, capacity uint64) {
	if capacity == 0 || len(dst) == 0 {
		return
	}
	start := effectiveTail % capacity
	n := uint64(len(dst))
	firstPart := capacity - start
	if n <= firstPart {
		copy(dst, rb.region[start:start+n])
		return
	}
	copy(dst[:firstPart], rb.region[start:capacity])
	copy(dst[firstPart:], rb.region[0:n-firstPart])
}

// AdvanceTail updates read_tail monotonically: a retreating or
// out-of-order value (newPos <= current) is silently ignored, per spec.
func (rb *RingBuffer) AdvanceTail(newPos uint64) {
	for {
		current := rb.header.ReadTail()
		if newPos <= current {
			return
		}
		if rb.header.CASReadTail(current, newPos) {
			return
		}
	}
}

// RegisterTap registers a new tap consumer. Returns an error if id is
// already registered.
func (rb *RingBuffer) RegisterTap(id string, nthFrame uint64, channelCapacity int) (<-chan []byte, error) {
	return rb.taps.register(id, nthFrame, channelCapacity)
}

// UnregisterTap removes a tap and closes its channel.
func (rb *RingBuffer) UnregisterTap(id string) {
	rb.taps.unregister(id)
}

// TapDropCount returns how many records a given tap has dropped due to a
// full channel.
func (rb *RingBuffer) TapDropCount(id string) (uint64, bool) {
	return rb.taps.dropCount(id)
}
