package ringbuffer

import "runtime"

// memoryFence documents the explicit SeqCst fence spec §4.3 calls for
// between copying the snapshot and re-checking the epoch. go-ublk needs a
// real x86 MFENCE (internal/uring/barrier.go, via cgo) because it issues
// raw io_uring memory-mapped doorbell writes the CPU could otherwise
// reorder past a plain store. Here every header field is accessed through
// sync/atomic, whose Go memory model guarantees already impose the
// sequentially-consistent ordering §4.3 asks for — so this is a documented
// no-op rather than a second fence mechanism, kept as its own function so
// the seqlock read protocol reads the same on every architecture.
func memoryFence() {}

// yieldToScheduler gives other goroutines a chance to run while spinning
// on an odd epoch, matching the spec's "spin up to a bounded number of
// iterations then yield" retry policy.
func yieldToScheduler() {
	runtime.Gosched()
}
