package fae

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const pageSize = 4096

// dmaBuffer is the page-aligned region the vendor SDK copies frame bytes
// into directly via DMA. Go's allocator gives no alignment guarantee
// beyond pointer size, so this is backed by an anonymous mmap — the same
// mechanism internal/ringbuffer uses for the file-backed ring, here
// applied to anonymous memory to get page alignment without a file.
//
// The engine owns this buffer exclusively for the lifetime of a stream;
// it must not be released until after the hardware has been halted and
// the callback deregistered (see stop sequencing in engine.go).
type dmaBuffer struct {
	mem []byte
}

// newDMABuffer allocates n bytes rounded up to a whole number of 4 KiB
// pages. It rejects sizes that would not fit the vendor's unsigned
// 32-bit buffer-length field.
func newDMABuffer(n uint64) (*dmaBuffer, error) {
	if n > uint64(^uint32(0)) {
		return nil, fmt.Errorf("fae: dma buffer size %d exceeds uint32 range", n)
	}
	pages := (n + pageSize - 1) / pageSize
	if pages == 0 {
		pages = 1
	}
	size := int(pages * pageSize)

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("fae: mmap dma buffer: %w", err)
	}
	return &dmaBuffer{mem: mem}, nil
}

func (b *dmaBuffer) bytes() []byte { return b.mem }

func (b *dmaBuffer) release() error {
	if b.mem == nil {
		return nil
	}
	err := unix.Munmap(b.mem)
	b.mem = nil
	return err
}
