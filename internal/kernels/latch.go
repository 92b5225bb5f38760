package kernels

import (
	"fmt"

	"github.com/fxnlabs/nvbandwidth/internal/gpu"
)

// Latch is the host-mapped word spin kernels wait on. The host is its only
// writer.
type Latch struct {
	drv  gpu.Driver
	ptr  gpu.DevicePtr
	word []byte
}

// NewLatch allocates a closed latch in pinned host memory. A context must be
// current.
func NewLatch(drv gpu.Driver) (*Latch, error) {
	ptr, err := drv.MemHostAlloc(4)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate release flag: %w", err)
	}
	word, err := drv.HostBytes(ptr, 4)
	if err != nil {
		_ = drv.MemHostFree(ptr)
		return nil, err
	}
	l := &Latch{drv: drv, ptr: ptr, word: word}
	l.Reset()
	return l, nil
}

// Ptr is the address spin kernels poll.
func (l *Latch) Ptr() gpu.DevicePtr {
	return l.ptr
}

// Reset closes the latch. Only call it when no spin kernel is pending.
func (l *Latch) Reset() {
	gpu.StoreFlag(l.word, 0)
}

// Release opens the latch for every waiting spin kernel.
func (l *Latch) Release() {
	gpu.StoreFlag(l.word, 1)
}

// Released reports whether the latch is open.
func (l *Latch) Released() bool {
	return gpu.LoadFlag(l.word) != 0
}

func (l *Latch) Close() error {
	return l.drv.MemHostFree(l.ptr)
}
