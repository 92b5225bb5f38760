// Package memcpy runs timed, synchronized copies between memory nodes and
// turns them into bandwidth figures.
package memcpy

import (
	"fmt"

	"github.com/fxnlabs/nvbandwidth/internal/gpu"
	"github.com/fxnlabs/nvbandwidth/internal/kernels"
)

// Kind is the copy engine a strategy drives.
type Kind int

const (
	// CE copies with the DMA copy engines.
	CE Kind = iota
	// SM copies with a kernel running on the multiprocessors.
	SM
)

func (k Kind) String() string {
	switch k {
	case CE:
		return "ce"
	case SM:
		return "sm"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Strategy issues the copies of one link.
type Strategy interface {
	Kind() Kind
	// AdjustedSize is the number of bytes Copy really moves for a buffer of
	// size bytes on stream.
	AdjustedSize(size uint64, stream gpu.Stream) (uint64, error)
	// Copy enqueues loops copies of size bytes on stream and returns the
	// bytes moved per copy.
	Copy(dst, src gpu.DevicePtr, stream gpu.Stream, size, loops uint64) (uint64, error)
}

// CopyEngine copies with asynchronous memcpy calls.
type CopyEngine struct {
	drv gpu.Driver
}

func NewCopyEngine(drv gpu.Driver) *CopyEngine {
	return &CopyEngine{drv: drv}
}

func (c *CopyEngine) Kind() Kind {
	return CE
}

// AdjustedSize returns size: the copy engines move any length.
func (c *CopyEngine) AdjustedSize(size uint64, _ gpu.Stream) (uint64, error) {
	return size, nil
}

func (c *CopyEngine) Copy(dst, src gpu.DevicePtr, stream gpu.Stream, size, loops uint64) (uint64, error) {
	for l := uint64(0); l < loops; l++ {
		if err := c.drv.MemcpyAsync(dst, src, size, stream); err != nil {
			return 0, err
		}
	}
	return size, nil
}

// Kernel copies with the copy kernels.
type Kernel struct {
	drv       gpu.Driver
	threshold uint64
}

// NewKernel returns a kernel strategy that switches to the striding kernel
// for buffers of at least threshold bytes.
func NewKernel(drv gpu.Driver, threshold uint64) *Kernel {
	return &Kernel{drv: drv, threshold: threshold}
}

func (k *Kernel) Kind() Kind {
	return SM
}

func (k *Kernel) AdjustedSize(size uint64, stream gpu.Stream) (uint64, error) {
	dev, err := k.drv.StreamDevice(stream)
	if err != nil {
		return 0, err
	}
	sms, err := k.drv.DeviceAttribute(dev, gpu.AttrMultiprocessorCount)
	if err != nil {
		return 0, err
	}
	return kernels.AdjustedSize(size, sms, k.threshold), nil
}

func (k *Kernel) Copy(dst, src gpu.DevicePtr, stream gpu.Stream, size, loops uint64) (uint64, error) {
	return kernels.Copy(k.drv, dst, src, stream, size, loops, k.threshold)
}

// NewStrategy returns the strategy for kind.
func NewStrategy(kind Kind, drv gpu.Driver, threshold uint64) (Strategy, error) {
	switch kind {
	case CE:
		return NewCopyEngine(drv), nil
	case SM:
		return NewKernel(drv, threshold), nil
	default:
		return nil, fmt.Errorf("unknown copy kind %s", kind)
	}
}
