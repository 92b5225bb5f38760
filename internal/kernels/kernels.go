// Package kernels plans and launches the device kernels of a bandwidth run:
// the two copy kernels and the spin kernel that holds every stream at a
// common start line.
package kernels

import (
	"fmt"
	"math"

	"github.com/fxnlabs/nvbandwidth/internal/gpu"
)

const (
	// ThreadsPerBlock is the block size of the striding copy kernel.
	ThreadsPerBlock = 512
	// MaxSimpleBlock is the largest block the simple copy kernel uses.
	MaxSimpleBlock = 1024
	// NoTimeout disables the spin kernel's clock bound.
	NoTimeout = math.MaxUint64
)

// Plan returns the launch that copies size bytes on a device with smCount
// multiprocessors. Sizes below threshold use the simple kernel, which moves
// every whole element. Larger sizes use the striding kernel, which moves the
// largest multiple of smCount*ThreadsPerBlock elements that fits.
func Plan(size uint64, smCount int, threshold uint64) gpu.CopyLaunch {
	elements := size / gpu.ElementSize

	if size < threshold {
		launch := gpu.CopyLaunch{Kernel: gpu.SimpleCopyKernel, Elements: elements}
		if elements == 0 {
			return launch
		}
		block := uint64(MaxSimpleBlock)
		if elements < block {
			block = elements
		}
		launch.Block = uint32(block)
		launch.Grid = uint32((elements + block - 1) / block)
		return launch
	}

	totalThreads := uint64(smCount) * ThreadsPerBlock
	launch := gpu.CopyLaunch{
		Kernel:       gpu.StridingCopyKernel,
		Grid:         uint32(smCount),
		Block:        ThreadsPerBlock,
		TotalThreads: uint32(totalThreads),
	}
	if totalThreads == 0 {
		return launch
	}
	launch.ChunkElements = elements / totalThreads
	launch.Elements = launch.ChunkElements * totalThreads
	return launch
}

// AdjustedSize is the number of bytes Plan's launch actually moves.
func AdjustedSize(size uint64, smCount int, threshold uint64) uint64 {
	return Plan(size, smCount, threshold).Bytes()
}

// Copy launches the copy kernel for size bytes from src to dst on stream,
// repeated loops times, and returns the bytes moved per iteration. The
// stream's context must be current.
func Copy(drv gpu.Driver, dst, src gpu.DevicePtr, stream gpu.Stream, size, loops, threshold uint64) (uint64, error) {
	dev, err := drv.StreamDevice(stream)
	if err != nil {
		return 0, err
	}
	sms, err := drv.DeviceAttribute(dev, gpu.AttrMultiprocessorCount)
	if err != nil {
		return 0, err
	}

	launch := Plan(size, sms, threshold)
	if launch.Elements == 0 {
		return 0, nil
	}
	if err := drv.LaunchCopy(launch, dst, src, loops, stream); err != nil {
		return 0, fmt.Errorf("failed to launch %s copy of %d bytes: %w", launch.Kernel, launch.Bytes(), err)
	}
	return launch.Bytes(), nil
}

// SpinTimeoutClocks converts a timeout in milliseconds into device clocks.
// A zero timeout, or one that does not fit, disables the bound.
func SpinTimeoutClocks(clockRateKHz int, timeoutMs uint64) uint64 {
	if timeoutMs == 0 || clockRateKHz <= 0 {
		return NoTimeout
	}
	rate := uint64(clockRateKHz)
	if timeoutMs > math.MaxUint64/rate {
		return NoTimeout
	}
	return rate * timeoutMs
}

// Spin launches the spin kernel on stream. It holds the stream until the
// word at flag becomes non-zero or timeoutMs elapses.
func Spin(drv gpu.Driver, flag gpu.DevicePtr, stream gpu.Stream, timeoutMs uint64) error {
	dev, err := drv.StreamDevice(stream)
	if err != nil {
		return err
	}
	clock, err := drv.DeviceAttribute(dev, gpu.AttrClockRate)
	if err != nil {
		return err
	}
	return drv.LaunchSpin(flag, SpinTimeoutClocks(clock, timeoutMs), stream)
}

// Preload resolves every kernel on every device so that no module loading
// happens while a test has streams waiting on each other.
func Preload(drv gpu.Driver, deviceCount int) error {
	for dev := 0; dev < deviceCount; dev++ {
		if err := drv.PreloadKernels(dev); err != nil {
			return fmt.Errorf("failed to preload kernels on device %d: %w", dev, err)
		}
	}
	return nil
}
