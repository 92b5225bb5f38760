package gpu

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// ElementSize is the width of one copy-kernel element (a uint4).
const ElementSize = 16

// DevicePtr is an address in the unified address space: device memory or
// pinned host memory.
type DevicePtr uintptr

// Context, Stream and Event are opaque driver handles. The zero Context
// means "no context".
type (
	Context uintptr
	Stream  uintptr
	Event   uintptr
)

// Attribute selects a device property.
type Attribute int

const (
	AttrMultiprocessorCount Attribute = iota
	// AttrClockRate is the core clock in kHz, i.e. clock cycles per ms.
	AttrClockRate
)

// CopyKernel selects one of the two copy kernels.
type CopyKernel int

const (
	// SimpleCopyKernel moves one element per thread.
	SimpleCopyKernel CopyKernel = iota
	// StridingCopyKernel runs one block per multiprocessor and walks
	// interleaved element streams, 12 elements at a time.
	StridingCopyKernel
)

func (k CopyKernel) String() string {
	switch k {
	case SimpleCopyKernel:
		return "simple"
	case StridingCopyKernel:
		return "striding"
	default:
		return fmt.Sprintf("CopyKernel(%d)", int(k))
	}
}

// CopyLaunch is the launch geometry of a copy kernel.
type CopyLaunch struct {
	Kernel CopyKernel
	Grid   uint32
	Block  uint32
	// Elements is the number of 16-byte elements the launch moves.
	Elements uint64
	// TotalThreads and ChunkElements are only used by the striding kernel:
	// every thread owns ChunkElements elements spaced TotalThreads apart.
	TotalThreads  uint32
	ChunkElements uint64
}

// Bytes is the number of bytes one iteration of the launch moves.
func (l CopyLaunch) Bytes() uint64 {
	return l.Elements * ElementSize
}

// Driver is the accelerator API used by the bandwidth engine.
//
// Implementations are driven from a single OS thread. Calls that touch
// memory or streams act on the current context, which callers select with
// CtxSetCurrent.
type Driver interface {
	// Name identifies the implementation ("cuda", "sim").
	Name() string
	Init() error
	Close() error

	DeviceCount() (int, error)
	DeviceName(dev int) (string, error)
	DeviceAttribute(dev int, attr Attribute) (int, error)
	// RuntimeVersion is the version of the runtime the kernels were built
	// against and DriverVersion the version of the driver API.
	RuntimeVersion() (string, error)
	DriverVersion() (string, error)
	// SystemDriverVersion is the installed kernel driver release.
	SystemDriverVersion() (string, error)

	PrimaryCtxRetain(dev int) (Context, error)
	PrimaryCtxRelease(dev int) error
	CtxCreate(dev int) (Context, error)
	CtxDestroy(ctx Context) error
	CtxSetCurrent(ctx Context) error
	CtxDevice() (int, error)
	CtxSynchronize() error

	MemAlloc(size uint64) (DevicePtr, error)
	MemFree(ptr DevicePtr) error
	// MemHostAlloc allocates pinned host memory that every context can
	// access.
	MemHostAlloc(size uint64) (DevicePtr, error)
	MemHostFree(ptr DevicePtr) error
	// HostBytes views a pinned host allocation returned by MemHostAlloc.
	HostBytes(ptr DevicePtr, size uint64) ([]byte, error)
	Memcpy(dst, src DevicePtr, size uint64) error
	MemcpyAsync(dst, src DevicePtr, size uint64, stream Stream) error

	// StreamCreate creates a non-blocking stream in the current context.
	StreamCreate() (Stream, error)
	StreamDestroy(stream Stream) error
	StreamSynchronize(stream Stream) error
	StreamWaitEvent(stream Stream, event Event) error
	StreamDevice(stream Stream) (int, error)

	EventCreate() (Event, error)
	EventDestroy(event Event) error
	EventRecord(event Event, stream Stream) error
	// EventElapsedTime returns the time between two completed events in
	// milliseconds.
	EventElapsedTime(start, end Event) (float32, error)

	DeviceCanAccessPeer(dev, peer int) (bool, error)
	// CtxEnablePeerAccess lets the current context access peer's memory.
	// It returns ErrPeerAccessAlreadyEnabled when that is already the case.
	CtxEnablePeerAccess(peer Context) error

	LaunchCopy(launch CopyLaunch, dst, src DevicePtr, loops uint64, stream Stream) error
	// LaunchSpin occupies the stream until the 32-bit word at flag becomes
	// non-zero or timeoutClocks device clocks have elapsed.
	LaunchSpin(flag DevicePtr, timeoutClocks uint64, stream Stream) error
	// PreloadKernels resolves every kernel on dev so that no lazy loading
	// happens once a test has set up cross-device dependencies.
	PreloadKernels(dev int) error

	// SetCPUAffinity moves the calling thread to the CPUs closest to dev.
	SetCPUAffinity(dev int) error
}

// Error is an unexpected return from an accelerator API call.
type Error struct {
	Call string
	Code int
	Name string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %s (%d)", e.Call, e.Name, e.Code)
}

// ErrPeerAccessAlreadyEnabled is returned by CtxEnablePeerAccess when the
// mapping exists already.
var ErrPeerAccessAlreadyEnabled = errors.New("peer access already enabled")

// IsDriverError reports whether err carries an accelerator API failure.
func IsDriverError(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr)
}

// LoadFlag and StoreFlag access a 32-bit host-mapped synchronization word.
// The host is the only writer; spin kernels are the readers.
func LoadFlag(b []byte) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&b[0])))
}

func StoreFlag(b []byte, v uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&b[0])), v)
}
