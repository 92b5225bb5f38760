//go:build cuda
// +build cuda

package gpu

/*
#cgo CFLAGS: -I${SRCDIR}/../../cuda
#cgo LDFLAGS: -L${SRCDIR}/../../cuda -lnvbw_kernels -lcuda -lcudart -lstdc++
#include <cuda.h>
#include <stdlib.h>
#include "kernels.h"
*/
import "C"
import (
	"errors"
	"fmt"
	"strconv"
	"unsafe"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"go.uber.org/zap"
)

var errNVMLUnavailable = errors.New("NVML is not available")

type cudaStream struct {
	stream C.CUstream
	ctx    Context
	device int
}

// CUDADriver implements Driver on the CUDA driver API. Handles returned to
// callers are keys into the driver's tables so that no C pointer round-trips
// through a Go integer.
type CUDADriver struct {
	log  *zap.Logger
	nvml bool

	lastHandle uintptr
	contexts   map[Context]C.CUcontext
	ctxHandles map[C.CUcontext]Context
	ctxDevice  map[Context]int
	streams    map[Stream]cudaStream
	events     map[Event]C.CUevent
	hostAllocs map[DevicePtr]unsafe.Pointer
}

// NewCUDADriver creates a CUDA driver. Init must be called before use.
func NewCUDADriver(log *zap.Logger) *CUDADriver {
	return &CUDADriver{
		log:        log.Named("cuda"),
		contexts:   make(map[Context]C.CUcontext),
		ctxHandles: make(map[C.CUcontext]Context),
		ctxDevice:  make(map[Context]int),
		streams:    make(map[Stream]cudaStream),
		events:     make(map[Event]C.CUevent),
		hostAllocs: make(map[DevicePtr]unsafe.Pointer),
	}
}

func cuCheck(call string, res C.CUresult) error {
	if res == C.CUDA_SUCCESS {
		return nil
	}
	var name *C.char
	if C.cuGetErrorName(res, &name) != C.CUDA_SUCCESS || name == nil {
		return &Error{Call: call, Code: int(res), Name: "CUDA_ERROR_UNKNOWN"}
	}
	return &Error{Call: call, Code: int(res), Name: C.GoString(name)}
}

func rtCheck(call string, res C.int) error {
	if res == 0 {
		return nil
	}
	return &Error{Call: call, Code: int(res), Name: C.GoString(C.nvbw_error_name(res))}
}

func (d *CUDADriver) nextHandle() uintptr {
	d.lastHandle++
	return d.lastHandle
}

func (d *CUDADriver) Name() string {
	return "cuda"
}

func (d *CUDADriver) Init() error {
	if err := cuCheck("cuInit", C.cuInit(0)); err != nil {
		return err
	}
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		d.log.Warn("NVML unavailable, CPU affinity and driver version are limited",
			zap.String("error", nvml.ErrorString(ret)))
	} else {
		d.nvml = true
	}
	return nil
}

func (d *CUDADriver) Close() error {
	if d.nvml {
		d.nvml = false
		if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
			return fmt.Errorf("nvml shutdown: %s", nvml.ErrorString(ret))
		}
	}
	return nil
}

func (d *CUDADriver) DeviceCount() (int, error) {
	var n C.int
	if err := cuCheck("cuDeviceGetCount", C.cuDeviceGetCount(&n)); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (d *CUDADriver) DeviceName(dev int) (string, error) {
	var buf [256]C.char
	if err := cuCheck("cuDeviceGetName", C.cuDeviceGetName(&buf[0], C.int(len(buf)), C.CUdevice(dev))); err != nil {
		return "", err
	}
	return C.GoString(&buf[0]), nil
}

func (d *CUDADriver) DeviceAttribute(dev int, attr Attribute) (int, error) {
	var cattr C.CUdevice_attribute
	switch attr {
	case AttrMultiprocessorCount:
		cattr = C.CU_DEVICE_ATTRIBUTE_MULTIPROCESSOR_COUNT
	case AttrClockRate:
		cattr = C.CU_DEVICE_ATTRIBUTE_CLOCK_RATE
	default:
		return 0, fmt.Errorf("unsupported device attribute %d", attr)
	}
	var v C.int
	if err := cuCheck("cuDeviceGetAttribute", C.cuDeviceGetAttribute(&v, cattr, C.CUdevice(dev))); err != nil {
		return 0, err
	}
	return int(v), nil
}

func (d *CUDADriver) RuntimeVersion() (string, error) {
	var v C.int
	if err := rtCheck("cudaRuntimeGetVersion", C.nvbw_runtime_version(&v)); err != nil {
		return "", err
	}
	return strconv.Itoa(int(v)), nil
}

func (d *CUDADriver) DriverVersion() (string, error) {
	var v C.int
	if err := cuCheck("cuDriverGetVersion", C.cuDriverGetVersion(&v)); err != nil {
		return "", err
	}
	return strconv.Itoa(int(v)), nil
}

func (d *CUDADriver) SystemDriverVersion() (string, error) {
	if !d.nvml {
		return "", errNVMLUnavailable
	}
	v, ret := nvml.SystemGetDriverVersion()
	if ret != nvml.SUCCESS {
		return "", fmt.Errorf("nvmlSystemGetDriverVersion: %s", nvml.ErrorString(ret))
	}
	return v, nil
}

func (d *CUDADriver) registerContext(ctx C.CUcontext, dev int) Context {
	if h, ok := d.ctxHandles[ctx]; ok {
		return h
	}
	h := Context(d.nextHandle())
	d.contexts[h] = ctx
	d.ctxHandles[ctx] = h
	d.ctxDevice[h] = dev
	return h
}

func (d *CUDADriver) context(call string, h Context) (C.CUcontext, error) {
	ctx, ok := d.contexts[h]
	if !ok {
		return nil, &Error{Call: call, Code: int(C.CUDA_ERROR_INVALID_CONTEXT), Name: "CUDA_ERROR_INVALID_CONTEXT"}
	}
	return ctx, nil
}

func (d *CUDADriver) PrimaryCtxRetain(dev int) (Context, error) {
	var ctx C.CUcontext
	if err := cuCheck("cuDevicePrimaryCtxRetain", C.cuDevicePrimaryCtxRetain(&ctx, C.CUdevice(dev))); err != nil {
		return 0, err
	}
	return d.registerContext(ctx, dev), nil
}

func (d *CUDADriver) PrimaryCtxRelease(dev int) error {
	return cuCheck("cuDevicePrimaryCtxRelease", C.cuDevicePrimaryCtxRelease(C.CUdevice(dev)))
}

func (d *CUDADriver) CtxCreate(dev int) (Context, error) {
	var ctx C.CUcontext
	if err := cuCheck("cuCtxCreate", C.cuCtxCreate(&ctx, 0, C.CUdevice(dev))); err != nil {
		return 0, err
	}
	return d.registerContext(ctx, dev), nil
}

func (d *CUDADriver) CtxDestroy(h Context) error {
	ctx, err := d.context("cuCtxDestroy", h)
	if err != nil {
		return err
	}
	if err := cuCheck("cuCtxDestroy", C.cuCtxDestroy(ctx)); err != nil {
		return err
	}
	delete(d.contexts, h)
	delete(d.ctxHandles, ctx)
	delete(d.ctxDevice, h)
	return nil
}

func (d *CUDADriver) CtxSetCurrent(h Context) error {
	if h == 0 {
		return cuCheck("cuCtxSetCurrent", C.cuCtxSetCurrent(nil))
	}
	ctx, err := d.context("cuCtxSetCurrent", h)
	if err != nil {
		return err
	}
	return cuCheck("cuCtxSetCurrent", C.cuCtxSetCurrent(ctx))
}

func (d *CUDADriver) CtxDevice() (int, error) {
	var dev C.CUdevice
	if err := cuCheck("cuCtxGetDevice", C.cuCtxGetDevice(&dev)); err != nil {
		return 0, err
	}
	return int(dev), nil
}

func (d *CUDADriver) CtxSynchronize() error {
	return cuCheck("cuCtxSynchronize", C.cuCtxSynchronize())
}

func (d *CUDADriver) MemAlloc(size uint64) (DevicePtr, error) {
	var ptr C.CUdeviceptr
	if err := cuCheck("cuMemAlloc", C.cuMemAlloc(&ptr, C.size_t(size))); err != nil {
		return 0, err
	}
	return DevicePtr(ptr), nil
}

func (d *CUDADriver) MemFree(ptr DevicePtr) error {
	return cuCheck("cuMemFree", C.cuMemFree(C.CUdeviceptr(ptr)))
}

func (d *CUDADriver) MemHostAlloc(size uint64) (DevicePtr, error) {
	var p unsafe.Pointer
	flags := C.uint(C.CU_MEMHOSTALLOC_PORTABLE | C.CU_MEMHOSTALLOC_DEVICEMAP)
	if err := cuCheck("cuMemHostAlloc", C.cuMemHostAlloc(&p, C.size_t(size), flags)); err != nil {
		return 0, err
	}
	var dptr C.CUdeviceptr
	if err := cuCheck("cuMemHostGetDevicePointer", C.cuMemHostGetDevicePointer(&dptr, p, 0)); err != nil {
		C.cuMemFreeHost(p)
		return 0, err
	}
	d.hostAllocs[DevicePtr(dptr)] = p
	return DevicePtr(dptr), nil
}

func (d *CUDADriver) MemHostFree(ptr DevicePtr) error {
	p, ok := d.hostAllocs[ptr]
	if !ok {
		return &Error{Call: "cuMemFreeHost", Code: int(C.CUDA_ERROR_INVALID_VALUE), Name: "CUDA_ERROR_INVALID_VALUE"}
	}
	delete(d.hostAllocs, ptr)
	return cuCheck("cuMemFreeHost", C.cuMemFreeHost(p))
}

func (d *CUDADriver) HostBytes(ptr DevicePtr, size uint64) ([]byte, error) {
	p, ok := d.hostAllocs[ptr]
	if !ok {
		return nil, fmt.Errorf("%#x is not a pinned host allocation", uintptr(ptr))
	}
	return unsafe.Slice((*byte)(p), size), nil
}

func (d *CUDADriver) Memcpy(dst, src DevicePtr, size uint64) error {
	return cuCheck("cuMemcpy", C.cuMemcpy(C.CUdeviceptr(dst), C.CUdeviceptr(src), C.size_t(size)))
}

func (d *CUDADriver) stream(call string, h Stream) (cudaStream, error) {
	s, ok := d.streams[h]
	if !ok {
		return cudaStream{}, &Error{Call: call, Code: int(C.CUDA_ERROR_INVALID_HANDLE), Name: "CUDA_ERROR_INVALID_HANDLE"}
	}
	return s, nil
}

func (d *CUDADriver) event(call string, h Event) (C.CUevent, error) {
	e, ok := d.events[h]
	if !ok {
		return nil, &Error{Call: call, Code: int(C.CUDA_ERROR_INVALID_HANDLE), Name: "CUDA_ERROR_INVALID_HANDLE"}
	}
	return e, nil
}

func (d *CUDADriver) MemcpyAsync(dst, src DevicePtr, size uint64, h Stream) error {
	s, err := d.stream("cuMemcpyAsync", h)
	if err != nil {
		return err
	}
	return cuCheck("cuMemcpyAsync", C.cuMemcpyAsync(C.CUdeviceptr(dst), C.CUdeviceptr(src), C.size_t(size), s.stream))
}

func (d *CUDADriver) currentHandle(call string) (Context, int, error) {
	var ctx C.CUcontext
	if err := cuCheck("cuCtxGetCurrent", C.cuCtxGetCurrent(&ctx)); err != nil {
		return 0, 0, err
	}
	h, ok := d.ctxHandles[ctx]
	if !ok {
		return 0, 0, &Error{Call: call, Code: int(C.CUDA_ERROR_INVALID_CONTEXT), Name: "CUDA_ERROR_INVALID_CONTEXT"}
	}
	return h, d.ctxDevice[h], nil
}

func (d *CUDADriver) StreamCreate() (Stream, error) {
	ctx, dev, err := d.currentHandle("cuStreamCreate")
	if err != nil {
		return 0, err
	}
	var s C.CUstream
	if err := cuCheck("cuStreamCreate", C.cuStreamCreate(&s, C.CU_STREAM_NON_BLOCKING)); err != nil {
		return 0, err
	}
	h := Stream(d.nextHandle())
	d.streams[h] = cudaStream{stream: s, ctx: ctx, device: dev}
	return h, nil
}

func (d *CUDADriver) StreamDestroy(h Stream) error {
	s, err := d.stream("cuStreamDestroy", h)
	if err != nil {
		return err
	}
	delete(d.streams, h)
	return cuCheck("cuStreamDestroy", C.cuStreamDestroy(s.stream))
}

func (d *CUDADriver) StreamSynchronize(h Stream) error {
	s, err := d.stream("cuStreamSynchronize", h)
	if err != nil {
		return err
	}
	return cuCheck("cuStreamSynchronize", C.cuStreamSynchronize(s.stream))
}

func (d *CUDADriver) StreamWaitEvent(h Stream, e Event) error {
	s, err := d.stream("cuStreamWaitEvent", h)
	if err != nil {
		return err
	}
	ev, err := d.event("cuStreamWaitEvent", e)
	if err != nil {
		return err
	}
	return cuCheck("cuStreamWaitEvent", C.cuStreamWaitEvent(s.stream, ev, 0))
}

func (d *CUDADriver) StreamDevice(h Stream) (int, error) {
	s, err := d.stream("cuStreamGetCtx", h)
	if err != nil {
		return 0, err
	}
	return s.device, nil
}

func (d *CUDADriver) EventCreate() (Event, error) {
	var e C.CUevent
	if err := cuCheck("cuEventCreate", C.cuEventCreate(&e, C.CU_EVENT_DEFAULT)); err != nil {
		return 0, err
	}
	h := Event(d.nextHandle())
	d.events[h] = e
	return h, nil
}

func (d *CUDADriver) EventDestroy(h Event) error {
	e, err := d.event("cuEventDestroy", h)
	if err != nil {
		return err
	}
	delete(d.events, h)
	return cuCheck("cuEventDestroy", C.cuEventDestroy(e))
}

func (d *CUDADriver) EventRecord(h Event, sh Stream) error {
	e, err := d.event("cuEventRecord", h)
	if err != nil {
		return err
	}
	s, err := d.stream("cuEventRecord", sh)
	if err != nil {
		return err
	}
	return cuCheck("cuEventRecord", C.cuEventRecord(e, s.stream))
}

func (d *CUDADriver) EventElapsedTime(start, end Event) (float32, error) {
	s, err := d.event("cuEventElapsedTime", start)
	if err != nil {
		return 0, err
	}
	e, err := d.event("cuEventElapsedTime", end)
	if err != nil {
		return 0, err
	}
	var ms C.float
	if err := cuCheck("cuEventElapsedTime", C.cuEventElapsedTime(&ms, s, e)); err != nil {
		return 0, err
	}
	return float32(ms), nil
}

func (d *CUDADriver) DeviceCanAccessPeer(dev, peer int) (bool, error) {
	var can C.int
	if err := cuCheck("cuDeviceCanAccessPeer", C.cuDeviceCanAccessPeer(&can, C.CUdevice(dev), C.CUdevice(peer))); err != nil {
		return false, err
	}
	return can != 0, nil
}

func (d *CUDADriver) CtxEnablePeerAccess(peer Context) error {
	ctx, err := d.context("cuCtxEnablePeerAccess", peer)
	if err != nil {
		return err
	}
	res := C.cuCtxEnablePeerAccess(ctx, 0)
	if res == C.CUDA_ERROR_PEER_ACCESS_ALREADY_ENABLED {
		return ErrPeerAccessAlreadyEnabled
	}
	return cuCheck("cuCtxEnablePeerAccess", res)
}

func (d *CUDADriver) LaunchCopy(launch CopyLaunch, dst, src DevicePtr, loops uint64, h Stream) error {
	s, err := d.stream("cuLaunchKernel", h)
	if err != nil {
		return err
	}
	switch launch.Kernel {
	case SimpleCopyKernel:
		return rtCheck("simple_copy_kernel", C.nvbw_launch_simple_copy(
			C.CUdeviceptr(dst), C.CUdeviceptr(src),
			C.ulonglong(launch.Elements), C.ulonglong(loops),
			C.uint(launch.Grid), C.uint(launch.Block), s.stream))
	case StridingCopyKernel:
		return rtCheck("striding_copy_kernel", C.nvbw_launch_striding_copy(
			C.CUdeviceptr(dst), C.CUdeviceptr(src),
			C.ulonglong(launch.ChunkElements), C.ulonglong(loops),
			C.uint(launch.TotalThreads),
			C.uint(launch.Grid), C.uint(launch.Block), s.stream))
	default:
		return fmt.Errorf("unknown copy kernel %s", launch.Kernel)
	}
}

func (d *CUDADriver) LaunchSpin(flag DevicePtr, timeoutClocks uint64, h Stream) error {
	s, err := d.stream("cuLaunchKernel", h)
	if err != nil {
		return err
	}
	return rtCheck("spin_kernel", C.nvbw_launch_spin(C.CUdeviceptr(flag), C.ulonglong(timeoutClocks), s.stream))
}

// PreloadKernels keeps the primary context of dev retained for the rest of
// the process so that the loaded module is never unloaded.
func (d *CUDADriver) PreloadKernels(dev int) error {
	ctx, err := d.PrimaryCtxRetain(dev)
	if err != nil {
		return err
	}
	if err := d.CtxSetCurrent(ctx); err != nil {
		return err
	}
	if err := rtCheck("cudaFuncGetAttributes", C.nvbw_preload()); err != nil {
		return err
	}
	return d.CtxSetCurrent(0)
}

func (d *CUDADriver) SetCPUAffinity(dev int) error {
	if !d.nvml {
		return nil
	}
	var buf [32]C.char
	if err := cuCheck("cuDeviceGetPCIBusId", C.cuDeviceGetPCIBusId(&buf[0], C.int(len(buf)), C.CUdevice(dev))); err != nil {
		return err
	}
	busID := C.GoString(&buf[0])
	device, ret := nvml.DeviceGetHandleByPciBusId(busID)
	if ret != nvml.SUCCESS {
		return fmt.Errorf("nvmlDeviceGetHandleByPciBusId(%s): %s", busID, nvml.ErrorString(ret))
	}
	if ret := device.SetCpuAffinity(); ret != nvml.SUCCESS {
		return fmt.Errorf("nvmlDeviceSetCpuAffinity(%s): %s", busID, nvml.ErrorString(ret))
	}
	return nil
}
