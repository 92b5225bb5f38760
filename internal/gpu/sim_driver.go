package gpu

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/fxnlabs/nvbandwidth/internal/affinity"
	"github.com/fxnlabs/nvbandwidth/internal/config"
	"github.com/sarchlab/akita/v4/sim"
	"go.uber.org/zap"
)

// Driver API result codes reproduced by the simulated driver.
const (
	codeInvalidValue          = 1
	codeNotInitialized        = 3
	codeInvalidDevice         = 101
	codeInvalidContext        = 201
	codePeerAccessUnsupported = 217
	codeInvalidHandle         = 400
	codeIllegalState          = 401
	codeNotReady              = 600
)

var simCodeNames = map[int]string{
	codeInvalidValue:          "CUDA_ERROR_INVALID_VALUE",
	codeNotInitialized:        "CUDA_ERROR_NOT_INITIALIZED",
	codeInvalidDevice:         "CUDA_ERROR_INVALID_DEVICE",
	codeInvalidContext:        "CUDA_ERROR_INVALID_CONTEXT",
	codePeerAccessUnsupported: "CUDA_ERROR_PEER_ACCESS_UNSUPPORTED",
	codeInvalidHandle:         "CUDA_ERROR_INVALID_HANDLE",
	codeIllegalState:          "CUDA_ERROR_ILLEGAL_STATE",
	codeNotReady:              "CUDA_ERROR_NOT_READY",
}

const simVersion = "simulated"

func simError(call string, code int) error {
	return &Error{Call: call, Code: code, Name: simCodeNames[code]}
}

// SimStats counts what the simulated devices have done.
type SimStats struct {
	SyncCopies   int
	AsyncCopies  int
	KernelCopies int
	SpinKernels  int
	SpinTimeouts int
	BytesCopied  uint64
}

type simContext struct {
	handle  Context
	device  int
	primary bool
	refs    int
	peers   map[int]bool
}

// SimDriver models a machine with the devices described by
// config.SimulationConfig. Device memory is real host memory, so copies move
// real bytes, while time is virtual: every stream is an akita handler and
// each queued operation advances the stream by the time the modelled link
// needs for it. The engine only runs when the host blocks.
type SimDriver struct {
	topo   config.SimulationConfig
	log    *zap.Logger
	engine *sim.SerialEngine

	initialized bool
	mem         simMemory
	contexts    map[Context]*simContext
	primary     map[int]Context
	current     Context
	streams     map[Stream]*simStream
	events      map[Event]*simEvent
	lastHandle  uintptr
	preloaded   map[int]bool
	stats       SimStats
}

// NewSimDriver creates a simulated driver for topo.
func NewSimDriver(topo config.SimulationConfig, log *zap.Logger) *SimDriver {
	return &SimDriver{
		topo:      topo,
		log:       log.Named("sim"),
		engine:    sim.NewSerialEngine(),
		contexts:  make(map[Context]*simContext),
		primary:   make(map[int]Context),
		streams:   make(map[Stream]*simStream),
		events:    make(map[Event]*simEvent),
		preloaded: make(map[int]bool),
	}
}

func (d *SimDriver) Name() string {
	return config.BackendSim
}

func (d *SimDriver) Init() error {
	d.initialized = true
	d.log.Debug("simulated driver initialized",
		zap.Int("devices", d.topo.DeviceCount),
		zap.Int("sms", d.topo.MultiprocessorCount))
	return nil
}

func (d *SimDriver) Close() error {
	d.initialized = false
	return nil
}

// Stats returns the activity counters.
func (d *SimDriver) Stats() SimStats {
	return d.stats
}

// Now is the virtual time of the last processed device operation.
func (d *SimDriver) Now() time.Duration {
	return time.Duration(float64(d.engine.CurrentTime()) * float64(time.Second))
}

// Preloaded reports whether PreloadKernels ran for dev.
func (d *SimDriver) Preloaded(dev int) bool {
	return d.preloaded[dev]
}

func (d *SimDriver) nextHandle() uintptr {
	d.lastHandle++
	return d.lastHandle
}

func (d *SimDriver) checkInit(call string) error {
	if !d.initialized {
		return simError(call, codeNotInitialized)
	}
	return nil
}

func (d *SimDriver) checkDevice(call string, dev int) error {
	if err := d.checkInit(call); err != nil {
		return err
	}
	if dev < 0 || dev >= d.topo.DeviceCount {
		return simError(call, codeInvalidDevice)
	}
	return nil
}

func (d *SimDriver) currentContext(call string) (*simContext, error) {
	if err := d.checkInit(call); err != nil {
		return nil, err
	}
	ctx, ok := d.contexts[d.current]
	if !ok {
		return nil, simError(call, codeInvalidContext)
	}
	return ctx, nil
}

func (d *SimDriver) DeviceCount() (int, error) {
	if err := d.checkInit("cuDeviceGetCount"); err != nil {
		return 0, err
	}
	return d.topo.DeviceCount, nil
}

func (d *SimDriver) DeviceName(dev int) (string, error) {
	if err := d.checkDevice("cuDeviceGetName", dev); err != nil {
		return "", err
	}
	return d.topo.DeviceName, nil
}

func (d *SimDriver) DeviceAttribute(dev int, attr Attribute) (int, error) {
	if err := d.checkDevice("cuDeviceGetAttribute", dev); err != nil {
		return 0, err
	}
	switch attr {
	case AttrMultiprocessorCount:
		return d.topo.MultiprocessorCount, nil
	case AttrClockRate:
		return d.topo.ClockRateKHz, nil
	default:
		return 0, simError("cuDeviceGetAttribute", codeInvalidValue)
	}
}

func (d *SimDriver) RuntimeVersion() (string, error) {
	if err := d.checkInit("cudaRuntimeGetVersion"); err != nil {
		return "", err
	}
	return simVersion, nil
}

func (d *SimDriver) DriverVersion() (string, error) {
	if err := d.checkInit("cuDriverGetVersion"); err != nil {
		return "", err
	}
	return simVersion, nil
}

func (d *SimDriver) SystemDriverVersion() (string, error) {
	if err := d.checkInit("nvmlSystemGetDriverVersion"); err != nil {
		return "", err
	}
	return simVersion, nil
}

func (d *SimDriver) PrimaryCtxRetain(dev int) (Context, error) {
	if err := d.checkDevice("cuDevicePrimaryCtxRetain", dev); err != nil {
		return 0, err
	}
	if h, ok := d.primary[dev]; ok {
		d.contexts[h].refs++
		return h, nil
	}
	h := Context(d.nextHandle())
	d.contexts[h] = &simContext{handle: h, device: dev, primary: true, refs: 1, peers: map[int]bool{}}
	d.primary[dev] = h
	return h, nil
}

func (d *SimDriver) PrimaryCtxRelease(dev int) error {
	if err := d.checkDevice("cuDevicePrimaryCtxRelease", dev); err != nil {
		return err
	}
	h, ok := d.primary[dev]
	if !ok || d.contexts[h].refs == 0 {
		return simError("cuDevicePrimaryCtxRelease", codeInvalidContext)
	}
	ctx := d.contexts[h]
	ctx.refs--
	if ctx.refs == 0 {
		// an inactive primary context loses its peer mappings
		ctx.peers = map[int]bool{}
	}
	return nil
}

func (d *SimDriver) CtxCreate(dev int) (Context, error) {
	if err := d.checkDevice("cuCtxCreate", dev); err != nil {
		return 0, err
	}
	h := Context(d.nextHandle())
	d.contexts[h] = &simContext{handle: h, device: dev, refs: 1, peers: map[int]bool{}}
	d.current = h
	return h, nil
}

func (d *SimDriver) CtxDestroy(h Context) error {
	if err := d.checkInit("cuCtxDestroy"); err != nil {
		return err
	}
	ctx, ok := d.contexts[h]
	if !ok || ctx.primary {
		return simError("cuCtxDestroy", codeInvalidContext)
	}
	delete(d.contexts, h)
	if d.current == h {
		d.current = 0
	}
	return nil
}

func (d *SimDriver) CtxSetCurrent(h Context) error {
	if err := d.checkInit("cuCtxSetCurrent"); err != nil {
		return err
	}
	if h != 0 {
		if _, ok := d.contexts[h]; !ok {
			return simError("cuCtxSetCurrent", codeInvalidContext)
		}
	}
	d.current = h
	return nil
}

func (d *SimDriver) CtxDevice() (int, error) {
	ctx, err := d.currentContext("cuCtxGetDevice")
	if err != nil {
		return 0, err
	}
	return ctx.device, nil
}

func (d *SimDriver) CtxSynchronize() error {
	ctx, err := d.currentContext("cuCtxSynchronize")
	if err != nil {
		return err
	}
	if err := d.runEngine(); err != nil {
		return err
	}
	for _, s := range d.sortedStreams() {
		if s.device == ctx.device && !s.idle() {
			return simError("cuCtxSynchronize", codeIllegalState)
		}
	}
	return nil
}

func (d *SimDriver) MemAlloc(size uint64) (DevicePtr, error) {
	ctx, err := d.currentContext("cuMemAlloc")
	if err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, simError("cuMemAlloc", codeInvalidValue)
	}
	return d.mem.alloc(size, ctx.device), nil
}

func (d *SimDriver) MemFree(ptr DevicePtr) error {
	if _, err := d.currentContext("cuMemFree"); err != nil {
		return err
	}
	if !d.mem.free(ptr, false) {
		return simError("cuMemFree", codeInvalidValue)
	}
	return nil
}

func (d *SimDriver) MemHostAlloc(size uint64) (DevicePtr, error) {
	if _, err := d.currentContext("cuMemHostAlloc"); err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, simError("cuMemHostAlloc", codeInvalidValue)
	}
	return d.mem.alloc(size, hostDevice), nil
}

func (d *SimDriver) MemHostFree(ptr DevicePtr) error {
	if err := d.checkInit("cuMemFreeHost"); err != nil {
		return err
	}
	if !d.mem.free(ptr, true) {
		return simError("cuMemFreeHost", codeInvalidValue)
	}
	return nil
}

func (d *SimDriver) HostBytes(ptr DevicePtr, size uint64) ([]byte, error) {
	a, b, ok := d.mem.slice(ptr, size)
	if !ok || a.device != hostDevice {
		return nil, fmt.Errorf("%#x is not a pinned host allocation of %d bytes", uintptr(ptr), size)
	}
	return b, nil
}

func (d *SimDriver) resolveCopy(call string, dst, src DevicePtr, size uint64) (*simAlloc, []byte, *simAlloc, []byte, error) {
	da, db, ok := d.mem.slice(dst, size)
	if !ok {
		return nil, nil, nil, nil, simError(call, codeInvalidValue)
	}
	sa, sb, ok := d.mem.slice(src, size)
	if !ok {
		return nil, nil, nil, nil, simError(call, codeInvalidValue)
	}
	return da, db, sa, sb, nil
}

// linkBandwidth is the modelled rate in bytes per second between two
// allocations.
func (d *SimDriver) linkBandwidth(dst, src *simAlloc) float64 {
	var gbps float64
	switch {
	case src.device == hostDevice && dst.device == hostDevice:
		gbps = d.topo.HostGBps
	case src.device == hostDevice:
		gbps = d.topo.HostToDeviceGBps
	case dst.device == hostDevice:
		gbps = d.topo.DeviceToHostGBps
	case src.device == dst.device:
		gbps = d.topo.LocalGBps
	default:
		gbps = d.topo.PeerGBps
	}
	return gbps * 1e9
}

func (d *SimDriver) copyDuration(bytes, loops uint64, bandwidth float64) sim.VTimeInSec {
	t := float64(bytes) * float64(loops) / bandwidth
	return sim.VTimeInSec(t + d.topo.LaunchLatency.Seconds())
}

func (d *SimDriver) Memcpy(dst, src DevicePtr, size uint64) error {
	if _, err := d.currentContext("cuMemcpy"); err != nil {
		return err
	}
	_, db, _, sb, err := d.resolveCopy("cuMemcpy", dst, src, size)
	if err != nil {
		return err
	}
	copy(db, sb)
	d.stats.SyncCopies++
	d.stats.BytesCopied += size
	return nil
}

func (d *SimDriver) stream(call string, h Stream) (*simStream, error) {
	if err := d.checkInit(call); err != nil {
		return nil, err
	}
	s, ok := d.streams[h]
	if !ok {
		return nil, simError(call, codeInvalidHandle)
	}
	return s, nil
}

func (d *SimDriver) MemcpyAsync(dst, src DevicePtr, size uint64, h Stream) error {
	s, err := d.stream("cuMemcpyAsync", h)
	if err != nil {
		return err
	}
	da, db, sa, sb, err := d.resolveCopy("cuMemcpyAsync", dst, src, size)
	if err != nil {
		return err
	}
	d.stats.AsyncCopies++
	s.enqueue(&copyOp{
		drv:      d,
		dst:      db,
		src:      sb,
		duration: d.copyDuration(size, 1, d.linkBandwidth(da, sa)),
	})
	return nil
}

func (d *SimDriver) StreamCreate() (Stream, error) {
	ctx, err := d.currentContext("cuStreamCreate")
	if err != nil {
		return 0, err
	}
	h := Stream(d.nextHandle())
	d.streams[h] = &simStream{drv: d, handle: h, ctx: ctx.handle, device: ctx.device}
	return h, nil
}

func (d *SimDriver) StreamDestroy(h Stream) error {
	if _, err := d.stream("cuStreamDestroy", h); err != nil {
		return err
	}
	delete(d.streams, h)
	return nil
}

func (d *SimDriver) StreamSynchronize(h Stream) error {
	s, err := d.stream("cuStreamSynchronize", h)
	if err != nil {
		return err
	}
	if err := d.runEngine(); err != nil {
		return err
	}
	if !s.idle() {
		return simError("cuStreamSynchronize", codeIllegalState)
	}
	return nil
}

func (d *SimDriver) StreamWaitEvent(h Stream, e Event) error {
	s, err := d.stream("cuStreamWaitEvent", h)
	if err != nil {
		return err
	}
	ev, ok := d.events[e]
	if !ok {
		return simError("cuStreamWaitEvent", codeInvalidHandle)
	}
	s.enqueue(&waitOp{ev: ev, gen: ev.enqueued})
	return nil
}

func (d *SimDriver) StreamDevice(h Stream) (int, error) {
	s, err := d.stream("cuStreamGetCtx", h)
	if err != nil {
		return 0, err
	}
	return s.device, nil
}

func (d *SimDriver) EventCreate() (Event, error) {
	ctx, err := d.currentContext("cuEventCreate")
	if err != nil {
		return 0, err
	}
	h := Event(d.nextHandle())
	d.events[h] = &simEvent{handle: h, ctx: ctx.handle}
	return h, nil
}

func (d *SimDriver) EventDestroy(e Event) error {
	if err := d.checkInit("cuEventDestroy"); err != nil {
		return err
	}
	if _, ok := d.events[e]; !ok {
		return simError("cuEventDestroy", codeInvalidHandle)
	}
	delete(d.events, e)
	return nil
}

func (d *SimDriver) EventRecord(e Event, h Stream) error {
	s, err := d.stream("cuEventRecord", h)
	if err != nil {
		return err
	}
	ev, ok := d.events[e]
	if !ok || ev.ctx != s.ctx {
		return simError("cuEventRecord", codeInvalidHandle)
	}
	ev.enqueued++
	s.enqueue(&recordOp{drv: d, ev: ev, gen: ev.enqueued})
	return nil
}

func (d *SimDriver) EventElapsedTime(start, end Event) (float32, error) {
	if err := d.checkInit("cuEventElapsedTime"); err != nil {
		return 0, err
	}
	s, ok1 := d.events[start]
	e, ok2 := d.events[end]
	if !ok1 || !ok2 || s.enqueued == 0 || e.enqueued == 0 {
		return 0, simError("cuEventElapsedTime", codeInvalidHandle)
	}
	if s.completed < s.enqueued || e.completed < e.enqueued {
		return 0, simError("cuEventElapsedTime", codeNotReady)
	}
	return float32(float64(e.time-s.time) * 1e3), nil
}

func (d *SimDriver) DeviceCanAccessPeer(dev, peer int) (bool, error) {
	if err := d.checkDevice("cuDeviceCanAccessPeer", dev); err != nil {
		return false, err
	}
	if err := d.checkDevice("cuDeviceCanAccessPeer", peer); err != nil {
		return false, err
	}
	return d.topo.PeerAccess && dev != peer, nil
}

func (d *SimDriver) CtxEnablePeerAccess(peer Context) error {
	ctx, err := d.currentContext("cuCtxEnablePeerAccess")
	if err != nil {
		return err
	}
	p, ok := d.contexts[peer]
	if !ok {
		return simError("cuCtxEnablePeerAccess", codeInvalidContext)
	}
	if p.device == ctx.device {
		return simError("cuCtxEnablePeerAccess", codeInvalidDevice)
	}
	if !d.topo.PeerAccess {
		return simError("cuCtxEnablePeerAccess", codePeerAccessUnsupported)
	}
	if ctx.peers[p.device] {
		return ErrPeerAccessAlreadyEnabled
	}
	ctx.peers[p.device] = true
	return nil
}

// launchStream returns the stream a kernel is launched on. Kernels run in the
// current context, which must own the stream.
func (d *SimDriver) launchStream(call string, h Stream) (*simStream, error) {
	ctx, err := d.currentContext(call)
	if err != nil {
		return nil, err
	}
	s, err := d.stream(call, h)
	if err != nil {
		return nil, err
	}
	if s.ctx != ctx.handle {
		return nil, simError(call, codeInvalidHandle)
	}
	if !d.preloaded[s.device] {
		d.log.Warn("kernel loaded lazily", zap.Int("device", s.device))
		d.preloaded[s.device] = true
	}
	return s, nil
}

func (d *SimDriver) LaunchCopy(launch CopyLaunch, dst, src DevicePtr, loops uint64, h Stream) error {
	s, err := d.launchStream("cuLaunchKernel", h)
	if err != nil {
		return err
	}
	if launch.Grid == 0 || launch.Block == 0 {
		return simError("cuLaunchKernel", codeInvalidValue)
	}
	da, db, sa, sb, err := d.resolveCopy("cuLaunchKernel", dst, src, launch.Bytes())
	if err != nil {
		return err
	}
	d.stats.KernelCopies++
	bw := d.linkBandwidth(da, sa) * d.topo.SMEfficiency
	s.enqueue(&copyOp{
		drv:      d,
		dst:      db,
		src:      sb,
		duration: d.copyDuration(launch.Bytes(), loops, bw),
	})
	return nil
}

func (d *SimDriver) LaunchSpin(flag DevicePtr, timeoutClocks uint64, h Stream) error {
	s, err := d.launchStream("cuLaunchKernel", h)
	if err != nil {
		return err
	}
	b, err := d.HostBytes(flag, 4)
	if err != nil {
		return simError("cuLaunchKernel", codeInvalidValue)
	}
	d.stats.SpinKernels++
	op := &spinOp{drv: d, flag: b, bounded: timeoutClocks != ^uint64(0)}
	if op.bounded {
		op.timeout = sim.VTimeInSec(float64(timeoutClocks) / (float64(d.topo.ClockRateKHz) * 1e3))
	}
	s.enqueue(op)
	return nil
}

func (d *SimDriver) PreloadKernels(dev int) error {
	if err := d.checkDevice("cuFuncGetAttributes", dev); err != nil {
		return err
	}
	d.preloaded[dev] = true
	return nil
}

func (d *SimDriver) SetCPUAffinity(dev int) error {
	if err := d.checkDevice("nvmlDeviceSetCpuAffinity", dev); err != nil {
		return err
	}
	if len(d.topo.NUMANodes) == 0 {
		return nil
	}
	node := d.topo.NUMANodes[dev]
	err := affinity.SetNUMANode(node)
	if errors.Is(err, fs.ErrNotExist) {
		// the simulated topology may name nodes this host does not have
		d.log.Debug("NUMA node not present on host", zap.Int("device", dev), zap.Int("node", node))
		return nil
	}
	return err
}

func (d *SimDriver) wake(s *simStream, at sim.VTimeInSec) {
	d.engine.Schedule(&streamEvent{EventBase: sim.NewEventBase(at, s)})
}

func (d *SimDriver) sortedStreams() []*simStream {
	streams := make([]*simStream, 0, len(d.streams))
	for _, s := range d.streams {
		streams = append(streams, s)
	}
	sort.Slice(streams, func(i, j int) bool {
		return streams[i].handle < streams[j].handle
	})
	return streams
}

// runEngine lets the devices run until no stream can make progress. Parked
// streams are woken first so that spin kernels observe flag writes made by
// the host since the last run.
func (d *SimDriver) runEngine() error {
	now := d.engine.CurrentTime()
	for _, s := range d.sortedStreams() {
		if !s.busy && !s.idle() {
			d.wake(s, now)
		}
	}
	return d.engine.Run()
}
