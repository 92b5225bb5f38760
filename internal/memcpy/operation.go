package memcpy

import (
	"errors"
	"fmt"

	"github.com/fxnlabs/nvbandwidth/internal/config"
	"github.com/fxnlabs/nvbandwidth/internal/gpu"
	"github.com/fxnlabs/nvbandwidth/internal/kernels"
	"github.com/fxnlabs/nvbandwidth/internal/memnode"
	"github.com/fxnlabs/nvbandwidth/internal/metrics"
	"github.com/fxnlabs/nvbandwidth/internal/stats"
	"go.uber.org/zap"
)

const (
	// WarmupCount is the number of untimed copies issued before each sample.
	WarmupCount = 4

	// DstSeed marks destination buffers before a copy and SrcSeed the data
	// that must arrive there.
	DstSeed uint32 = 0xCAFEBABE
	SrcSeed uint32 = 0xBAADF00D
)

// ContextPreference selects which node's context drives a link.
type ContextPreference int

const (
	PreferSrcContext ContextPreference = iota
	PreferDstContext
)

// BandwidthValue selects how the links of one run are reported.
type BandwidthValue int

const (
	// UseFirstBW reports the first link only; the others are load.
	UseFirstBW BandwidthValue = iota
	// SumBW reports the sum of the per-link bandwidths.
	SumBW
	// TotalBW reports all bytes moved over the time from the first start
	// to the last completion.
	TotalBW
)

func (b BandwidthValue) String() string {
	switch b {
	case UseFirstBW:
		return "first"
	case SumBW:
		return "sum"
	case TotalBW:
		return "total"
	default:
		return fmt.Sprintf("BandwidthValue(%d)", int(b))
	}
}

// Operation is one way of measuring a set of concurrent copies.
type Operation struct {
	drv        gpu.Driver
	cfg        *config.Config
	log        *zap.Logger
	strategy   Strategy
	preference ContextPreference
	bandwidth  BandwidthValue
	loops      uint64
}

func NewOperation(drv gpu.Driver, cfg *config.Config, log *zap.Logger, strategy Strategy, preference ContextPreference, bandwidth BandwidthValue) *Operation {
	return &Operation{
		drv:        drv,
		cfg:        cfg,
		log:        log.Named("memcpy"),
		strategy:   strategy,
		preference: preference,
		bandwidth:  bandwidth,
		loops:      cfg.Run.LoopCount,
	}
}

// WithLoops returns a copy of o that times loops copies per sample.
func (o *Operation) WithLoops(loops uint64) *Operation {
	c := *o
	c.loops = loops
	return &c
}

type link struct {
	src, dst memnode.Node
	ctx      gpu.Context
	stream   gpu.Stream
	start    gpu.Event
	end      gpu.Event
	size     uint64
	copied   uint64
	bw       *stats.PerformanceStatistic
}

func (l *link) String() string {
	return fmt.Sprintf("%s -> %s", l.src, l.dst)
}

// resources are the driver objects of one Run.
type resources struct {
	drv      gpu.Driver
	links    []*link
	latch    *kernels.Latch
	totalEnd gpu.Event
}

// release opens the latch and drains every stream before anything is freed.
func (r *resources) release() error {
	var errs []error
	if r.latch != nil {
		r.latch.Release()
	}
	for _, l := range r.links {
		if l.stream != 0 {
			errs = append(errs, r.drv.StreamSynchronize(l.stream))
		}
	}
	if r.latch != nil {
		errs = append(errs, r.latch.Close())
	}
	if r.totalEnd != 0 {
		errs = append(errs, r.drv.EventDestroy(r.totalEnd))
	}
	for _, l := range r.links {
		if l.stream != 0 {
			errs = append(errs, r.drv.StreamDestroy(l.stream))
		}
		if l.start != 0 {
			errs = append(errs, r.drv.EventDestroy(l.start))
		}
		if l.end != 0 {
			errs = append(errs, r.drv.EventDestroy(l.end))
		}
	}
	return errors.Join(errs...)
}

// Run copies srcNodes[i] to dstNodes[i] for every i at the same time and
// returns the bandwidth in GB/s, as selected by the operation's
// BandwidthValue. Every sample is verified unless verification is disabled.
func (o *Operation) Run(srcNodes, dstNodes []memnode.Node) (bw float64, err error) {
	if len(srcNodes) == 0 {
		return 0, fmt.Errorf("no links to copy")
	}
	if len(srcNodes) != len(dstNodes) {
		return 0, fmt.Errorf("%d source nodes for %d destination nodes", len(srcNodes), len(dstNodes))
	}

	res := &resources{drv: o.drv}
	defer func() {
		if rerr := res.release(); rerr != nil && err == nil {
			err = fmt.Errorf("failed to release copy resources: %w", rerr)
		}
	}()

	mode := stats.ModeFor(o.cfg.Run.UseMean)
	if err := o.setup(res, srcNodes, dstNodes, mode); err != nil {
		return 0, err
	}

	total := stats.New(mode)
	for n := uint(0); n < o.cfg.Run.TestSamples; n++ {
		if err := o.sample(res, n, total); err != nil {
			return 0, err
		}
	}

	for _, l := range res.links {
		o.log.Debug("link summary",
			zap.Stringer("src", l.src),
			zap.Stringer("dst", l.dst),
			zap.Int("samples", l.bw.Len()),
			zap.Float64("min_gbps", l.bw.Min()*1e-9),
			zap.Float64("max_gbps", l.bw.Max()*1e-9),
			zap.Float64("stddev_gbps", l.bw.StdDev()*1e-9))
	}

	switch o.bandwidth {
	case SumBW:
		for _, l := range res.links {
			bw += l.bw.Value() * 1e-9
		}
		return bw, nil
	case TotalBW:
		return total.Value() * 1e-9, nil
	default:
		return res.links[0].bw.Value() * 1e-9, nil
	}
}

func (o *Operation) contextFor(src, dst memnode.Node) gpu.Context {
	first, second := dst.Context(), src.Context()
	if o.preference == PreferSrcContext {
		first, second = second, first
	}
	if first != 0 {
		return first
	}
	return second
}

func (o *Operation) setup(res *resources, srcNodes, dstNodes []memnode.Node, mode stats.Mode) error {
	for i := range srcNodes {
		l := &link{src: srcNodes[i], dst: dstNodes[i], bw: stats.New(mode)}
		res.links = append(res.links, l)

		if l.src.BufferSize() != l.dst.BufferSize() {
			return fmt.Errorf("link %s: source has %d bytes, destination %d", l, l.src.BufferSize(), l.dst.BufferSize())
		}
		l.ctx = o.contextFor(l.src, l.dst)
		if l.ctx == 0 {
			return fmt.Errorf("link %s has no device context", l)
		}

		if err := o.drv.CtxSetCurrent(l.ctx); err != nil {
			return err
		}
		var err error
		if l.stream, err = o.drv.StreamCreate(); err != nil {
			return err
		}
		if l.start, err = o.drv.EventCreate(); err != nil {
			return err
		}
		if l.end, err = o.drv.EventCreate(); err != nil {
			return err
		}
		if l.size, err = o.strategy.AdjustedSize(l.src.BufferSize(), l.stream); err != nil {
			return err
		}
	}

	if err := o.drv.CtxSetCurrent(res.links[0].ctx); err != nil {
		return err
	}
	latch, err := kernels.NewLatch(o.drv)
	if err != nil {
		return err
	}
	res.latch = latch
	if res.totalEnd, err = o.drv.EventCreate(); err != nil {
		return err
	}
	return nil
}

func (o *Operation) sample(res *resources, n uint, total *stats.PerformanceStatistic) error {
	links := res.links
	first := links[0]

	res.latch.Reset()
	for _, l := range links {
		if err := o.drv.CtxSetCurrent(l.ctx); err != nil {
			return err
		}
		if err := memnode.FillPattern(o.drv, l.dst.Buffer(), l.size, DstSeed); err != nil {
			return fmt.Errorf("failed to fill %s: %w", l.dst, err)
		}
		if err := memnode.FillPattern(o.drv, l.src.Buffer(), l.size, SrcSeed); err != nil {
			return fmt.Errorf("failed to fill %s: %w", l.src, err)
		}
	}

	// hold every stream behind the latch, then warm up
	for _, l := range links {
		if err := o.drv.CtxSetCurrent(l.ctx); err != nil {
			return err
		}
		if err := kernels.Spin(o.drv, res.latch.Ptr(), l.stream, o.cfg.Run.SpinTimeoutMs); err != nil {
			return err
		}
		if _, err := o.strategy.Copy(l.dst.Buffer(), l.src.Buffer(), l.stream, l.src.BufferSize(), WarmupCount); err != nil {
			return err
		}
	}

	// every stream starts when the first one does
	if err := o.drv.CtxSetCurrent(first.ctx); err != nil {
		return err
	}
	if err := o.drv.EventRecord(first.start, first.stream); err != nil {
		return err
	}
	for _, l := range links[1:] {
		if err := o.drv.CtxSetCurrent(l.ctx); err != nil {
			return err
		}
		if err := o.drv.StreamWaitEvent(l.stream, first.start); err != nil {
			return err
		}
		if err := o.drv.EventRecord(l.start, l.stream); err != nil {
			return err
		}
	}

	for i, l := range links {
		if err := o.drv.CtxSetCurrent(l.ctx); err != nil {
			return err
		}
		copied, err := o.strategy.Copy(l.dst.Buffer(), l.src.Buffer(), l.stream, l.src.BufferSize(), o.loops)
		if err != nil {
			return err
		}
		l.copied = copied
		if err := o.drv.EventRecord(l.end, l.stream); err != nil {
			return err
		}
		if o.bandwidth == TotalBW && i != 0 {
			// the first stream completes last
			if err := o.drv.StreamWaitEvent(first.stream, l.end); err != nil {
				return err
			}
		}
	}

	if err := o.drv.CtxSetCurrent(first.ctx); err != nil {
		return err
	}
	if err := o.drv.EventRecord(res.totalEnd, first.stream); err != nil {
		return err
	}

	res.latch.Release()

	for _, l := range links {
		if err := o.drv.StreamSynchronize(l.stream); err != nil {
			return err
		}
	}

	if !o.cfg.Run.SkipVerification {
		for _, l := range links {
			if err := o.drv.CtxSetCurrent(l.ctx); err != nil {
				return err
			}
			if err := memnode.VerifyPattern(o.drv, l.dst, l.size, SrcSeed); err != nil {
				metrics.VerificationFailures.Inc()
				return err
			}
		}
	}

	kind := o.strategy.Kind().String()
	for _, l := range links {
		bw, err := o.bandwidthOf(l.start, l.end, l.copied)
		if err != nil {
			return fmt.Errorf("link %s: %w", l, err)
		}
		l.bw.Add(bw)
		metrics.SampleBandwidth.WithLabelValues(kind).Observe(bw * 1e-9)
		metrics.BytesCopied.WithLabelValues(kind).Add(float64(l.copied * o.loops))

		// logged for every link, whichever value the operation reports
		o.log.Debug("sample",
			zap.Uint("sample", n),
			zap.Stringer("src", l.src),
			zap.Stringer("dst", l.dst),
			zap.String("bandwidth", fmt.Sprintf("%.2f GB/s", bw*1e-9)))
	}

	if o.bandwidth == TotalBW {
		var bytes uint64
		for _, l := range links {
			bytes += l.copied
		}
		bw, err := o.bandwidthOf(first.start, res.totalEnd, bytes)
		if err != nil {
			return fmt.Errorf("total: %w", err)
		}
		total.Add(bw)
		o.log.Debug("sample total",
			zap.Uint("sample", n),
			zap.String("bandwidth", fmt.Sprintf("%.2f GB/s", bw*1e-9)))
	}
	return nil
}

// bandwidthOf returns the rate in bytes per second at which loops copies of
// bytes completed between start and end.
func (o *Operation) bandwidthOf(start, end gpu.Event, bytes uint64) (float64, error) {
	ms, err := o.drv.EventElapsedTime(start, end)
	if err != nil {
		return 0, err
	}
	us := float64(ms) * 1000
	if us <= 0 {
		return 0, fmt.Errorf("no elapsed time between events (%.3f us)", us)
	}
	return float64(bytes) * float64(o.loops) * 1e6 / us, nil
}
