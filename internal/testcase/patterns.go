package testcase

import (
	"errors"

	"github.com/fxnlabs/nvbandwidth/internal/memcpy"
	"github.com/fxnlabs/nvbandwidth/internal/memnode"
	"go.uber.org/zap"
)

// nodeSet owns the nodes allocated for one measurement.
type nodeSet struct {
	env   *Env
	nodes []memnode.Node
}

func (n *nodeSet) host(targetDevice int) (memnode.Node, error) {
	cfg := n.env.Config
	h, err := memnode.NewHostNode(n.env.Driver, cfg.BufferSize(), targetDevice, !cfg.Run.DisableAffinity)
	if err != nil {
		return nil, err
	}
	n.nodes = append(n.nodes, h)
	return h, nil
}

func (n *nodeSet) device(dev int) (*memnode.DeviceNode, error) {
	d, err := memnode.NewDeviceNode(n.env.Driver, n.env.Config.BufferSize(), dev)
	if err != nil {
		return nil, err
	}
	n.nodes = append(n.nodes, d)
	return d, nil
}

// peers allocates a buffer on each of a and b and maps them into each
// other's context. ok is false when the devices cannot access each other.
func (n *nodeSet) peers(a, b int) (na, nb *memnode.DeviceNode, ok bool, err error) {
	if na, err = n.device(a); err != nil {
		return nil, nil, false, err
	}
	if nb, err = n.device(b); err != nil {
		return nil, nil, false, err
	}
	ok, err = na.EnablePeerAccess(nb)
	return na, nb, ok, err
}

func (n *nodeSet) close() error {
	var errs []error
	for i := len(n.nodes) - 1; i >= 0; i-- {
		errs = append(errs, n.nodes[i].Close())
	}
	n.nodes = nil
	return errors.Join(errs...)
}

// links collects the src/dst pairs of one measurement.
type links struct {
	src, dst []memnode.Node
}

func (l *links) add(src, dst memnode.Node) {
	l.src = append(l.src, src)
	l.dst = append(l.dst, dst)
}

// build allocates the links of one measurement. It returns false when the
// cell cannot be measured on this machine.
type build func(n *nodeSet, l *links) (bool, error)

// measure runs op over the links built by fn and stores the result at
// (row, col) of m. Unmeasurable cells stay unset.
func measure(env *Env, m *Matrix, row, col int, op *memcpy.Operation, fn build) (err error) {
	n := &nodeSet{env: env}
	defer func() {
		if cerr := n.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var l links
	ok, err := fn(n, &l)
	if err != nil {
		return err
	}
	if !ok || len(l.src) == 0 {
		env.Log.Debug("cell not measurable", zap.Int("row", row), zap.Int("col", col))
		return nil
	}

	bw, err := op.Run(l.src, l.dst)
	if err != nil {
		return err
	}
	m.Set(row, col, bw)
	return nil
}

func newOperation(env *Env, s memcpy.Strategy, pref memcpy.ContextPreference, bw memcpy.BandwidthValue) *memcpy.Operation {
	return memcpy.NewOperation(env.Driver, env.Config, env.Log, s, pref, bw)
}

// hostToDevice measures host to device copies, one column per device. The
// bidirectional form runs a device to host copy on separate buffers at the
// same time.
func hostToDevice(bidirectional bool) pattern {
	return func(env *Env, s memcpy.Strategy) (*Matrix, error) {
		m := NewMatrix(title(s.Kind(), "CPU(row) -> GPU(column) bandwidth (GB/s)"), 1, env.DeviceCount)
		op := newOperation(env, s, memcpy.PreferDstContext, memcpy.UseFirstBW)
		for dev := 0; dev < env.DeviceCount; dev++ {
			err := measure(env, m, 0, dev, op, func(n *nodeSet, l *links) (bool, error) {
				if err := hostDeviceLink(n, l, dev, true); err != nil {
					return false, err
				}
				if bidirectional {
					return true, hostDeviceLink(n, l, dev, false)
				}
				return true, nil
			})
			if err != nil {
				return nil, err
			}
		}
		return m, nil
	}
}

func deviceToHost(bidirectional bool) pattern {
	return func(env *Env, s memcpy.Strategy) (*Matrix, error) {
		m := NewMatrix(title(s.Kind(), "CPU(row) <- GPU(column) bandwidth (GB/s)"), 1, env.DeviceCount)
		op := newOperation(env, s, memcpy.PreferSrcContext, memcpy.UseFirstBW)
		for dev := 0; dev < env.DeviceCount; dev++ {
			err := measure(env, m, 0, dev, op, func(n *nodeSet, l *links) (bool, error) {
				if err := hostDeviceLink(n, l, dev, false); err != nil {
					return false, err
				}
				if bidirectional {
					return true, hostDeviceLink(n, l, dev, true)
				}
				return true, nil
			})
			if err != nil {
				return nil, err
			}
		}
		return m, nil
	}
}

// hostDeviceLink adds a link between fresh host and device buffers for dev.
func hostDeviceLink(n *nodeSet, l *links, dev int, toDevice bool) error {
	h, err := n.host(dev)
	if err != nil {
		return err
	}
	d, err := n.device(dev)
	if err != nil {
		return err
	}
	if toDevice {
		l.add(h, d)
	} else {
		l.add(d, h)
	}
	return nil
}

// deviceToDevice fills a device by device matrix with src(row) to
// dst(column) copies. Reads run in the destination's context, writes in the
// source's. The bidirectional form copies dst to src on separate buffers at
// the same time.
func deviceToDevice(read, bidirectional bool) pattern {
	return func(env *Env, s memcpy.Strategy) (*Matrix, error) {
		pref, verb := memcpy.PreferSrcContext, "write"
		if read {
			pref, verb = memcpy.PreferDstContext, "read"
		}
		m := NewMatrix(title(s.Kind(), "GPU(row) -> GPU(column) "+verb+" bandwidth (GB/s)"), env.DeviceCount, env.DeviceCount)
		op := newOperation(env, s, pref, memcpy.UseFirstBW)

		for src := 0; src < env.DeviceCount; src++ {
			for dst := 0; dst < env.DeviceCount; dst++ {
				if src == dst {
					continue
				}
				err := measure(env, m, src, dst, op, func(n *nodeSet, l *links) (bool, error) {
					a, b, ok, err := n.peers(src, dst)
					if err != nil || !ok {
						return false, err
					}
					l.add(a, b)
					if !bidirectional {
						return true, nil
					}
					a2, b2, ok, err := n.peers(src, dst)
					if err != nil || !ok {
						return false, err
					}
					l.add(b2, a2)
					return true, nil
				})
				if err != nil {
					return nil, err
				}
			}
		}
		return m, nil
	}
}

// allToHost measures one device to host copy per column while every other
// device copies to the host too.
func allToHost(bidirectional bool) pattern {
	return func(env *Env, s memcpy.Strategy) (*Matrix, error) {
		m := NewMatrix(title(s.Kind(), "CPU(row) <- GPU(column) bandwidth (GB/s)"), 1, env.DeviceCount)
		op := newOperation(env, s, memcpy.PreferSrcContext, memcpy.UseFirstBW)
		return m, concurrentHostLinks(env, m, op, false, bidirectional)
	}
}

// hostToAll measures one host to device copy per column while the host
// copies to every other device too.
func hostToAll(bidirectional bool) pattern {
	return func(env *Env, s memcpy.Strategy) (*Matrix, error) {
		m := NewMatrix(title(s.Kind(), "CPU(row) -> GPU(column) bandwidth (GB/s)"), 1, env.DeviceCount)
		op := newOperation(env, s, memcpy.PreferDstContext, memcpy.UseFirstBW)
		return m, concurrentHostLinks(env, m, op, true, bidirectional)
	}
}

// concurrentHostLinks fills one cell per device. The measured device's link
// comes first, followed by the same link for every other device.
func concurrentHostLinks(env *Env, m *Matrix, op *memcpy.Operation, toDevice, bidirectional bool) error {
	for dev := 0; dev < env.DeviceCount; dev++ {
		err := measure(env, m, 0, dev, op, func(n *nodeSet, l *links) (bool, error) {
			order := append([]int{dev}, others(env.DeviceCount, dev)...)
			for _, d := range order {
				if err := hostDeviceLink(n, l, d, toDevice); err != nil {
					return false, err
				}
				if bidirectional {
					if err := hostDeviceLink(n, l, d, !toDevice); err != nil {
						return false, err
					}
				}
			}
			return true, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// allToOne reports, per column, the summed bandwidth of every peer copying
// into that device.
func allToOne(read bool) pattern {
	return func(env *Env, s memcpy.Strategy) (*Matrix, error) {
		pref, what := memcpy.PreferSrcContext, "All GPUs -> GPU(column) total write bandwidth (GB/s)"
		if read {
			pref, what = memcpy.PreferDstContext, "All GPUs -> GPU(column) total read bandwidth (GB/s)"
		}
		m := NewMatrix(title(s.Kind(), what), 1, env.DeviceCount)
		op := newOperation(env, s, pref, memcpy.SumBW)
		return m, fanLinks(env, m, op, true)
	}
}

// oneToAll reports, per column, the summed bandwidth of that device copying
// into every peer.
func oneToAll(read bool) pattern {
	return func(env *Env, s memcpy.Strategy) (*Matrix, error) {
		pref, what := memcpy.PreferSrcContext, "GPU(column) -> All GPUs total write bandwidth (GB/s)"
		if read {
			pref, what = memcpy.PreferDstContext, "GPU(column) -> All GPUs total read bandwidth (GB/s)"
		}
		m := NewMatrix(title(s.Kind(), what), 1, env.DeviceCount)
		op := newOperation(env, s, pref, memcpy.SumBW)
		return m, fanLinks(env, m, op, false)
	}
}

// fanLinks measures one device against all of its peers at once, with a
// separate buffer pair per peer. Peers without access are left out.
func fanLinks(env *Env, m *Matrix, op *memcpy.Operation, into bool) error {
	for dev := 0; dev < env.DeviceCount; dev++ {
		err := measure(env, m, 0, dev, op, func(n *nodeSet, l *links) (bool, error) {
			for _, peer := range others(env.DeviceCount, dev) {
				self, other, ok, err := n.peers(dev, peer)
				if err != nil {
					return false, err
				}
				if !ok {
					continue
				}
				if into {
					l.add(other, self)
				} else {
					l.add(self, other)
				}
			}
			return true, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// others lists every device but dev.
func others(count, dev int) []int {
	var devs []int
	for d := 0; d < count; d++ {
		if d != dev {
			devs = append(devs, d)
		}
	}
	return devs
}
