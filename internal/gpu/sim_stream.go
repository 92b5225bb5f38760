package gpu

import (
	"github.com/sarchlab/akita/v4/sim"
	"go.uber.org/zap"
)

// streamEvent wakes a stream. A completing event also retires the operation
// at the head of the stream.
type streamEvent struct {
	*sim.EventBase
	complete bool
}

// simOp is one operation queued on a simulated stream.
type simOp interface {
	// start is called when the op reaches the head of its stream, and again
	// on every wake-up while it cannot run. It returns how long the op
	// occupies the stream, or false while it has to wait.
	start(s *simStream, now sim.VTimeInSec) (sim.VTimeInSec, bool)
	finish(now sim.VTimeInSec)
}

// simStream executes its operations in order on the driver's engine.
type simStream struct {
	drv    *SimDriver
	handle Stream
	ctx    Context
	device int
	ops    []simOp
	busy   bool
}

func (s *simStream) enqueue(op simOp) {
	s.ops = append(s.ops, op)
	if len(s.ops) == 1 && !s.busy {
		s.drv.wake(s, s.drv.engine.CurrentTime())
	}
}

func (s *simStream) idle() bool {
	return len(s.ops) == 0
}

// Handle implements sim.Handler.
func (s *simStream) Handle(e sim.Event) error {
	evt := e.(*streamEvent)
	now := evt.Time()
	if evt.complete {
		op := s.ops[0]
		s.ops = s.ops[1:]
		s.busy = false
		op.finish(now)
	}
	s.pump(now)
	return nil
}

func (s *simStream) pump(now sim.VTimeInSec) {
	for !s.busy && len(s.ops) > 0 {
		op := s.ops[0]
		d, ready := op.start(s, now)
		if !ready {
			return
		}
		if d <= 0 {
			s.ops = s.ops[1:]
			op.finish(now)
			continue
		}
		s.busy = true
		s.drv.engine.Schedule(&streamEvent{
			EventBase: sim.NewEventBase(now+d, s),
			complete:  true,
		})
	}
}

type copyOp struct {
	drv      *SimDriver
	dst, src []byte
	duration sim.VTimeInSec
}

func (op *copyOp) start(*simStream, sim.VTimeInSec) (sim.VTimeInSec, bool) {
	return op.duration, true
}

// Repeated iterations rewrite the same bytes, so the data moves once.
func (op *copyOp) finish(sim.VTimeInSec) {
	copy(op.dst, op.src)
	op.drv.stats.BytesCopied += uint64(len(op.dst))
}

type spinOp struct {
	drv      *SimDriver
	flag     []byte
	timeout  sim.VTimeInSec
	bounded  bool
	armed    bool
	deadline sim.VTimeInSec
}

func (op *spinOp) start(s *simStream, now sim.VTimeInSec) (sim.VTimeInSec, bool) {
	if LoadFlag(op.flag) != 0 {
		return 0, true
	}
	if !op.armed {
		op.armed = true
		if op.bounded {
			op.deadline = now + op.timeout
			op.drv.wake(s, op.deadline)
		}
		return 0, false
	}
	if op.bounded && now >= op.deadline {
		op.drv.stats.SpinTimeouts++
		op.drv.log.Debug("spin kernel timed out",
			zap.Uintptr("stream", uintptr(s.handle)),
			zap.Float64("virtual_time", float64(now)))
		return 0, true
	}
	return 0, false
}

func (op *spinOp) finish(sim.VTimeInSec) {}

type simEvent struct {
	handle    Event
	ctx       Context
	enqueued  int
	completed int
	time      sim.VTimeInSec
	waiters   []*simStream
}

func (e *simEvent) addWaiter(s *simStream) {
	for _, w := range e.waiters {
		if w == s {
			return
		}
	}
	e.waiters = append(e.waiters, s)
}

type recordOp struct {
	drv *SimDriver
	ev  *simEvent
	gen int
}

func (op *recordOp) start(*simStream, sim.VTimeInSec) (sim.VTimeInSec, bool) {
	return 0, true
}

func (op *recordOp) finish(now sim.VTimeInSec) {
	if op.gen > op.ev.completed {
		op.ev.completed = op.gen
		op.ev.time = now
	}
	waiters := op.ev.waiters
	op.ev.waiters = nil
	for _, w := range waiters {
		op.drv.wake(w, now)
	}
}

// waitOp blocks until the record that was last enqueued on the event at the
// time of the wait call has completed.
type waitOp struct {
	ev  *simEvent
	gen int
}

func (op *waitOp) start(s *simStream, _ sim.VTimeInSec) (sim.VTimeInSec, bool) {
	if op.ev.completed >= op.gen {
		return 0, true
	}
	op.ev.addWaiter(s)
	return 0, false
}

func (op *waitOp) finish(sim.VTimeInSec) {}
