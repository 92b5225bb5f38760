// Package testcase defines the fixed set of copy patterns nvbandwidth
// measures. Each test case turns one pattern into a bandwidth matrix.
package testcase

import (
	"strings"

	"github.com/fxnlabs/nvbandwidth/internal/config"
	"github.com/fxnlabs/nvbandwidth/internal/gpu"
	"github.com/fxnlabs/nvbandwidth/internal/memcpy"
	"go.uber.org/zap"
)

// Env is what a test case runs against.
type Env struct {
	Driver      gpu.Driver
	Config      *config.Config
	Log         *zap.Logger
	DeviceCount int
}

// Testcase is one measurable copy pattern.
type Testcase interface {
	Key() string
	Description() string
	// Filter reports whether the machine can run the test case. A test
	// case that is filtered out is waived.
	Filter(env *Env) bool
	Run(env *Env) (*Matrix, error)
}

// pattern measures every cell of a matrix with strategy s.
type pattern func(env *Env, s memcpy.Strategy) (*Matrix, error)

type testcase struct {
	key        string
	desc       string
	kind       memcpy.Kind
	minDevices int
	run        pattern
}

func (t *testcase) Key() string {
	return t.key
}

func (t *testcase) Description() string {
	return t.desc
}

func (t *testcase) Filter(env *Env) bool {
	return env.DeviceCount >= t.minDevices
}

func (t *testcase) Run(env *Env) (*Matrix, error) {
	s, err := memcpy.NewStrategy(t.kind, env.Driver, env.Config.DefaultBufferSize())
	if err != nil {
		return nil, err
	}
	return t.run(env, s)
}

// title is the first line of a matrix printed by a test case using kind.
func title(kind memcpy.Kind, what string) string {
	return "memcpy " + strings.ToUpper(kind.String()) + " " + what
}

func hostCase(key, desc string, kind memcpy.Kind, run pattern) Testcase {
	return &testcase{key: key, desc: desc, kind: kind, minDevices: 1, run: run}
}

func peerCase(key, desc string, kind memcpy.Kind, run pattern) Testcase {
	return &testcase{key: key, desc: desc, kind: kind, minDevices: 2, run: run}
}

// All returns every test case in index order.
func All() []Testcase {
	return []Testcase{
		hostCase("host_to_device_memcpy_ce",
			"\tHost to device CE memcpy using asynchronous memcpy", memcpy.CE, hostToDevice(false)),
		hostCase("device_to_host_memcpy_ce",
			"\tDevice to host CE memcpy using asynchronous memcpy", memcpy.CE, deviceToHost(false)),
		hostCase("host_to_device_bidirectional_memcpy_ce",
			"\tA host to device copy is measured while a device to host copy is run simultaneously.\n"+
				"\tOnly the host to device copy bandwidth is reported.", memcpy.CE, hostToDevice(true)),
		hostCase("device_to_host_bidirectional_memcpy_ce",
			"\tA device to host copy is measured while a host to device copy is run simultaneously.\n"+
				"\tOnly the device to host copy bandwidth is reported.", memcpy.CE, deviceToHost(true)),
		peerCase("device_to_device_memcpy_read_ce",
			"\tMeasures bandwidth of the destination device reading from each peer.\n"+
				"\tPairs without peer access are reported as N/A.", memcpy.CE, deviceToDevice(true, false)),
		peerCase("device_to_device_memcpy_write_ce",
			"\tMeasures bandwidth of the source device writing to each peer.\n"+
				"\tPairs without peer access are reported as N/A.", memcpy.CE, deviceToDevice(false, false)),
		peerCase("device_to_device_bidirectional_memcpy_read_ce",
			"\tMeasures a device to device read while the reverse read runs simultaneously.\n"+
				"\tOnly the forward read is reported.", memcpy.CE, deviceToDevice(true, true)),
		peerCase("device_to_device_bidirectional_memcpy_write_ce",
			"\tMeasures a device to device write while the reverse write runs simultaneously.\n"+
				"\tOnly the forward write is reported.", memcpy.CE, deviceToDevice(false, true)),
		hostCase("all_to_host_memcpy_ce",
			"\tMeasures a device to host copy while every other device copies to the host as well.",
			memcpy.CE, allToHost(false)),
		hostCase("all_to_host_bidirectional_memcpy_ce",
			"\tMeasures a device to host copy while every device copies to and from the host.",
			memcpy.CE, allToHost(true)),
		hostCase("host_to_all_memcpy_ce",
			"\tMeasures a host to device copy while the host copies to every other device as well.",
			memcpy.CE, hostToAll(false)),
		hostCase("host_to_all_bidirectional_memcpy_ce",
			"\tMeasures a host to device copy while the host copies to and from every device.",
			memcpy.CE, hostToAll(true)),
		peerCase("all_to_one_write_ce",
			"\tMeasures the total bandwidth of every peer writing to one device.", memcpy.CE, allToOne(false)),
		peerCase("all_to_one_read_ce",
			"\tMeasures the total bandwidth of one device reading from every peer.", memcpy.CE, allToOne(true)),
		peerCase("one_to_all_write_ce",
			"\tMeasures the total bandwidth of one device writing to every peer.", memcpy.CE, oneToAll(false)),
		peerCase("one_to_all_read_ce",
			"\tMeasures the total bandwidth of every peer reading from one device.", memcpy.CE, oneToAll(true)),

		hostCase("host_to_device_memcpy_sm",
			"\tHost to device SM memcpy using a copy kernel", memcpy.SM, hostToDevice(false)),
		hostCase("device_to_host_memcpy_sm",
			"\tDevice to host SM memcpy using a copy kernel", memcpy.SM, deviceToHost(false)),
		peerCase("device_to_device_memcpy_read_sm",
			"\tMeasures bandwidth of a copy kernel on the destination device reading from each peer.",
			memcpy.SM, deviceToDevice(true, false)),
		peerCase("device_to_device_memcpy_write_sm",
			"\tMeasures bandwidth of a copy kernel on the source device writing to each peer.",
			memcpy.SM, deviceToDevice(false, false)),
		peerCase("device_to_device_bidirectional_memcpy_read_sm",
			"\tMeasures a kernel read between two devices while the reverse read runs simultaneously.",
			memcpy.SM, deviceToDevice(true, true)),
		peerCase("device_to_device_bidirectional_memcpy_write_sm",
			"\tMeasures a kernel write between two devices while the reverse write runs simultaneously.",
			memcpy.SM, deviceToDevice(false, true)),
		hostCase("all_to_host_memcpy_sm",
			"\tMeasures a device to host kernel copy while every other device copies to the host as well.",
			memcpy.SM, allToHost(false)),
		hostCase("all_to_host_bidirectional_memcpy_sm",
			"\tMeasures a device to host kernel copy while every device copies to and from the host.",
			memcpy.SM, allToHost(true)),
		hostCase("host_to_all_memcpy_sm",
			"\tMeasures a host to device kernel copy while the host copies to every other device as well.",
			memcpy.SM, hostToAll(false)),
		hostCase("host_to_all_bidirectional_memcpy_sm",
			"\tMeasures a host to device kernel copy while the host copies to and from every device.",
			memcpy.SM, hostToAll(true)),
		peerCase("all_to_one_write_sm",
			"\tMeasures the total bandwidth of copy kernels on every peer writing to one device.",
			memcpy.SM, allToOne(false)),
		peerCase("all_to_one_read_sm",
			"\tMeasures the total bandwidth of copy kernels on one device reading from every peer.",
			memcpy.SM, allToOne(true)),
		peerCase("one_to_all_write_sm",
			"\tMeasures the total bandwidth of copy kernels on one device writing to every peer.",
			memcpy.SM, oneToAll(false)),
		peerCase("one_to_all_read_sm",
			"\tMeasures the total bandwidth of copy kernels on every peer reading from one device.",
			memcpy.SM, oneToAll(true)),
	}
}
