// Package app assembles a bandwidth run from its components.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/fxnlabs/nvbandwidth/internal/config"
	"github.com/fxnlabs/nvbandwidth/internal/gpu"
	"github.com/fxnlabs/nvbandwidth/internal/kernels"
	"github.com/fxnlabs/nvbandwidth/internal/runner"
	"github.com/fxnlabs/nvbandwidth/internal/sysinfo"
	"github.com/fxnlabs/nvbandwidth/internal/testcase"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output is where the bandwidth report goes.
type Output struct {
	io.Writer
}

// AbortFunc receives the error of a failed test case.
type AbortFunc func(error)

// Module provides the driver, the test environment and the runner for cfg.
func Module(cfg *config.Config, log *zap.Logger, out io.Writer, abort AbortFunc) fx.Option {
	return fx.Options(
		fx.Supply(cfg, log, Output{out}, abort),
		fx.Provide(
			NewDriver,
			NewEnv,
			NewRunner,
		),
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: log.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
	)
}

// NewDriver selects the driver and closes it when the application stops.
func NewDriver(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (gpu.Driver, error) {
	drv, err := gpu.NewDriver(cfg, log.Named("gpu"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return drv.Close()
		},
	})
	return drv, nil
}

func NewEnv(drv gpu.Driver, cfg *config.Config, log *zap.Logger) (*testcase.Env, error) {
	n, err := drv.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}
	return &testcase.Env{Driver: drv, Config: cfg, Log: log.Named("testcase"), DeviceCount: n}, nil
}

func NewRunner(env *testcase.Env, out Output, log *zap.Logger, abort AbortFunc) *runner.Runner {
	return runner.New(env, testcase.All(), out, log, abort)
}

// Bench is a fully assembled run.
type Bench struct {
	fx.In

	Config *config.Config
	Log    *zap.Logger
	Out    Output
	Driver gpu.Driver
	Env    *testcase.Env
	Runner *runner.Runner
}

// Run prints the run header, loads the kernels on every device and runs the
// test cases named by selectors.
func Run(b Bench, selectors []string) ([]runner.Result, error) {
	if err := PrintHeader(b.Out, b.Config, b.Driver, b.Env.DeviceCount, b.Log); err != nil {
		return nil, err
	}

	// Loading a kernel synchronizes the device, which can deadlock once a
	// test has streams waiting on each other.
	if err := kernels.Preload(b.Driver, b.Env.DeviceCount); err != nil {
		return nil, err
	}
	return b.Runner.Run(selectors), nil
}

// PrintHeader writes the notes, driver versions, host summary and device
// list that precede the test case output.
func PrintHeader(w io.Writer, cfg *config.Config, drv gpu.Driver, deviceCount int, log *zap.Logger) error {
	fmt.Fprint(w, "NOTE: This tool reports current measured bandwidth on your system.\n"+
		"Additional system-specific tuning may be required to achieve maximal peak bandwidth.\n\n")
	if cfg.Run.BufferSizeMiB < config.DefaultBufferSizeMiB {
		fmt.Fprintf(w, "NOTE: You have chosen a buffer size that is smaller than the default buffer size.\n"+
			"It is suggested to use the default buffer size (%dMB) to achieve maximal peak bandwidth.\n\n", config.DefaultBufferSizeMiB)
	}

	runtimeVersion, err := drv.RuntimeVersion()
	if err != nil {
		return err
	}
	driverVersion, err := drv.DriverVersion()
	if err != nil {
		return err
	}
	systemVersion, err := drv.SystemDriverVersion()
	if err != nil {
		log.Warn("failed to read the system driver version", zap.Error(err))
		systemVersion = "N/A"
	}
	fmt.Fprintf(w, "Driver: %s\nCUDA Runtime Version: %s\nCUDA Driver Version: %s\nDriver Version: %s\n",
		drv.Name(), runtimeVersion, driverVersion, systemVersion)

	host, err := sysinfo.Collect()
	if err != nil {
		// the host summary is informational
		log.Warn("failed to collect host info", zap.Error(err))
	} else {
		fmt.Fprintf(w, "Host: %s\n", host)
	}
	fmt.Fprintln(w)

	for dev := 0; dev < deviceCount; dev++ {
		name, err := drv.DeviceName(dev)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Device %d: %s\n", dev, name)
	}
	_, err = fmt.Fprintln(w)
	return err
}
