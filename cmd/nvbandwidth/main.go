package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"

	"github.com/common-nighthawk/go-figure"
	"github.com/fxnlabs/nvbandwidth/internal/app"
	"github.com/fxnlabs/nvbandwidth/internal/config"
	"github.com/fxnlabs/nvbandwidth/internal/fatal"
	"github.com/fxnlabs/nvbandwidth/internal/logger"
	"github.com/fxnlabs/nvbandwidth/internal/metrics"
	"github.com/fxnlabs/nvbandwidth/internal/runner"
	"github.com/fxnlabs/nvbandwidth/internal/testcase"
	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Driver contexts are bound to the OS thread that made them current.
	runtime.LockOSThread()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: failed to load .env: %v\n", err)
		atexit.Exit(1)
	}

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:        "nvbandwidth",
		Usage:       "Measure bandwidth between host memory and accelerator devices",
		Version:     version,
		// -v is --verbose
		HideVersion: true,
		Flags:       flags(),
		Writer:      out,
		Action: func(c *cli.Context) error {
			return run(c, out)
		},
	}
}

func run(c *cli.Context, out io.Writer) error {
	fmt.Fprint(out, figure.NewFigure("nvbandwidth", "", true).String())
	fmt.Fprintf(out, "\nnvbandwidth Version: %s\n\n", version)

	if c.Bool("list") {
		return runner.New(&testcase.Env{}, testcase.All(), out, zap.NewNop(), nil).List(out)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	zapLogger, err := logger.New(cfg.Logger.Verbosity, c.Bool("verbose"))
	if err != nil {
		return err
	}
	log := zapLogger.Named("nvbandwidth")
	atexit.Register(func() { _ = zapLogger.Sync() })

	if cfg.MetricsFile != "" {
		atexit.Register(func() {
			if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
				log.Error("failed to write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
			}
		})
	}

	var bench app.Bench
	fxApp := fx.New(
		app.Module(cfg, log, out, fatal.Handler(log)),
		fx.Invoke(func(b app.Bench) { bench = b }),
	)
	if err := fxApp.Err(); err != nil {
		return err
	}
	if err := fxApp.Start(context.Background()); err != nil {
		return err
	}
	defer func() {
		if err := fxApp.Stop(context.Background()); err != nil {
			log.Warn("failed to shut down", zap.Error(err))
		}
	}()

	results, err := app.Run(bench, c.StringSlice("testcase"))
	if err != nil {
		return err
	}
	for _, res := range results {
		log.Debug("test case finished", zap.String("testcase", res.Key), zap.Stringer("status", res.Status))
	}
	return nil
}

// loadConfig builds the run configuration: defaults, then the optional yaml
// file, then every flag or environment variable that was set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet("bufferSize") {
		cfg.Run.BufferSizeMiB = c.Uint64("bufferSize")
	}
	if c.IsSet("loopCount") {
		cfg.Run.LoopCount = c.Uint64("loopCount")
	}
	if c.IsSet("testSamples") {
		cfg.Run.TestSamples = c.Uint("testSamples")
	}
	if c.IsSet("skipVerification") {
		cfg.Run.SkipVerification = c.Bool("skipVerification")
	}
	if c.IsSet("disableAffinity") {
		cfg.Run.DisableAffinity = c.Bool("disableAffinity")
	}
	if c.IsSet("useMean") {
		cfg.Run.UseMean = c.Bool("useMean")
	}
	if c.IsSet("spinTimeout") {
		cfg.Run.SpinTimeoutMs = c.Uint64("spinTimeout")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("metricsFile") {
		cfg.MetricsFile = c.String("metricsFile")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.Uint64Flag{
			Name:    "bufferSize",
			Aliases: []string{"b"},
			Value:   config.DefaultBufferSizeMiB,
			Usage:   "Memcpy buffer size in MiB",
			EnvVars: []string{"NVBANDWIDTH_BUFFER_SIZE"},
		},
		&cli.BoolFlag{
			Name:    "list",
			Aliases: []string{"l"},
			Usage:   "List available testcases",
		},
		&cli.StringSliceFlag{
			Name:    "testcase",
			Aliases: []string{"t"},
			Usage:   "Testcase(s) to run (by name or index)",
			EnvVars: []string{"NVBANDWIDTH_TESTCASE"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Verbose output",
			EnvVars: []string{"NVBANDWIDTH_VERBOSE"},
		},
		&cli.BoolFlag{
			Name:    "skipVerification",
			Aliases: []string{"s"},
			Usage:   "Skips data verification after copy",
			EnvVars: []string{"NVBANDWIDTH_SKIP_VERIFICATION"},
		},
		&cli.BoolFlag{
			Name:    "disableAffinity",
			Aliases: []string{"d"},
			Usage:   "Disable automatic CPU affinity control",
			EnvVars: []string{"NVBANDWIDTH_DISABLE_AFFINITY"},
		},
		&cli.UintFlag{
			Name:    "testSamples",
			Aliases: []string{"i"},
			Value:   config.DefaultTestSamples,
			Usage:   "Iterations of the benchmark",
			EnvVars: []string{"NVBANDWIDTH_TEST_SAMPLES"},
		},
		&cli.BoolFlag{
			Name:    "useMean",
			Aliases: []string{"m"},
			Usage:   "Use mean instead of median for results",
			EnvVars: []string{"NVBANDWIDTH_USE_MEAN"},
		},
		&cli.Uint64Flag{
			Name:    "loopCount",
			Value:   config.DefaultLoopCount,
			Usage:   "Iterations of memcpy to be performed within a test sample",
			EnvVars: []string{"NVBANDWIDTH_LOOP_COUNT"},
			Hidden:  true,
		},
		&cli.Uint64Flag{
			Name:    "spinTimeout",
			Value:   config.DefaultSpinTimeoutMs,
			Usage:   "Milliseconds a stream waits for the start signal before copying anyway",
			EnvVars: []string{"NVBANDWIDTH_SPIN_TIMEOUT"},
			Hidden:  true,
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to a yaml configuration file",
			EnvVars: []string{"NVBANDWIDTH_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "backend",
			Value:   config.BackendAuto,
			Usage:   "Driver backend: auto, cuda or sim",
			EnvVars: []string{"NVBANDWIDTH_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "metricsFile",
			Usage:   "Write prometheus metrics to this file on exit",
			EnvVars: []string{"NVBANDWIDTH_METRICS_FILE"},
		},
	}
}
