package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	MiB = 1024 * 1024

	DefaultBufferSizeMiB = 64
	DefaultLoopCount     = 16
	DefaultTestSamples   = 3
	DefaultSpinTimeoutMs = 10000

	BackendAuto = "auto"
	BackendCUDA = "cuda"
	BackendSim  = "sim"
)

// SimulationConfig describes the machine modelled by the simulated driver.
type SimulationConfig struct {
	DeviceCount         int           `yaml:"deviceCount"`
	DeviceName          string        `yaml:"deviceName"`
	MultiprocessorCount int           `yaml:"multiprocessorCount"`
	ClockRateKHz        int           `yaml:"clockRateKHz"`
	HostToDeviceGBps    float64       `yaml:"hostToDeviceGBps"`
	DeviceToHostGBps    float64       `yaml:"deviceToHostGBps"`
	PeerGBps            float64       `yaml:"peerGBps"`
	LocalGBps           float64       `yaml:"localGBps"`
	HostGBps            float64       `yaml:"hostGBps"`
	SMEfficiency        float64       `yaml:"smEfficiency"`
	LaunchLatency       time.Duration `yaml:"launchLatency"`
	PeerAccess          bool          `yaml:"peerAccess"`
	NUMANodes           []int         `yaml:"numaNodes"`
}

// Config is the run configuration. It is built once at startup and never
// modified afterwards.
type Config struct {
	Logger struct {
		Verbosity string `yaml:"verbosity"`
	} `yaml:"logger"`
	Run struct {
		BufferSizeMiB    uint64 `yaml:"bufferSize"`
		LoopCount        uint64 `yaml:"loopCount"`
		TestSamples      uint   `yaml:"testSamples"`
		SkipVerification bool   `yaml:"skipVerification"`
		DisableAffinity  bool   `yaml:"disableAffinity"`
		UseMean          bool   `yaml:"useMean"`
		SpinTimeoutMs    uint64 `yaml:"spinTimeoutMs"`
	} `yaml:"run"`
	Backend     string           `yaml:"backend"`
	MetricsFile string           `yaml:"metricsFile"`
	Simulation  SimulationConfig `yaml:"simulation"`
}

// Default returns the configuration used when no file or flag overrides a
// value.
func Default() *Config {
	cfg := &Config{}
	cfg.Logger.Verbosity = "info"
	cfg.Run.BufferSizeMiB = DefaultBufferSizeMiB
	cfg.Run.LoopCount = DefaultLoopCount
	cfg.Run.TestSamples = DefaultTestSamples
	cfg.Run.SpinTimeoutMs = DefaultSpinTimeoutMs
	cfg.Backend = BackendAuto
	cfg.Simulation = SimulationConfig{
		DeviceCount:         2,
		DeviceName:          "Simulated GPU",
		MultiprocessorCount: 108,
		ClockRateKHz:        1410000,
		HostToDeviceGBps:    25,
		DeviceToHostGBps:    26,
		PeerGBps:            250,
		LocalGBps:           1300,
		HostGBps:            40,
		SMEfficiency:        0.9,
		LaunchLatency:       4 * time.Microsecond,
		PeerAccess:          true,
	}
	return cfg
}

// LoadConfig reads a yaml file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate reports the first value that cannot drive a run.
func (c *Config) Validate() error {
	if c.Run.BufferSizeMiB == 0 {
		return fmt.Errorf("bufferSize must be positive")
	}
	if c.Run.BufferSizeMiB > math.MaxUint64/MiB {
		return fmt.Errorf("bufferSize of %d MiB does not fit in 64 bits of bytes", c.Run.BufferSizeMiB)
	}
	if c.Run.LoopCount == 0 {
		return fmt.Errorf("loopCount must be positive")
	}
	if c.Run.TestSamples == 0 {
		return fmt.Errorf("testSamples must be positive")
	}
	switch c.Backend {
	case BackendAuto, BackendCUDA, BackendSim:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	sim := c.Simulation
	if sim.DeviceCount < 0 {
		return fmt.Errorf("simulation.deviceCount must not be negative")
	}
	if sim.MultiprocessorCount <= 0 || sim.ClockRateKHz <= 0 {
		return fmt.Errorf("simulation.multiprocessorCount and simulation.clockRateKHz must be positive")
	}
	for name, bw := range map[string]float64{
		"hostToDeviceGBps": sim.HostToDeviceGBps,
		"deviceToHostGBps": sim.DeviceToHostGBps,
		"peerGBps":         sim.PeerGBps,
		"localGBps":        sim.LocalGBps,
		"hostGBps":         sim.HostGBps,
	} {
		if bw <= 0 {
			return fmt.Errorf("simulation.%s must be positive", name)
		}
	}
	if sim.SMEfficiency <= 0 || sim.SMEfficiency > 1 {
		return fmt.Errorf("simulation.smEfficiency must be in (0, 1]")
	}
	if len(sim.NUMANodes) != 0 && len(sim.NUMANodes) != sim.DeviceCount {
		return fmt.Errorf("simulation.numaNodes has %d entries for %d devices", len(sim.NUMANodes), sim.DeviceCount)
	}
	return nil
}

// BufferSize is the nominal per-node buffer size in bytes.
func (c *Config) BufferSize() uint64 {
	return c.Run.BufferSizeMiB * MiB
}

// DefaultBufferSize is the size at and above which SM copies use the strided
// kernel.
func (c *Config) DefaultBufferSize() uint64 {
	return DefaultBufferSizeMiB * MiB
}
