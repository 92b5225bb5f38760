package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fxnlabs/nvbandwidth/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		config, err := LoadConfig("../../fixtures/tests/config/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, config)

		assert.Equal(t, "debug", config.Logger.Verbosity)
		assert.Equal(t, uint64(32), config.Run.BufferSizeMiB)
		assert.Equal(t, uint64(32*MiB), config.BufferSize())
		assert.Equal(t, uint64(8), config.Run.LoopCount)
		assert.Equal(t, uint(5), config.Run.TestSamples)
		assert.True(t, config.Run.SkipVerification)
		assert.True(t, config.Run.UseMean)
		assert.False(t, config.Run.DisableAffinity)
		assert.Equal(t, BackendSim, config.Backend)
		assert.Equal(t, "/tmp/nvbandwidth.prom", config.MetricsFile)
		assert.Equal(t, 4, config.Simulation.DeviceCount)
		assert.Equal(t, 132, config.Simulation.MultiprocessorCount)
		assert.Equal(t, 400.0, config.Simulation.PeerGBps)
		assert.Equal(t, 2*time.Microsecond, config.Simulation.LaunchLatency)
		assert.False(t, config.Simulation.PeerAccess)
		assert.Equal(t, []int{0, 0, 1, 1}, config.Simulation.NUMANodes)
	})

	t.Run("missing values keep defaults", func(t *testing.T) {
		config, err := LoadConfig("../../fixtures/tests/config/valid_config.yaml")
		require.NoError(t, err)

		assert.Equal(t, uint64(DefaultSpinTimeoutMs), config.Run.SpinTimeoutMs)
		assert.Equal(t, Default().Simulation.HostToDeviceGBps, config.Simulation.HostToDeviceGBps)
		assert.Equal(t, Default().Simulation.ClockRateKHz, config.Simulation.ClockRateKHz)
	})

	t.Run("template matches defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, fixtures.ConfigTemplate, 0o600))

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, Default(), config)
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := LoadConfig("non-existent-file.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir, err := os.Getwd()
		require.NoError(t, err)

		configPath := filepath.Join(dir, "..", "..", "fixtures", "tests", "invalid_config", "config.yaml")
		_, err = LoadConfig(configPath)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := LoadConfig("../../fixtures/tests/config/bad_backend.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opencl")
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"zero buffer", func(c *Config) { c.Run.BufferSizeMiB = 0 }, "bufferSize"},
		{"buffer size overflows", func(c *Config) { c.Run.BufferSizeMiB = math.MaxUint64/MiB + 1 }, "bufferSize"},
		{"largest buffer size", func(c *Config) { c.Run.BufferSizeMiB = math.MaxUint64 / MiB }, ""},
		{"zero loops", func(c *Config) { c.Run.LoopCount = 0 }, "loopCount"},
		{"zero samples", func(c *Config) { c.Run.TestSamples = 0 }, "testSamples"},
		{"no sms", func(c *Config) { c.Simulation.MultiprocessorCount = 0 }, "multiprocessorCount"},
		{"zero peer bandwidth", func(c *Config) { c.Simulation.PeerGBps = 0 }, "peerGBps"},
		{"sm efficiency above one", func(c *Config) { c.Simulation.SMEfficiency = 1.5 }, "smEfficiency"},
		{"numa nodes length", func(c *Config) { c.Simulation.NUMANodes = []int{0} }, "numaNodes"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := c.Validate()
			if tc.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
