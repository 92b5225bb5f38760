package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandwidthMetrics(t *testing.T) {
	t.Run("Bandwidth", func(t *testing.T) {
		Bandwidth.WithLabelValues("host_to_device_memcpy_ce", "Host", "Device 0").Set(24.5)
		value := testutil.ToFloat64(Bandwidth.WithLabelValues("host_to_device_memcpy_ce", "Host", "Device 0"))
		assert.Equal(t, 24.5, value)
	})

	t.Run("TestcaseResults", func(t *testing.T) {
		before := testutil.ToFloat64(TestcaseResults.WithLabelValues("x", "waived"))
		TestcaseResults.WithLabelValues("x", "waived").Inc()
		TestcaseResults.WithLabelValues("x", "waived").Inc()
		assert.Equal(t, before+2, testutil.ToFloat64(TestcaseResults.WithLabelValues("x", "waived")))
	})

	t.Run("BytesCopied", func(t *testing.T) {
		BytesCopied.WithLabelValues("sm").Add(1 << 20)
		assert.GreaterOrEqual(t, testutil.ToFloat64(BytesCopied.WithLabelValues("sm")), float64(1<<20))
	})

	t.Run("SampleBandwidth", func(t *testing.T) {
		assert.NotPanics(t, func() {
			SampleBandwidth.WithLabelValues("ce").Observe(25.1)
		})
		assert.Equal(t, 1, testutil.CollectAndCount(SampleBandwidth))
	})
}

func TestWriteTextfile(t *testing.T) {
	VerificationFailures.Inc()
	BytesCopied.WithLabelValues("ce").Add(16)
	path := filepath.Join(t.TempDir(), "nvbandwidth.prom")

	require.NoError(t, WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "nvbandwidth_verification_failures_total")
	assert.Contains(t, string(data), "# TYPE nvbandwidth_bytes_copied_total counter")
}
