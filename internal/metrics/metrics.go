package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TestcaseResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nvbandwidth_testcase_results_total",
		Help: "The total number of test cases run, by outcome",
	}, []string{"testcase", "status"})

	TestcaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nvbandwidth_testcase_duration_seconds",
		Help:    "Wall-clock duration of a test case",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~3min
	}, []string{"testcase"})

	// Bandwidth holds the reported value of every matrix cell.
	Bandwidth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nvbandwidth_bandwidth_gbps",
		Help: "Measured bandwidth in GB/s",
	}, []string{"testcase", "src", "dst"})

	SampleBandwidth = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nvbandwidth_sample_bandwidth_gbps",
		Help:    "Bandwidth of a single link sample in GB/s",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 to 2048 GB/s
	}, []string{"copy_kind"})

	BytesCopied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nvbandwidth_bytes_copied_total",
		Help: "Bytes moved by timed copies",
	}, []string{"copy_kind"})

	VerificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nvbandwidth_verification_failures_total",
		Help: "Buffers that did not hold the expected pattern after a copy",
	})
)

// WriteTextfile writes every registered metric to path in the text
// exposition format, for the node exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
