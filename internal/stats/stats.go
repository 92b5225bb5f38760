// Package stats accumulates per-sample bandwidth measurements.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mode selects the value a statistic reports.
type Mode int

const (
	Median Mode = iota
	Mean
)

// ModeFor returns the reporting mode for the useMean setting.
func ModeFor(useMean bool) Mode {
	if useMean {
		return Mean
	}
	return Median
}

func (m Mode) String() string {
	if m == Mean {
		return "mean"
	}
	return "median"
}

// PerformanceStatistic is an unordered collection of samples.
type PerformanceStatistic struct {
	mode    Mode
	samples []float64
}

func New(mode Mode) *PerformanceStatistic {
	return &PerformanceStatistic{mode: mode}
}

func (p *PerformanceStatistic) Add(v float64) {
	p.samples = append(p.samples, v)
}

func (p *PerformanceStatistic) Len() int {
	return len(p.samples)
}

// Median returns the middle sample, or the average of the two middle
// samples for an even count. It panics when there are no samples.
func (p *PerformanceStatistic) Median() float64 {
	p.mustHaveSamples()
	sorted := make([]float64, len(p.samples))
	copy(sorted, p.samples)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Mean panics when there are no samples.
func (p *PerformanceStatistic) Mean() float64 {
	p.mustHaveSamples()
	return stat.Mean(p.samples, nil)
}

// StdDev is the sample standard deviation, 0 below two samples.
func (p *PerformanceStatistic) StdDev() float64 {
	if len(p.samples) < 2 {
		return 0
	}
	return stat.StdDev(p.samples, nil)
}

func (p *PerformanceStatistic) Min() float64 {
	p.mustHaveSamples()
	return floats.Min(p.samples)
}

func (p *PerformanceStatistic) Max() float64 {
	p.mustHaveSamples()
	return floats.Max(p.samples)
}

// Value is the median or the mean, according to the statistic's mode.
func (p *PerformanceStatistic) Value() float64 {
	if p.mode == Mean {
		return p.Mean()
	}
	return p.Median()
}

func (p *PerformanceStatistic) mustHaveSamples() {
	if len(p.samples) == 0 {
		panic("stats: no samples recorded")
	}
}
