// Package collector implements the in-process metrics aggregator.
//
// A Collector accumulates three kinds of metrics between exports: counters
// (monotonically incremented integers), gauges (last-set values), and
// histograms (recorded sample sequences summarized by percentiles). Export
// produces a snapshot and starts a new accumulation window: counters and
// histogram samples are cleared, gauges keep their last-known value.
package collector

import (
	"math"
	"sort"
	"sync"
)

// HistogramStats summarizes the samples recorded for one histogram.
type HistogramStats struct {
	// Count is the number of recorded samples
	Count int64 `json:"count"`

	// P50 is the median recorded sample
	P50 float64 `json:"p50"`

	// P95 is the 95th percentile recorded sample
	P95 float64 `json:"p95"`
}

// Snapshot is the result of a single export: a copy of all counters and
// gauges plus derived stats for every histogram with at least one sample.
// Snapshots are detached from the live collector, later mutations do not
// affect an already returned snapshot.
type Snapshot struct {
	Counters   map[string]int64          `json:"counters"`
	Gauges     map[string]float64        `json:"gauges"`
	Histograms map[string]HistogramStats `json:"histograms"`
}

// Collector aggregates counters, gauges and histograms in memory.
//
// All methods are safe for concurrent use. The zero value is not usable,
// create instances with New.
type Collector struct {
	// mu provides thread-safe access to the metric maps
	mu sync.Mutex

	// counters stores counter metrics as name -> value pairs
	counters map[string]int64

	// gauges stores gauge metrics as name -> value pairs
	gauges map[string]float64

	// histograms stores recorded samples as name -> sample slice pairs
	histograms map[string][]float64
}

// New creates a new collector with empty metric maps.
func New() *Collector {

	return &Collector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// Increment adds 1 to the named counter, creating it at zero if absent.
func (c *Collector) Increment(name string) {

	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name]++
}

// Add adds delta to the named counter, creating it at zero if absent.
//
// It is the batch form of Increment, used when counter updates arrive
// as deltas over the wire.
func (c *Collector) Add(name string, delta int64) {

	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += delta
}

// SetGauge overwrites the named gauge's current value.
func (c *Collector) SetGauge(name string, value float64) {

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = value
}

// RecordHistogram appends value to the named sample sequence, creating it
// if absent.
func (c *Collector) RecordHistogram(name string, value float64) {

	c.mu.Lock()
	defer c.mu.Unlock()
	c.histograms[name] = append(c.histograms[name], value)
}

// Counter returns the named counter's current value, or 0 if it was never
// incremented.
func (c *Collector) Counter(name string) int64 {

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

// Gauge returns the named gauge's current value. The second return value
// is false if the gauge was never set.
func (c *Collector) Gauge(name string) (float64, bool) {

	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.gauges[name]
	return value, ok
}

// HistogramStats returns count, p50 and p95 computed over all samples
// recorded for name since the last export. The second return value is
// false if no samples were recorded.
func (c *Collector) HistogramStats(name string) (HistogramStats, bool) {

	c.mu.Lock()
	defer c.mu.Unlock()
	samples, ok := c.histograms[name]
	if !ok || len(samples) == 0 {
		return HistogramStats{}, false
	}
	return Summarize(samples), true
}

// Export returns a snapshot of all current state and starts a new
// accumulation window.
//
// Counters and histogram samples are cleared, matching their meaning as
// per-window totals and distributions. Gauges are last-known values and
// survive the export untouched.
func (c *Collector) Export() Snapshot {

	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := Snapshot{
		Counters:   make(map[string]int64, len(c.counters)),
		Gauges:     make(map[string]float64, len(c.gauges)),
		Histograms: make(map[string]HistogramStats, len(c.histograms)),
	}
	for name, value := range c.counters {
		snapshot.Counters[name] = value
	}
	for name, value := range c.gauges {
		snapshot.Gauges[name] = value
	}
	for name, samples := range c.histograms {
		if len(samples) == 0 {
			continue
		}
		snapshot.Histograms[name] = Summarize(samples)
	}

	c.counters = make(map[string]int64)
	c.histograms = make(map[string][]float64)

	return snapshot
}

// Summarize computes histogram stats over a sample set using the
// nearest-rank percentile rule. It is shared with storage backends that
// keep their own sample sequences.
func Summarize(samples []float64) HistogramStats {

	if len(samples) == 0 {
		return HistogramStats{}
	}
	return HistogramStats{
		Count: int64(len(samples)),
		P50:   percentile(samples, 0.50),
		P95:   percentile(samples, 0.95),
	}
}

// percentile computes the p-th percentile of values using the nearest-rank
// rule: the result is the sample at index ceil(p*n)-1 of the sorted copy.
// Every reported percentile is therefore an actually recorded sample.
// The values slice is not modified.
func percentile(values []float64, p float64) float64 {

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
