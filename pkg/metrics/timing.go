// Package metrics keeps in-process timings and counters for the engine's hot
// paths (import, bucketing, rendering, export, source loading). Values are
// atomic so the TUI's command goroutines can record while the CLI reads.
//
// `sc --robot-metrics` prints them as JSON. SC_METRICS=0 turns collection
// off.
//
//	func (s *Session) Tree() model.Tree {
//	    defer metrics.Timer(metrics.Bucket)()
//	    ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled = os.Getenv("SC_METRICS") != "0"

// Enabled reports whether collection is on.
func Enabled() bool { return enabled }

// SetEnabled switches collection on or off.
func SetEnabled(e bool) { enabled = e }

// TimingMetric aggregates durations of one operation.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 until the first sample
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	for cur := m.max.Load(); ns > cur; cur = m.max.Load() {
		if m.max.CompareAndSwap(cur, ns) {
			break
		}
	}
	for cur := m.min.Load(); cur == 0 || ns < cur; cur = m.min.Load() {
		if m.min.CompareAndSwap(cur, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// MinNs returns the fastest sample, 0 when there is none.
func (m *TimingMetric) MinNs() int64 { return m.min.Load() }

// Stats snapshots the metric in milliseconds.
func (m *TimingMetric) Stats() TimingStats {
	count, total := m.count.Load(), m.total.Load()
	s := TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: ms(total),
		MaxMs:   ms(m.max.Load()),
		MinMs:   ms(m.min.Load()),
	}
	if count > 0 {
		s.AvgMs = ms(total / count)
	}
	return s
}

func ms(ns int64) float64 { return float64(ns) / 1e6 }

// Reset drops all samples.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// TimingStats is the JSON view of a TimingMetric.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer starts timing m; call the returned func to record the sample.
func Timer(m *TimingMetric) func() {
	if !enabled || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Engine timings.
var (
	Import = newTimingMetric("import")
	Bucket = newTimingMetric("bucket")
	Render = newTimingMetric("render")
	Export = newTimingMetric("export")
	Load   = newTimingMetric("load")
)

// AllTimingMetrics lists the engine timings in a fixed order.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{Import, Bucket, Render, Export, Load}
}

// AllTimingStats snapshots every timing that has samples.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range AllTimingMetrics() {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// ResetAll clears timings and counters.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCounters() {
		c.Reset()
	}
}
