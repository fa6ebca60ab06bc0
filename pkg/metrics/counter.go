package metrics

import "sync/atomic"

// Counter is a monotonically increasing event count.
type Counter struct {
	name  string
	value int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

// Add increments the counter by n.
func (c *Counter) Add(n int64) {
	if !enabled {
		return
	}
	atomic.AddInt64(&c.value, n)
}

// Inc increments the counter by one.
func (c *Counter) Inc() {
	c.Add(1)
}

// Name returns the counter name.
func (c *Counter) Name() string {
	return c.name
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	return atomic.LoadInt64(&c.value)
}

// Reset sets the counter back to zero.
func (c *Counter) Reset() {
	atomic.StoreInt64(&c.value, 0)
}

// CounterStats is a snapshot of a counter.
type CounterStats struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Global counters.
var (
	ParseSkips     = newCounter("parse_skips")
	EmptyImports   = newCounter("empty_imports")
	ToleranceMiss  = newCounter("tolerance_misses")
	RejectedFields = newCounter("rejected_fields")
)

// AllCounters returns all registered counters.
func AllCounters() []*Counter {
	return []*Counter{ParseSkips, EmptyImports, ToleranceMiss, RejectedFields}
}

// AllCounterStats returns a snapshot of every non-zero counter.
func AllCounterStats() []CounterStats {
	var stats []CounterStats
	for _, c := range AllCounters() {
		if v := c.Value(); v > 0 {
			stats = append(stats, CounterStats{Name: c.name, Value: v})
		}
	}
	return stats
}
