package stats

import (
	"math"
	"sync/atomic"
)

// HistogramConfig bounds the value range and accuracy of a Histogram.
type HistogramConfig struct {
	// MinValue is the smallest trackable value. Must be at least 1.
	MinValue uint64

	// MaxValue is the largest trackable value. Values outside
	// [MinValue, MaxValue] are clipped to the nearest boundary bucket.
	MaxValue uint64

	// Precision is the number of significant decimal digits. A precision
	// of d bounds the relative error of any recorded value by 10^-d, so
	// precision 2 gives at most 1% error. Valid range is 1 to 5; higher
	// precision costs proportionally more buckets.
	Precision int
}

// DefaultHistogramConfig returns the default configuration: one nanosecond to
// one minute in nanoseconds, with at most 1% relative error.
func DefaultHistogramConfig() HistogramConfig {
	return HistogramConfig{
		MinValue:  1,
		MaxValue:  60_000_000_000,
		Precision: 2,
	}
}

// Validate checks the configuration, returning a ConfigError describing the
// first invalid option.
func (c HistogramConfig) Validate() error {
	if c.MinValue < 1 {
		return ConfigError{Option: "histogram_min", Message: "must be at least 1"}
	}
	if c.MinValue >= c.MaxValue {
		return ConfigError{Option: "histogram_range", Message: "min must be less than max"}
	}
	if c.Precision < 1 || c.Precision > 5 {
		return ConfigError{Option: "histogram_precision", Message: "must be between 1 and 5"}
	}
	return nil
}

// epsilon is the relative error bound implied by the configured precision.
func (c HistogramConfig) epsilon() float64 {
	return math.Pow(10, -float64(c.Precision))
}

// Histogram is a log-bucketed frequency counter over a bounded value range.
//
// Bucket i covers [MinValue*growth^i, MinValue*growth^(i+1)) with
// growth = 1 + 2*epsilon, so the arithmetic midpoint of any bucket is within
// epsilon (relative) of every value the bucket can hold.
//
// # Thread Safety
//
// Record is safe for concurrent use from any number of goroutines: each
// bucket is an atomic counter and the running aggregates (total, sum, min,
// max, clipped) are maintained with atomic operations. No lock is taken on
// the write path. Snapshotting is coordinated by Channel, which guarantees
// all in-flight writers have drained before the counters are read.
type Histogram struct {
	minValue     uint64
	maxValue     uint64
	growth       float64
	invLogGrowth float64

	counts  []atomic.Uint64
	total   atomic.Uint64
	sum     atomic.Uint64
	min     atomic.Uint64
	max     atomic.Uint64
	clipped atomic.Uint64

	// writers gates the latch handoff; see Channel.record and Channel.latch.
	writers atomic.Int64
}

// NewHistogram creates an empty Histogram. It fails with a ConfigError if the
// range or precision is invalid.
func NewHistogram(cfg HistogramConfig) (*Histogram, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eps := cfg.epsilon()
	growth := 1 + 2*eps
	// The top bucket is the one whose interval contains MaxValue, so
	// values clipped to the upper boundary keep the error bound.
	span := math.Log(float64(cfg.MaxValue)/float64(cfg.MinValue)) / math.Log(growth)
	numBuckets := int(math.Floor(span)) + 1

	h := &Histogram{
		minValue:     cfg.MinValue,
		maxValue:     cfg.MaxValue,
		growth:       growth,
		invLogGrowth: 1 / math.Log(growth),
		counts:       make([]atomic.Uint64, numBuckets),
	}
	h.min.Store(math.MaxUint64)
	return h, nil
}

// Record counts one occurrence of value. Values outside the configured range
// are clipped to the boundary bucket and tallied in the clipped counter; they
// are never dropped. The raw (unclipped) value still feeds min, max and sum.
func (h *Histogram) Record(value uint64) {
	h.counts[h.bucketIndex(value)].Add(1)
	if value < h.minValue || value > h.maxValue {
		h.clipped.Add(1)
	}

	h.total.Add(1)
	h.sum.Add(value)

	for {
		cur := h.min.Load()
		if value >= cur || h.min.CompareAndSwap(cur, value) {
			break
		}
	}
	for {
		cur := h.max.Load()
		if value <= cur || h.max.CompareAndSwap(cur, value) {
			break
		}
	}
}

// bucketIndex maps a value to its bucket via the log-linear scheme.
func (h *Histogram) bucketIndex(value uint64) int {
	if value <= h.minValue {
		return 0
	}
	if value >= h.maxValue {
		return len(h.counts) - 1
	}
	idx := int(math.Log(float64(value)/float64(h.minValue)) * h.invLogGrowth)
	if idx >= len(h.counts) {
		idx = len(h.counts) - 1
	}
	return idx
}

// snapshot copies the histogram's state into an immutable Snapshot. The
// caller must guarantee no Record calls are in flight; Channel.latch drains
// the writer gate before invoking it.
func (h *Histogram) snapshot() *Snapshot {
	s := &Snapshot{
		counts:   make([]uint64, len(h.counts)),
		total:    h.total.Load(),
		sum:      h.sum.Load(),
		clipped:  h.clipped.Load(),
		minValue: h.minValue,
		growth:   h.growth,
	}
	for i := range h.counts {
		s.counts[i] = h.counts[i].Load()
	}
	if s.total > 0 {
		s.min = h.min.Load()
		s.max = h.max.Load()
	}
	return s
}
