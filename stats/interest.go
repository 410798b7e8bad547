package stats

import (
	"strconv"
	"strings"
	"time"
)

// InterestKind selects which derived statistic a consumer wants from a
// channel.
type InterestKind int

const (
	// Count reports the channel's all-time sample count as of the latest
	// latched window.
	Count InterestKind = iota

	// Rate reports samples per second between the two most recent windows.
	Rate

	// Minimum reports the smallest value in the latest window.
	Minimum

	// Maximum reports the largest value in the latest window.
	Maximum

	// Mean reports the arithmetic mean of the latest window.
	Mean

	// Percentile reports an estimated percentile of the latest window.
	Percentile

	// Trace dumps the channel's heatmap to a file after each rotation.
	Trace
)

// String returns the kind's stat label.
func (k InterestKind) String() string {
	switch k {
	case Count:
		return "count"
	case Rate:
		return "rate"
	case Minimum:
		return "min"
	case Maximum:
		return "max"
	case Mean:
		return "mean"
	case Percentile:
		return "percentile"
	case Trace:
		return "trace"
	default:
		return "unknown"
	}
}

// Interest declares a derived statistic to compute for a channel. Interests
// are comparable values: registering the same Interest twice on a channel is
// idempotent.
type Interest struct {
	Kind InterestKind

	// Quantile is the requested percentile in [0, 100] when Kind is
	// Percentile. Unused otherwise.
	Quantile float64

	// Path is the trace destination file when Kind is Trace. Unused
	// otherwise.
	Path string
}

// PercentileInterest declares interest in percentile p of a channel.
func PercentileInterest(p float64) Interest {
	return Interest{Kind: Percentile, Quantile: p}
}

// TraceInterest declares interest in dumping a channel's heatmap to path
// after each rotation.
func TraceInterest(path string) Interest {
	return Interest{Kind: Trace, Path: path}
}

// DefaultPercentiles returns the standard reporting set: min, p50, p75, p90,
// p95, p99, p999, p9999 and max.
func DefaultPercentiles() []Interest {
	ps := []float64{0, 50, 75, 90, 95, 99, 99.9, 99.99, 100}
	out := make([]Interest, len(ps))
	for i, p := range ps {
		out[i] = PercentileInterest(p)
	}
	return out
}

// Validate checks the interest, returning a ConfigError if it is malformed.
func (i Interest) Validate() error {
	switch i.Kind {
	case Count, Rate, Minimum, Maximum, Mean:
		return nil
	case Percentile:
		if i.Quantile < 0 || i.Quantile > 100 {
			return ConfigError{Option: "percentile", Message: "must be between 0 and 100"}
		}
		return nil
	case Trace:
		if i.Path == "" {
			return ConfigError{Option: "trace", Message: "path must not be empty"}
		}
		return nil
	default:
		return ConfigError{Option: "interest", Message: "unknown kind"}
	}
}

// StatName returns the exported stat suffix for the interest, following the
// naming used on the /metrics and /vars endpoints: "count", "rate",
// "min_units", "max_units", "mean_units", or "p50_units" style percentile
// labels (p999 is 99.9, p9999 is 99.99).
func (i Interest) StatName() string {
	switch i.Kind {
	case Count, Rate:
		return i.Kind.String()
	case Minimum, Maximum, Mean:
		return i.Kind.String() + "_units"
	case Percentile:
		return percentileLabel(i.Quantile) + "_units"
	default:
		return i.Kind.String()
	}
}

// percentileLabel renders a quantile as a compact label: 0 -> min,
// 100 -> max, 50 -> p50, 99.9 -> p999.
func percentileLabel(q float64) string {
	switch q {
	case 0:
		return "min"
	case 100:
		return "max"
	}
	s := strconv.FormatFloat(q, 'f', -1, 64)
	return "p" + strings.Replace(s, ".", "", 1)
}

// Reading is the result of evaluating an Interest against a channel's most
// recent latched window.
type Reading[T comparable] struct {
	Channel  T
	Interest Interest
	Value    float64

	// Unavailable marks a reading that is still awaiting data: the channel
	// has no latched window yet, the latest window is empty, or a Rate has
	// only one window to work with. Consumers must not confuse it with a
	// real zero-valued statistic.
	Unavailable bool

	ComputedAt time.Time
}
