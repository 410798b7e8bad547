// Package config loads and validates engine configuration from YAML or JSON
// files. Files are checked structurally against an embedded JSON schema and
// then semantically (ranges, durations, interest specs) before being turned
// into a stats.Config.
package config

import (
	"fmt"
	"time"

	"github.com/statkit/pulse/stats"
)

// Config is the file-level configuration.
type Config struct {
	// RotationInterval is a duration string ("1s", "500ms", or bare
	// seconds like "60"). Defaults to 1s.
	RotationInterval string `yaml:"rotation_interval,omitempty" json:"rotation_interval,omitempty"`

	// RetainedWindows is the heatmap retention depth. Defaults to 60.
	RetainedWindows int `yaml:"retained_windows,omitempty" json:"retained_windows,omitempty"`

	// HistogramPrecision is the number of significant decimal digits
	// (1 to 5). Defaults to 2, bounding relative error at 1%.
	HistogramPrecision int `yaml:"histogram_precision,omitempty" json:"histogram_precision,omitempty"`

	// HistogramMin and HistogramMax bound the trackable value range.
	HistogramMin uint64 `yaml:"histogram_min,omitempty" json:"histogram_min,omitempty"`
	HistogramMax uint64 `yaml:"histogram_max,omitempty" json:"histogram_max,omitempty"`

	// HTTPListen is the address for the stats endpoints ("0.0.0.0:42024").
	// Empty disables the listener.
	HTTPListen string `yaml:"http_listen,omitempty" json:"http_listen,omitempty"`

	// Channels pre-registers interests per channel label.
	Channels map[string]ChannelConfig `yaml:"channels,omitempty" json:"channels,omitempty"`
}

// ChannelConfig pre-registers interests for one channel.
type ChannelConfig struct {
	Interests []InterestConfig `yaml:"interests" json:"interests"`
}

// InterestConfig is one declared statistic.
type InterestConfig struct {
	// Stat is one of count, rate, min, max, mean, percentile, trace.
	Stat string `yaml:"stat" json:"stat"`

	// Percentile is required when Stat is "percentile".
	Percentile float64 `yaml:"percentile,omitempty" json:"percentile,omitempty"`

	// Path is the trace destination, required when Stat is "trace".
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Interest converts the entry to a stats.Interest.
func (c InterestConfig) Interest() (stats.Interest, error) {
	var in stats.Interest
	switch c.Stat {
	case "count":
		in = stats.Interest{Kind: stats.Count}
	case "rate":
		in = stats.Interest{Kind: stats.Rate}
	case "min":
		in = stats.Interest{Kind: stats.Minimum}
	case "max":
		in = stats.Interest{Kind: stats.Maximum}
	case "mean":
		in = stats.Interest{Kind: stats.Mean}
	case "percentile":
		in = stats.PercentileInterest(c.Percentile)
	case "trace":
		in = stats.TraceInterest(c.Path)
	default:
		return stats.Interest{}, fmt.Errorf("unknown stat %q", c.Stat)
	}
	return in, in.Validate()
}

// EngineConfig resolves the file into a stats.Config, applying defaults for
// unset options.
func (c *Config) EngineConfig() (stats.Config, error) {
	out := stats.DefaultConfig()

	if c.RotationInterval != "" {
		d, err := ParseDurationString(c.RotationInterval)
		if err != nil {
			return stats.Config{}, fmt.Errorf("rotation_interval: %w", err)
		}
		out.RotationInterval = d
	}
	if c.RetainedWindows != 0 {
		out.RetainedWindows = c.RetainedWindows
	}
	if c.HistogramPrecision != 0 {
		out.Histogram.Precision = c.HistogramPrecision
	}
	if c.HistogramMin != 0 {
		out.Histogram.MinValue = c.HistogramMin
	}
	if c.HistogramMax != 0 {
		out.Histogram.MaxValue = c.HistogramMax
	}

	return out, out.Validate()
}

// ParseDurationString parses a duration string, accepting standard Go
// durations ("30s", "1h30m", "500ms") and bare integers treated as seconds.
func ParseDurationString(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var seconds int
	if _, err := fmt.Sscanf(s, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}
