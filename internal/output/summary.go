package output

import (
	"fmt"
	"io"
	"math"
	"time"
)

// PercentileRow pairs the engine's percentile estimate with the benchmark's
// client-side reference value for the same quantile.
type PercentileRow struct {
	Label     string
	Engine    float64
	Reference float64
}

// ChannelSummary holds the final readings for one channel.
type ChannelSummary struct {
	Channel     string
	Count       uint64
	Clipped     uint64
	Rate        float64
	RateKnown   bool
	Min         uint64
	Max         uint64
	Mean        float64
	Windows     int
	Percentiles []PercentileRow
}

// Summary is the full benchmark result.
type Summary struct {
	Duration time.Duration
	Workers  int
	Total    uint64
	Channels []ChannelSummary
}

// Render writes a human-readable summary.
func Render(w io.Writer, scheme *ColorScheme, s *Summary) {
	scheme.Header.Fprintln(w, "benchmark complete")
	fmt.Fprintf(w, "%s %s   %s %d   %s %d samples (%.0f/s)\n\n",
		scheme.Label.Sprint("duration:"), s.Duration.Round(time.Millisecond),
		scheme.Label.Sprint("workers:"), s.Workers,
		scheme.Label.Sprint("recorded:"), s.Total,
		float64(s.Total)/s.Duration.Seconds())

	for _, ch := range s.Channels {
		scheme.Channel.Fprintf(w, "channel %s\n", ch.Channel)
		fmt.Fprintf(w, "  %s %d   %s %d windows",
			scheme.Label.Sprint("count:"), ch.Count,
			scheme.Label.Sprint("heatmap:"), ch.Windows)
		if ch.Clipped > 0 {
			fmt.Fprintf(w, "   %s %d", scheme.Warn.Sprint("clipped:"), ch.Clipped)
		}
		fmt.Fprintln(w)

		if ch.RateKnown {
			fmt.Fprintf(w, "  %s %.2f samples/s\n", scheme.Label.Sprint("rate:"), ch.Rate)
		} else {
			fmt.Fprintf(w, "  %s %s\n", scheme.Label.Sprint("rate:"), scheme.Subtle.Sprint("not yet available"))
		}
		fmt.Fprintf(w, "  %s min %d  mean %.1f  max %d\n",
			scheme.Label.Sprint("range:"), ch.Min, ch.Mean, ch.Max)

		if len(ch.Percentiles) > 0 {
			fmt.Fprintf(w, "  %-8s %12s %12s %8s\n", "", "engine", "reference", "delta")
			for _, p := range ch.Percentiles {
				delta := relativeDelta(p.Engine, p.Reference)
				c := deltaColor(scheme, delta)
				fmt.Fprintf(w, "  %-8s %12.1f %12.1f %s\n",
					p.Label, p.Engine, p.Reference, c.Sprintf("%7.2f%%", delta*100))
			}
		}
		fmt.Fprintln(w)
	}
}

func relativeDelta(engine, reference float64) float64 {
	if reference == 0 {
		return 0
	}
	return math.Abs(engine-reference) / reference
}

func deltaColor(scheme *ColorScheme, delta float64) colorPrinter {
	switch {
	case delta <= 0.01:
		return scheme.Good
	case delta <= 0.05:
		return scheme.Warn
	default:
		return scheme.Bad
	}
}

type colorPrinter interface {
	Sprintf(format string, a ...interface{}) string
}
