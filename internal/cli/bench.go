package cli

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/spf13/cobra"

	"github.com/statkit/pulse/internal/output"
	"github.com/statkit/pulse/stats"
)

var (
	benchWorkers   int
	benchChannels  int
	benchDuration  time.Duration
	benchRotation  time.Duration
	benchPrecision int
	benchMin       uint64
	benchMax       uint64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Drive the engine with synthetic load and verify its estimates",
	Long: `Bench records synthetic latency samples into the engine from many
concurrent workers while keeping an independent client-side HDR histogram
per channel. When the run completes it prints the engine's readings next to
the HDR reference values so percentile accuracy can be eyeballed directly.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchWorkers, "workers", "w", 8, "concurrent producer goroutines")
	benchCmd.Flags().IntVarP(&benchChannels, "channels", "c", 2, "number of channels")
	benchCmd.Flags().DurationVarP(&benchDuration, "duration", "d", 10*time.Second, "benchmark duration")
	benchCmd.Flags().DurationVar(&benchRotation, "rotation", time.Second, "rotation interval")
	benchCmd.Flags().IntVar(&benchPrecision, "precision", 2, "histogram precision digits")
	benchCmd.Flags().Uint64Var(&benchMin, "min", 1, "histogram minimum value (ns)")
	benchCmd.Flags().Uint64Var(&benchMax, "max", 60_000_000_000, "histogram maximum value (ns)")
}

// refHistogram is the client-side verification histogram. HDR histograms are
// not safe for concurrent writes, so a mutex guards it; contention here is
// the benchmark's cost, not the engine's.
type refHistogram struct {
	mu sync.Mutex
	h  *hdrhistogram.Histogram
}

func (r *refHistogram) record(v uint64) {
	r.mu.Lock()
	_ = r.h.RecordValue(int64(v))
	r.mu.Unlock()
}

func (r *refHistogram) quantile(q float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return float64(r.h.ValueAtQuantile(q))
}

var benchQuantiles = []float64{50, 90, 99, 99.9}

func runBench(cmd *cobra.Command, args []string) error {
	log := newLogger()

	engine, err := stats.New[string](stats.Config{
		RotationInterval: benchRotation,
		RetainedWindows:  60,
		Histogram: stats.HistogramConfig{
			MinValue:  benchMin,
			MaxValue:  benchMax,
			Precision: benchPrecision,
		},
		Logger: log,
	})
	if err != nil {
		return err
	}

	labels := make([]string, benchChannels)
	refs := make([]*refHistogram, benchChannels)
	for i := range labels {
		labels[i] = fmt.Sprintf("channel_%d", i)
		refs[i] = &refHistogram{h: hdrhistogram.New(int64(benchMin), int64(benchMax), benchPrecision)}

		for _, in := range benchInterests() {
			if err := engine.RegisterInterest(labels[i], in); err != nil {
				return err
			}
		}
	}

	log.Info("benchmark starting",
		"workers", benchWorkers, "channels", benchChannels, "duration", benchDuration)

	var total atomic.Uint64
	deadline := time.Now().Add(benchDuration)
	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < benchWorkers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for time.Now().Before(deadline) {
				i := rng.Intn(benchChannels)
				v := syntheticLatency(rng)
				engine.Record(labels[i], v)
				refs[i].record(v)
				total.Add(1)
			}
		}(int64(w) + 1)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Latch the final partial window before reading.
	engine.Stop()

	summary := &output.Summary{
		Duration: elapsed,
		Workers:  benchWorkers,
		Total:    total.Load(),
	}
	for i, label := range labels {
		summary.Channels = append(summary.Channels, channelSummary(engine, label, refs[i]))
	}

	output.Render(os.Stdout, output.SchemeFor(flagNoColor), summary)
	return nil
}

func benchInterests() []stats.Interest {
	out := []stats.Interest{
		{Kind: stats.Count},
		{Kind: stats.Rate},
		{Kind: stats.Minimum},
		{Kind: stats.Maximum},
		{Kind: stats.Mean},
	}
	for _, q := range benchQuantiles {
		out = append(out, stats.PercentileInterest(q))
	}
	return out
}

// syntheticLatency draws a latency in nanoseconds with a long-tailed shape:
// a 50us floor plus an exponential tail averaging 200us.
func syntheticLatency(rng *rand.Rand) uint64 {
	return uint64(50_000 + rng.ExpFloat64()*200_000)
}

func channelSummary[T comparable](engine *stats.Engine[T], label T, ref *refHistogram) output.ChannelSummary {
	cs := output.ChannelSummary{Channel: fmt.Sprint(label)}

	if r, err := engine.Read(label, stats.Interest{Kind: stats.Count}); err == nil {
		cs.Count = uint64(r.Value)
	}
	if r, err := engine.Read(label, stats.Interest{Kind: stats.Rate}); err == nil && !r.Unavailable {
		cs.Rate = r.Value
		cs.RateKnown = true
	}
	if r, err := engine.Read(label, stats.Interest{Kind: stats.Minimum}); err == nil {
		cs.Min = uint64(r.Value)
	}
	if r, err := engine.Read(label, stats.Interest{Kind: stats.Maximum}); err == nil {
		cs.Max = uint64(r.Value)
	}
	if r, err := engine.Read(label, stats.Interest{Kind: stats.Mean}); err == nil {
		cs.Mean = r.Value
	}

	if windows, err := engine.Heatmap(label); err == nil {
		cs.Windows = len(windows)
		if len(windows) > 0 {
			cs.Clipped = windows[len(windows)-1].Snapshot.Clipped()
		}
	}

	for _, q := range benchQuantiles {
		r, err := engine.Read(label, stats.PercentileInterest(q))
		if err != nil {
			continue
		}
		cs.Percentiles = append(cs.Percentiles, output.PercentileRow{
			Label:     fmt.Sprintf("p%g", q),
			Engine:    r.Value,
			Reference: ref.quantile(q),
		})
	}
	return cs
}
