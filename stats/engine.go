package stats

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Config contains construction-time options for the Engine.
type Config struct {
	// RotationInterval is how often active histograms are latched. It sets
	// the heatmap window granularity and the staleness bound on readings:
	// a reading reflects data at most one interval old. Default: 1s.
	RotationInterval time.Duration

	// RetainedWindows is the heatmap retention depth K. Default: 60.
	RetainedWindows int

	// Histogram bounds the value range and accuracy of every channel's
	// histograms.
	Histogram HistogramConfig

	// Logger receives rotation and trace diagnostics. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default engine configuration: one-second
// rotation, 60 retained windows, and the default histogram range.
func DefaultConfig() Config {
	return Config{
		RotationInterval: time.Second,
		RetainedWindows:  60,
		Histogram:        DefaultHistogramConfig(),
	}
}

// Validate checks the configuration, returning a ConfigError describing the
// first invalid option.
func (c Config) Validate() error {
	if c.RotationInterval <= 0 {
		return ConfigError{Option: "rotation_interval", Message: "must be positive"}
	}
	if c.RetainedWindows < 1 {
		return ConfigError{Option: "retained_windows", Message: "must be at least 1"}
	}
	return c.Histogram.Validate()
}

// Engine ties the channel registry to a periodic rotation driver and exposes
// the ingestion, registration and read APIs.
//
// # Thread Safety
//
// Record may be called from any number of producer goroutines; it never
// blocks on rotation. Reads only touch immutable latched snapshots. The
// rotation driver runs in its own goroutine and is serialized with manual
// RotateNow calls.
type Engine[T comparable] struct {
	registry *Registry[T]
	cfg      Config
	log      *slog.Logger

	driverCtx    context.Context
	driverCancel context.CancelFunc
	driverWg     sync.WaitGroup
}

// New creates an Engine and starts its rotation driver. Stop must be called
// to release the driver goroutine. It fails with a ConfigError if the
// configuration is invalid.
func New[T comparable](cfg Config) (*Engine[T], error) {
	if cfg.RotationInterval == 0 {
		cfg.RotationInterval = time.Second
	}
	if cfg.RetainedWindows == 0 {
		cfg.RetainedWindows = 60
	}
	if cfg.Histogram == (HistogramConfig{}) {
		cfg.Histogram = DefaultHistogramConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	registry, err := NewRegistry[T](cfg.Histogram, cfg.RetainedWindows)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine[T]{
		registry:     registry,
		cfg:          cfg,
		log:          cfg.Logger,
		driverCtx:    ctx,
		driverCancel: cancel,
	}

	e.driverWg.Add(1)
	go e.runDriver()

	return e, nil
}

// Record counts one sample on the channel, stamped with the current time.
func (e *Engine[T]) Record(label T, value uint64) {
	e.registry.Record(label, value)
}

// RecordAt counts one sample with an explicit timestamp. The sample lands in
// the channel's currently active window regardless of the timestamp; the
// timestamp exists for callers that capture samples before handing them off.
func (e *Engine[T]) RecordAt(label T, _ time.Time, value uint64) {
	e.registry.Record(label, value)
}

// RegisterInterest declares a derived statistic on the channel. Idempotent.
func (e *Engine[T]) RegisterInterest(label T, in Interest) error {
	return e.registry.RegisterInterest(label, in)
}

// DeregisterInterest removes a previously registered interest.
func (e *Engine[T]) DeregisterInterest(label T, in Interest) {
	e.registry.DeregisterInterest(label, in)
}

// Read evaluates one interest against the channel's latest latched window.
//
// A Rate on a channel with fewer than two windows returns a Reading with
// Unavailable set and no error: that is an explicit "not yet available"
// state, not a failure. All other kinds return ErrInsufficientData alongside
// the unavailable Reading when the channel has no latched data, so callers
// can never mistake missing data for a real zero.
func (e *Engine[T]) Read(label T, in Interest) (Reading[T], error) {
	if err := in.Validate(); err != nil {
		return Reading[T]{}, err
	}

	ch, ok := e.registry.Get(label)
	if !ok {
		return Reading[T]{Channel: label, Interest: in, Unavailable: true, ComputedAt: time.Now()},
			fmt.Errorf("channel %v: %w", label, ErrInsufficientData)
	}

	reading := evaluate(ch, in, time.Now())
	if reading.Unavailable && in.Kind != Rate {
		return reading, fmt.Errorf("channel %v: %w", label, ErrInsufficientData)
	}
	return reading, nil
}

// Readings evaluates every registered numeric interest across all channels.
// Trace interests are skipped. Unavailable readings are included with their
// flag set so exporters can mark them rather than publish misleading zeros.
func (e *Engine[T]) Readings() []Reading[T] {
	now := time.Now()
	var out []Reading[T]
	for _, ch := range e.registry.Channels() {
		for _, in := range ch.Interests() {
			if in.Kind == Trace {
				continue
			}
			out = append(out, evaluate(ch, in, now))
		}
	}
	return out
}

// Heatmap returns the channel's retained windows, oldest to newest.
func (e *Engine[T]) Heatmap(label T) ([]Window, error) {
	ch, ok := e.registry.Get(label)
	if !ok {
		return nil, fmt.Errorf("channel %v: %w", label, ErrInsufficientData)
	}
	return ch.Heatmap().Windows(), nil
}

// RotateNow performs an immediate rotation, serialized with the driver.
func (e *Engine[T]) RotateNow() {
	e.rotate(time.Now())
}

// Stop cancels the rotation driver and waits for an in-flight rotation to
// complete, then performs a final rotation so the last partial window is
// latched rather than lost.
func (e *Engine[T]) Stop() {
	e.driverCancel()
	e.driverWg.Wait()
	e.rotate(time.Now())
}

// runDriver is the periodic rotation trigger.
func (e *Engine[T]) runDriver() {
	defer e.driverWg.Done()

	ticker := time.NewTicker(e.cfg.RotationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.driverCtx.Done():
			return
		case now := <-ticker.C:
			e.rotate(now)
		}
	}
}

// rotate latches all channels and services trace interests.
func (e *Engine[T]) rotate(now time.Time) {
	e.registry.RotateAll(now)
	e.log.Debug("rotated channels", "channels", len(e.registry.Channels()))
	e.saveTraces()
}

// saveTraces writes the heatmap of every channel with a Trace interest to its
// configured file. Trace failures are logged, never propagated: the write
// path must stay unaffected by export problems.
func (e *Engine[T]) saveTraces() {
	for _, ch := range e.registry.Channels() {
		for _, in := range ch.Interests() {
			if in.Kind != Trace {
				continue
			}
			if err := e.saveTrace(ch, in.Path); err != nil {
				e.log.Error("saving heatmap trace", "channel", fmt.Sprint(ch.Label()), "path", in.Path, "err", err)
			}
		}
	}
}

func (e *Engine[T]) saveTrace(ch *Channel[T], path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ch.Heatmap().WriteTrace(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Vars returns every available registered statistic as a flat name-to-value
// map, named "{channel}_{stat}" ("request_count", "request_p50_units", ...).
// Channel labels are rendered with fmt.Sprint. Unavailable readings are
// omitted entirely, so a consumer never sees a misleading zero for a channel
// still awaiting its first full window.
func (e *Engine[T]) Vars() map[string]float64 {
	readings := e.Readings()
	out := make(map[string]float64, len(readings))
	for _, r := range readings {
		if r.Unavailable {
			continue
		}
		out[fmt.Sprintf("%v_%s", r.Channel, r.Interest.StatName())] = r.Value
	}
	return out
}
