package stats

import (
	"sync"
	"time"
)

// Registry maps channel labels to their per-channel state. The channel map is
// the only shared structure needing synchronized insertion; once resolved,
// the record hot path is lock-light.
type Registry[T comparable] struct {
	mu       sync.RWMutex
	channels map[T]*Channel[T]

	histCfg  HistogramConfig
	retained int

	// rotateMu serializes RotateAll so rotations never overlap and window
	// bounds stay contiguous.
	rotateMu sync.Mutex
}

// NewRegistry creates an empty registry. Channels created by it use histCfg
// for their active histograms and retain up to retained heatmap windows.
func NewRegistry[T comparable](histCfg HistogramConfig, retained int) (*Registry[T], error) {
	if err := histCfg.Validate(); err != nil {
		return nil, err
	}
	return &Registry[T]{
		channels: make(map[T]*Channel[T]),
		histCfg:  histCfg,
		retained: retained,
	}, nil
}

// GetOrCreate returns the channel for label, creating it on first use.
// Repeated calls with the same label return the same Channel.
func (r *Registry[T]) GetOrCreate(label T) *Channel[T] {
	r.mu.RLock()
	ch, ok := r.channels[label]
	r.mu.RUnlock()
	if ok {
		return ch
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok = r.channels[label]; ok {
		return ch
	}
	ch = newChannel(label, r.histCfg, r.retained, time.Now())
	r.channels[label] = ch
	return ch
}

// Get returns the channel for label if it exists.
func (r *Registry[T]) Get(label T) (*Channel[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[label]
	return ch, ok
}

// Record routes one sample to the label's active histogram, creating the
// channel if needed so early samples on unregistered channels are never
// dropped. It never blocks on rotation and never fails.
func (r *Registry[T]) Record(label T, value uint64) {
	r.GetOrCreate(label).record(value)
}

// RegisterInterest registers a derived statistic on the channel, creating the
// channel if needed. Registering the same interest twice has no additional
// effect.
func (r *Registry[T]) RegisterInterest(label T, in Interest) error {
	if err := in.Validate(); err != nil {
		return err
	}
	r.GetOrCreate(label).registerInterest(in)
	return nil
}

// DeregisterInterest removes a previously registered interest. Unknown
// channels or interests are a no-op.
func (r *Registry[T]) DeregisterInterest(label T, in Interest) {
	if ch, ok := r.Get(label); ok {
		ch.deregisterInterest(in)
	}
}

// RotateAll latches every channel's active histogram, installs fresh ones and
// advances the heatmaps, tagging each snapshot with the window
// [lastRotation, now). Rotations are serialized: a RotateAll must complete
// before the next begins.
func (r *Registry[T]) RotateAll(now time.Time) {
	r.rotateMu.Lock()
	defer r.rotateMu.Unlock()

	for _, ch := range r.list() {
		ch.latch(now)
	}
}

// Channels returns the registered channels in no particular order.
func (r *Registry[T]) Channels() []*Channel[T] {
	return r.list()
}

func (r *Registry[T]) list() []*Channel[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Channel[T], 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	return out
}
