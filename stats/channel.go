package stats

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Channel is the per-label state: one active (mutable) histogram, one heatmap
// of latched windows, and the set of registered interests. Channels are
// created lazily by the Registry and live for the process lifetime.
type Channel[T comparable] struct {
	label   T
	active  atomic.Pointer[Histogram]
	heatmap *Heatmap
	histCfg HistogramConfig

	mu        sync.Mutex
	interests map[Interest]struct{}

	// Rotation bookkeeping. Only touched while the registry's rotation
	// lock is held, so plain fields are fine.
	lastRotation time.Time
	cumulative   uint64
}

func newChannel[T comparable](label T, histCfg HistogramConfig, retained int, now time.Time) *Channel[T] {
	h, _ := NewHistogram(histCfg) // cfg validated at registry construction
	c := &Channel[T]{
		label:        label,
		heatmap:      NewHeatmap(retained),
		histCfg:      histCfg,
		interests:    make(map[Interest]struct{}),
		lastRotation: now,
	}
	c.active.Store(h)
	return c
}

// Label returns the channel's identifier.
func (c *Channel[T]) Label() T { return c.label }

// Heatmap returns the channel's historical windows.
func (c *Channel[T]) Heatmap() *Heatmap { return c.heatmap }

// record routes one sample into the active histogram.
//
// The writer gate makes the latch handoff exactly-once: after bumping the
// gate we re-load the active pointer, and if a rotation swapped it in between
// we back out and retry against the new histogram. A writer that passes the
// re-check is guaranteed to finish before latch reads the counters, because
// latch swaps the pointer first and then waits for the gate to drain. Every
// sample therefore lands in exactly one of the old or new histogram, never
// both, never neither.
func (c *Channel[T]) record(value uint64) {
	for {
		h := c.active.Load()
		h.writers.Add(1)
		if c.active.Load() == h {
			h.Record(value)
			h.writers.Add(-1)
			return
		}
		h.writers.Add(-1)
	}
}

// latch atomically retires the active histogram, installs a fresh one, and
// pushes the retired state onto the heatmap as the window
// [c.lastRotation, now). Callers must hold the registry's rotation lock.
func (c *Channel[T]) latch(now time.Time) *Snapshot {
	fresh, _ := NewHistogram(c.histCfg)
	old := c.active.Swap(fresh)

	// Wait for in-flight writers that passed the record re-check.
	for old.writers.Load() != 0 {
		runtime.Gosched()
	}

	snap := old.snapshot()
	c.cumulative += snap.total
	snap.cumulative = c.cumulative

	c.heatmap.Push(snap, c.lastRotation, now)
	c.lastRotation = now
	return snap
}

// registerInterest inserts the interest; duplicates are a no-op.
func (c *Channel[T]) registerInterest(in Interest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interests[in] = struct{}{}
}

// deregisterInterest removes the interest if present.
func (c *Channel[T]) deregisterInterest(in Interest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.interests, in)
}

// Interests returns a copy of the channel's registered interests.
func (c *Channel[T]) Interests() []Interest {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Interest, 0, len(c.interests))
	for in := range c.interests {
		out = append(out, in)
	}
	return out
}
