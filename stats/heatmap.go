package stats

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Window is one rotation interval's worth of latched data. Start and End tag
// the interval the snapshot covers; intervals from the same channel are
// contiguous unless a rotation was delayed, in which case a gap simply shows
// up as End of one window < Start of the next.
type Window struct {
	Start    time.Time
	End      time.Time
	Snapshot *Snapshot
}

// Heatmap retains the last K latched snapshots of a channel in a ring buffer,
// forming a bounded-memory distribution-over-time trace.
//
// It provides:
// - O(1) append with FIFO eviction once the ring is full
// - Ordered, oldest-to-newest access for waterfall-style traces
// - Thread-safe access from concurrent meter evaluations
//
// Evicting the oldest window at capacity is deliberate data loss: the heatmap
// is a trace, not an archive.
type Heatmap struct {
	mu       sync.RWMutex
	windows  []Window
	head     int // next write position
	count    int
	retained int
}

// NewHeatmap creates a heatmap retaining up to retained windows. Non-positive
// retention falls back to 60 windows.
func NewHeatmap(retained int) *Heatmap {
	if retained <= 0 {
		retained = 60
	}
	return &Heatmap{
		windows:  make([]Window, retained),
		retained: retained,
	}
}

// Push appends a latched snapshot tagged with its window bounds, evicting the
// oldest window if the ring is at capacity.
func (h *Heatmap) Push(s *Snapshot, start, end time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.windows[h.head] = Window{Start: start, End: end, Snapshot: s}
	h.head = (h.head + 1) % h.retained
	if h.count < h.retained {
		h.count++
	}
}

// Windows returns the retained windows, oldest to newest.
func (h *Heatmap) Windows() []Window {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Window, 0, h.count)
	start := (h.head - h.count + h.retained) % h.retained
	for i := 0; i < h.count; i++ {
		out = append(out, h.windows[(start+i)%h.retained])
	}
	return out
}

// Latest returns the most recently pushed window, if any.
func (h *Heatmap) Latest() (Window, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return Window{}, false
	}
	return h.windows[(h.head-1+h.retained)%h.retained], true
}

// Previous returns the second most recently pushed window, if any. Rate
// readings difference it against the latest window.
func (h *Heatmap) Previous() (Window, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count < 2 {
		return Window{}, false
	}
	return h.windows[(h.head-2+h.retained)%h.retained], true
}

// Len returns the number of retained windows.
func (h *Heatmap) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// WriteTrace writes the heatmap as a text trace, one line per non-empty
// bucket per window: "<window start unix ns> <window end unix ns> <value>
// <count>". Windows are written oldest to newest.
func (h *Heatmap) WriteTrace(w io.Writer) error {
	for _, win := range h.Windows() {
		for _, b := range win.Snapshot.Buckets() {
			_, err := fmt.Fprintf(w, "%d %d %g %d\n",
				win.Start.UnixNano(), win.End.UnixNano(), b.Value, b.Count)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
