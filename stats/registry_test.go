package stats

import (
	"sync"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T) *Registry[string] {
	t.Helper()
	r, err := NewRegistry[string](DefaultHistogramConfig(), 8)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRegistry_GetOrCreateReturnsSameChannel(t *testing.T) {
	r := newTestRegistry(t)

	a := r.GetOrCreate("request")
	b := r.GetOrCreate("request")
	if a != b {
		t.Error("GetOrCreate returned different instances for the same label")
	}

	c := r.GetOrCreate("response")
	if a == c {
		t.Error("GetOrCreate returned the same instance for different labels")
	}
}

func TestRegistry_RecordCreatesChannel(t *testing.T) {
	r := newTestRegistry(t)

	r.Record("request", 42)

	ch, ok := r.Get("request")
	if !ok {
		t.Fatal("channel not created on first record")
	}

	r.RotateAll(time.Now())
	latest, ok := ch.Heatmap().Latest()
	if !ok {
		t.Fatal("no latched window after rotation")
	}
	if latest.Snapshot.Count() != 1 {
		t.Errorf("latched count = %d, want 1 (early sample must not be dropped)", latest.Snapshot.Count())
	}
}

func TestRegistry_InterestRegistrationIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	in := PercentileInterest(99)

	if err := r.RegisterInterest("request", in); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterInterest("request", in); err != nil {
		t.Fatal(err)
	}

	ch, _ := r.Get("request")
	if got := len(ch.Interests()); got != 1 {
		t.Errorf("interests = %d, want 1 (duplicate registration must be a no-op)", got)
	}

	r.DeregisterInterest("request", in)
	if got := len(ch.Interests()); got != 0 {
		t.Errorf("interests after deregister = %d, want 0", got)
	}
}

func TestRegistry_RegisterInterestValidates(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.RegisterInterest("request", PercentileInterest(101)); err == nil {
		t.Error("registering percentile 101 succeeded, want ConfigError")
	}
	if err := r.RegisterInterest("request", Interest{Kind: Trace}); err == nil {
		t.Error("registering trace without path succeeded, want ConfigError")
	}
}

// Samples racing with a rotation must land in exactly one of the retired
// snapshot or the new active histogram: summing the latched windows with the
// final window must account for every record call exactly once.
func TestRegistry_RotationLosesNothing(t *testing.T) {
	r := newTestRegistry(t)

	const writers = 8
	const perWriter = 20_000
	const rotations = 20

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				r.Record("request", uint64(i%1000+1))
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rotations; i++ {
			r.RotateAll(time.Now())
		}
	}()

	wg.Wait()
	<-done

	// Final rotation latches whatever is still in the active histogram.
	r.RotateAll(time.Now())

	// The cumulative counter sums every latched window, including ones
	// already evicted from the ring.
	ch, _ := r.Get("request")
	latest, _ := ch.Heatmap().Latest()
	if latest.Snapshot.Cumulative() != writers*perWriter {
		t.Errorf("cumulative = %d, want %d (no loss, no duplication)",
			latest.Snapshot.Cumulative(), writers*perWriter)
	}
}

func TestRegistry_RotationWindowsAreContiguous(t *testing.T) {
	r := newTestRegistry(t)
	r.Record("request", 1)

	t0 := time.Unix(2000, 0)
	r.RotateAll(t0)
	r.RotateAll(t0.Add(time.Second))
	r.RotateAll(t0.Add(2 * time.Second))

	ch, _ := r.Get("request")
	windows := ch.Heatmap().Windows()
	if len(windows) != 3 {
		t.Fatalf("windows = %d, want 3", len(windows))
	}
	for i := 1; i < len(windows); i++ {
		if !windows[i].Start.Equal(windows[i-1].End) {
			t.Errorf("window %d start %v != previous end %v",
				i, windows[i].Start, windows[i-1].End)
		}
	}
}
