// Integration tests exercising the engine end to end with a real rotation
// driver and concurrent producers.
package stats

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_DriverRotatesPeriodically(t *testing.T) {
	e, err := New[string](Config{
		RotationInterval: 50 * time.Millisecond,
		RetainedWindows:  16,
		Histogram:        HistogramConfig{MinValue: 1, MaxValue: 1_000_000, Precision: 2},
	})
	require.NoError(t, err)
	defer e.Stop()

	require.NoError(t, e.RegisterInterest("request", Interest{Kind: Count}))
	require.NoError(t, e.RegisterInterest("request", Interest{Kind: Rate}))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					e.Record("request", uint64(rng.Intn(10_000))+1)
				}
			}
		}(int64(w))
	}

	// Let a few rotation intervals elapse.
	time.Sleep(300 * time.Millisecond)
	close(stop)
	wg.Wait()

	windows, err := e.Heatmap("request")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(windows), 2, "driver should have rotated several times")
	assert.LessOrEqual(t, len(windows), 16, "heatmap must not exceed retention")

	rate, err := e.Read("request", Interest{Kind: Rate})
	require.NoError(t, err)
	assert.False(t, rate.Unavailable)
	assert.Greater(t, rate.Value, 0.0)

	count, err := e.Read("request", Interest{Kind: Count})
	require.NoError(t, err)
	assert.Greater(t, count.Value, 0.0)
}

func TestEngine_ConcurrentReadersAndWriters(t *testing.T) {
	e, err := New[string](Config{
		RotationInterval: 20 * time.Millisecond,
		RetainedWindows:  8,
		Histogram:        HistogramConfig{MinValue: 1, MaxValue: 1_000_000, Precision: 2},
	})
	require.NoError(t, err)
	defer e.Stop()

	for _, in := range DefaultPercentiles() {
		require.NoError(t, e.RegisterInterest("mixed", in))
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					e.Record("mixed", uint64(rng.Intn(1000))+1)
				}
			}
		}(int64(w))
	}

	// Readers hammer the meter path while rotation and writes continue.
	for r := 0; r < 2; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = e.Readings()
					_ = e.Vars()
				}
			}
		}()
	}

	time.Sleep(200 * time.Millisecond)
	close(stop)
	wg.Wait()

	// After everything quiesces the cumulative count must be consistent
	// with a final rotation.
	e.RotateNow()
	count, err := e.Read("mixed", Interest{Kind: Count})
	require.NoError(t, err)
	assert.Greater(t, count.Value, 0.0)
}
