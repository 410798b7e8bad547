package stats

import "time"

// evaluate computes a reading for one interest against the channel's latest
// latched window. It only reads immutable snapshots, so it never blocks
// producers or the rotation driver.
func evaluate[T comparable](ch *Channel[T], in Interest, now time.Time) Reading[T] {
	reading := Reading[T]{
		Channel:    ch.Label(),
		Interest:   in,
		ComputedAt: now,
	}

	latest, ok := ch.heatmap.Latest()
	if !ok {
		reading.Unavailable = true
		return reading
	}
	snap := latest.Snapshot

	switch in.Kind {
	case Count:
		reading.Value = float64(snap.Cumulative())

	case Rate:
		prev, ok := ch.heatmap.Previous()
		if !ok {
			reading.Unavailable = true
			return reading
		}
		elapsed := latest.End.Sub(prev.End).Seconds()
		if elapsed <= 0 {
			reading.Unavailable = true
			return reading
		}
		delta := snap.Cumulative() - prev.Snapshot.Cumulative()
		reading.Value = float64(delta) / elapsed

	case Minimum:
		if snap.Count() == 0 {
			reading.Unavailable = true
			return reading
		}
		reading.Value = float64(snap.Min())

	case Maximum:
		if snap.Count() == 0 {
			reading.Unavailable = true
			return reading
		}
		reading.Value = float64(snap.Max())

	case Mean:
		if snap.Count() == 0 {
			reading.Unavailable = true
			return reading
		}
		reading.Value = snap.Mean()

	case Percentile:
		v, err := snap.Percentile(in.Quantile)
		if err != nil {
			reading.Unavailable = true
			return reading
		}
		reading.Value = v

	default:
		// Trace interests have no numeric value; the rotation driver
		// handles them.
		reading.Unavailable = true
	}

	return reading
}
