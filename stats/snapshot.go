package stats

import "math"

// Snapshot is the immutable, latched state of a retired Histogram. It is safe
// to read from any number of goroutines without synchronization.
type Snapshot struct {
	counts  []uint64
	total   uint64
	sum     uint64
	clipped uint64
	min     uint64
	max     uint64

	minValue uint64
	growth   float64

	// cumulative is the channel's all-time sample count at latch time,
	// maintained by Channel.latch. Rate readings difference it between
	// consecutive windows.
	cumulative uint64
}

// Bucket is one non-empty histogram bucket, reported by its representative
// value (the arithmetic midpoint of the bucket's interval).
type Bucket struct {
	Value float64
	Count uint64
}

// Count returns the number of samples latched into this snapshot.
func (s *Snapshot) Count() uint64 { return s.total }

// Sum returns the sum of all recorded values.
func (s *Snapshot) Sum() uint64 { return s.sum }

// Clipped returns how many samples fell outside the configured range and
// were clipped to a boundary bucket.
func (s *Snapshot) Clipped() uint64 { return s.clipped }

// Min returns the smallest recorded value, or 0 when the snapshot is empty.
func (s *Snapshot) Min() uint64 { return s.min }

// Max returns the largest recorded value, or 0 when the snapshot is empty.
func (s *Snapshot) Max() uint64 { return s.max }

// Cumulative returns the channel's all-time sample count at latch time.
func (s *Snapshot) Cumulative() uint64 { return s.cumulative }

// Mean returns the arithmetic mean of the recorded values, or 0 when the
// snapshot is empty.
func (s *Snapshot) Mean() float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.sum) / float64(s.total)
}

// Percentile estimates the value at percentile p in [0, 100] by scanning the
// cumulative bucket counts. The estimate is a bucket's representative value
// (its arithmetic midpoint), which is within the configured relative error of
// the true value for any sample inside the histogram's range. p=0 and p=100
// return the exact observed minimum and maximum. Fails with ErrEmptyHistogram
// when the snapshot holds no samples.
func (s *Snapshot) Percentile(p float64) (float64, error) {
	if s.total == 0 {
		return 0, ErrEmptyHistogram
	}
	if p <= 0 {
		return float64(s.min), nil
	}
	if p >= 100 {
		return float64(s.max), nil
	}

	target := uint64(math.Ceil(p / 100 * float64(s.total)))
	if target < 1 {
		target = 1
	}

	var cum uint64
	for i, c := range s.counts {
		cum += c
		if cum >= target {
			return s.representative(i), nil
		}
	}
	return float64(s.max), nil
}

// Buckets returns the non-empty buckets in ascending value order.
func (s *Snapshot) Buckets() []Bucket {
	out := make([]Bucket, 0, len(s.counts))
	for i, c := range s.counts {
		if c > 0 {
			out = append(out, Bucket{Value: s.representative(i), Count: c})
		}
	}
	return out
}

// representative returns the arithmetic midpoint of bucket i's interval.
func (s *Snapshot) representative(i int) float64 {
	lo := float64(s.minValue) * math.Pow(s.growth, float64(i))
	return lo * (1 + s.growth) / 2
}
