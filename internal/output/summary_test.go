package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func renderToString(s *Summary) string {
	var buf bytes.Buffer
	Render(&buf, NoColorScheme(), s)
	return buf.String()
}

func TestRender_BasicSummary(t *testing.T) {
	s := &Summary{
		Duration: 2 * time.Second,
		Workers:  4,
		Total:    10000,
		Channels: []ChannelSummary{
			{
				Channel:   "request",
				Count:     10000,
				Rate:      5000,
				RateKnown: true,
				Min:       100,
				Max:       9000,
				Mean:      1234.5,
				Windows:   4,
				Percentiles: []PercentileRow{
					{Label: "p50", Engine: 1000, Reference: 1005},
					{Label: "p99", Engine: 8000, Reference: 8100},
				},
			},
		},
	}

	out := renderToString(s)

	for _, want := range []string{
		"benchmark complete",
		"workers: 4",
		"10000 samples (5000/s)",
		"channel request",
		"count: 10000",
		"heatmap: 4 windows",
		"rate: 5000.00 samples/s",
		"min 100  mean 1234.5  max 9000",
		"p50",
		"p99",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "clipped") {
		t.Errorf("clipped line present with zero clipped values\n%s", out)
	}
}

func TestRender_UnknownRateAndClipped(t *testing.T) {
	s := &Summary{
		Duration: time.Second,
		Workers:  1,
		Total:    10,
		Channels: []ChannelSummary{
			{Channel: "a", Count: 10, Clipped: 3, Windows: 1},
		},
	}

	out := renderToString(s)
	if !strings.Contains(out, "not yet available") {
		t.Errorf("missing unavailable-rate marker\n%s", out)
	}
	if !strings.Contains(out, "clipped: 3") {
		t.Errorf("missing clipped count\n%s", out)
	}
}

func TestRelativeDelta(t *testing.T) {
	cases := []struct {
		engine, reference, want float64
	}{
		{100, 100, 0},
		{101, 100, 0.01},
		{99, 100, 0.01},
		{50, 0, 0},
	}
	for _, tc := range cases {
		got := relativeDelta(tc.engine, tc.reference)
		if diff := got - tc.want; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("relativeDelta(%v, %v) = %v, want %v", tc.engine, tc.reference, got, tc.want)
		}
	}
}

func TestDeltaColor(t *testing.T) {
	scheme := NoColorScheme()
	if deltaColor(scheme, 0.005) != scheme.Good {
		t.Error("delta 0.5% should use Good")
	}
	if deltaColor(scheme, 0.03) != scheme.Warn {
		t.Error("delta 3% should use Warn")
	}
	if deltaColor(scheme, 0.2) != scheme.Bad {
		t.Error("delta 20% should use Bad")
	}
}
