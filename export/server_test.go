package export

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/statkit/pulse/stats"
)

// staticSource is a canned Source for handler tests.
type staticSource map[string]float64

func (s staticSource) Vars() map[string]float64 { return s }

func get(t *testing.T, srv *Server, path string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	return rec.Code, string(body)
}

func TestServer_TextEndpoints(t *testing.T) {
	srv := NewServer("127.0.0.1:0", staticSource{
		"request_count":     1500,
		"request_rate":      500,
		"request_p50_units": 151.5,
	}, nil)

	for _, path := range []string{"/metrics", "/vars"} {
		code, body := get(t, srv, path)
		if code != 200 {
			t.Fatalf("GET %s = %d, want 200", path, code)
		}

		want := "request_count 1500\nrequest_p50_units 151.5\nrequest_rate 500\n"
		if body != want {
			t.Errorf("GET %s body = %q, want %q (sorted name value lines)", path, body, want)
		}
	}
}

func TestServer_JSONEndpoint(t *testing.T) {
	srv := NewServer("127.0.0.1:0", staticSource{
		"request_count":     1500,
		"request_p99_units": 420.25,
	}, nil)

	code, body := get(t, srv, "/")
	if code != 200 {
		t.Fatalf("GET / = %d, want 200", code)
	}
	if !gjson.Valid(body) {
		t.Fatalf("GET / body is not valid JSON: %q", body)
	}

	if got := gjson.Get(body, "request_count").Float(); got != 1500 {
		t.Errorf("request_count = %v, want 1500", got)
	}
	if got := gjson.Get(body, "request_p99_units").Float(); got != 420.25 {
		t.Errorf("request_p99_units = %v, want 420.25", got)
	}
}

func TestServer_EmptySource(t *testing.T) {
	srv := NewServer("127.0.0.1:0", staticSource{}, nil)

	if _, body := get(t, srv, "/metrics"); body != "" {
		t.Errorf("empty source /metrics body = %q, want empty", body)
	}
	if _, body := get(t, srv, "/"); body != "{}" {
		t.Errorf("empty source / body = %q, want {}", body)
	}
}

// End to end against a real engine: interests awaiting data are absent from
// the scrape rather than exported as zeros.
func TestServer_OmitsUnavailableReadings(t *testing.T) {
	engine, err := stats.New[string](stats.Config{
		RotationInterval: time.Hour,
		RetainedWindows:  4,
		Histogram:        stats.HistogramConfig{MinValue: 1, MaxValue: 1_000_000, Precision: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Stop()

	if err := engine.RegisterInterest("request", stats.Interest{Kind: stats.Rate}); err != nil {
		t.Fatal(err)
	}
	if err := engine.RegisterInterest("request", stats.PercentileInterest(50)); err != nil {
		t.Fatal(err)
	}

	engine.Record("request", 100)
	engine.RotateNow()

	srv := NewServer("127.0.0.1:0", engine, nil)
	_, body := get(t, srv, "/metrics")

	if strings.Contains(body, "request_rate") {
		t.Errorf("rate with a single window exported: %q", body)
	}
	if !strings.Contains(body, "request_p50_units") {
		t.Errorf("p50 missing from scrape: %q", body)
	}
}
