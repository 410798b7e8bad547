// Package export publishes engine readings over HTTP in a scrape-compatible
// text format. It is a thin formatter over the engine's read API and owns all
// transport concerns; it contains no statistics logic of its own.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Source is the read API the server consumes. *stats.Engine[T] satisfies it
// for any label type.
type Source interface {
	// Vars returns the available statistics as a flat name-to-value map.
	// Statistics awaiting data must be omitted, not zeroed.
	Vars() map[string]float64
}

// Server serves engine statistics over HTTP:
//
//	GET /metrics  plain text, one "name value" line per statistic
//	GET /vars     same as /metrics
//	GET /         a single JSON object of name to value
//
// Lines and JSON keys are sorted by name so scrapes are deterministic.
type Server struct {
	src  Source
	log  *slog.Logger
	http *http.Server
}

// NewServer creates a Server listening on addr. A nil logger falls back to
// slog.Default().
func NewServer(addr string, src Source, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{src: src, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleText)
	mux.HandleFunc("/vars", s.handleText)
	mux.HandleFunc("/", s.handleJSON)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown is called or the
// listener fails.
func (s *Server) ListenAndServe() error {
	s.log.Info("stats listener starting", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the server's HTTP handler, for mounting under an existing
// mux or for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	vars := s.src.Vars()

	var b strings.Builder
	for _, name := range sortedNames(vars) {
		fmt.Fprintf(&b, "%s %s\n", name, formatValue(vars[name]))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	vars := s.src.Vars()

	// Build the object by hand to keep keys sorted; encoding/json only
	// sorts map keys lexically anyway, but the raw numbers print cleaner
	// through formatValue.
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range sortedNames(vars) {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		b.Write(key)
		b.WriteByte(':')
		b.WriteString(formatValue(vars[name]))
	}
	b.WriteByte('}')

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(b.String()))
}

func sortedNames(vars map[string]float64) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatValue prints whole numbers without a decimal point and everything
// else with full precision.
func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
