package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks counters for a scrape run.
type Metrics struct {
	// Listing
	ListingEntries atomic.Int64

	// Detail pages
	DetailRequests    atomic.Int64
	DetailNon2xx      atomic.Int64
	AgeGateFallbacks  atomic.Int64
	AgeGateCleared    atomic.Int64
	DetailUnavailable atomic.Int64
	BytesDownloaded   atomic.Int64

	// Output
	RecordsPersisted atomic.Int64
	RecordsExported  atomic.Int64
	MentionQueries   atomic.Int64
	MentionsCounted  atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"steamscrape_listing_entries_total", "Ranked entries read from listing pages", m.ListingEntries.Load()},
		{"steamscrape_detail_requests_total", "Direct detail page requests", m.DetailRequests.Load()},
		{"steamscrape_detail_non_2xx_total", "Direct detail responses outside 2xx", m.DetailNon2xx.Load()},
		{"steamscrape_agegate_fallbacks_total", "Detail pages retried through the age gate", m.AgeGateFallbacks.Load()},
		{"steamscrape_agegate_cleared_total", "Age gates passed", m.AgeGateCleared.Load()},
		{"steamscrape_detail_unavailable_total", "Detail pages that could not be read", m.DetailUnavailable.Load()},
		{"steamscrape_bytes_downloaded_total", "Detail page bytes downloaded", m.BytesDownloaded.Load()},
		{"steamscrape_records_persisted_total", "Games written to the database", m.RecordsPersisted.Load()},
		{"steamscrape_records_exported_total", "Games written to export sinks", m.RecordsExported.Load()},
		{"steamscrape_mention_queries_total", "Mention searches run", m.MentionQueries.Load()},
		{"steamscrape_mentions_counted_total", "Mentions counted", m.MentionsCounted.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return srv
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"listing_entries":    m.ListingEntries.Load(),
		"detail_requests":    m.DetailRequests.Load(),
		"detail_non_2xx":     m.DetailNon2xx.Load(),
		"agegate_fallbacks":  m.AgeGateFallbacks.Load(),
		"agegate_cleared":    m.AgeGateCleared.Load(),
		"detail_unavailable": m.DetailUnavailable.Load(),
		"bytes_downloaded":   m.BytesDownloaded.Load(),
		"records_persisted":  m.RecordsPersisted.Load(),
		"records_exported":   m.RecordsExported.Load(),
		"mention_queries":    m.MentionQueries.Load(),
		"mentions_counted":   m.MentionsCounted.Load(),
	}
}

// LogSummary writes the snapshot as one log line.
func (m *Metrics) LogSummary() {
	snap := m.Snapshot()
	attrs := make([]any, 0, len(snap)*2)
	for k, v := range snap {
		attrs = append(attrs, k, v)
	}
	m.logger.Info("run metrics", attrs...)
}
