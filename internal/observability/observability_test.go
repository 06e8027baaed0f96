package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SashaBaych/steam-scrape/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsServeHTTP(t *testing.T) {
	m := NewMetrics(testLogger)
	m.DetailRequests.Add(12)
	m.AgeGateFallbacks.Add(2)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"steamscrape_detail_requests_total 12",
		"steamscrape_agegate_fallbacks_total 2",
		"# TYPE steamscrape_records_persisted_total counter",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
	if m.Snapshot()["detail_requests"] != 12 {
		t.Errorf("snapshot = %v", m.Snapshot())
	}
}

func TestStageLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	if err := Stage(context.Background(), logger, "listing", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	boom := errors.New("boom")
	if err := Stage(context.Background(), logger, "persist", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	out := buf.String()
	for _, want := range []string{"stage=listing", "stage finished", "stage=persist", "stage failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, closer := NewLogger(config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1}, false)
	logger.Info("hello")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"run_id"`) || !strings.Contains(string(data), "hello") {
		t.Errorf("unexpected log file contents: %s", data)
	}
}
