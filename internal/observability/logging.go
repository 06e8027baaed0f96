package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/SashaBaych/steam-scrape/internal/config"
)

// NewLogger builds the run logger. Records go to stderr and, when a log file
// is configured, to a size-rotated file as well. Every record carries run_id.
func NewLogger(cfg config.LoggingConfig, verbose bool) (*slog.Logger, io.Closer) {
	level := parseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		w = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("run_id", uuid.NewString()), closer
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Stage runs fn and logs when it starts, how long it took and whether it failed.
func Stage(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) error {
	start := time.Now()
	logger.Info("stage started", "stage", name)

	err := fn(ctx)
	if err != nil {
		logger.Error("stage failed", "stage", name, "duration", time.Since(start), "error", err)
		return err
	}
	logger.Info("stage finished", "stage", name, "duration", time.Since(start))
	return nil
}
