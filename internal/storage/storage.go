package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SashaBaych/steam-scrape/internal/catalog"
	"github.com/SashaBaych/steam-scrape/internal/config"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store writes a batch of catalog records.
	Store(ctx context.Context, records []*catalog.GameRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Flatten returns the export form of a record: rank, name, category, link
// and every GameInfo key, with nil for absent values.
func Flatten(rec *catalog.GameRecord) map[string]any {
	m := rec.Info.Map()
	m["rank"] = rec.Rank
	m["title"] = rec.Name
	m["category"] = rec.Category
	m["link"] = rec.Link
	m["available"] = rec.Info != nil && !rec.Info.Unavailable
	return m
}

// NewExporter creates the export sinks listed in cfg.Export.Type. No sinks
// returns nil; several are combined into a MultiStorage.
func NewExporter(cfg *config.Config, logger *slog.Logger) (Storage, error) {
	names := cfg.Export.Types()
	var sinks []Storage
	for _, t := range names {
		s, err := newSink(cfg, t, logger)
		if err != nil {
			for _, open := range sinks {
				open.Close()
			}
			return nil, err
		}
		sinks = append(sinks, s)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiStorage(sinks, logger), nil
	}
}

func newSink(cfg *config.Config, sinkType string, logger *slog.Logger) (Storage, error) {
	switch sinkType {
	case "json", "jsonl", "csv":
		s, err := NewFileStorage(sinkType, cfg.Export.OutputPath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongodb":
		s, err := NewMongoStorage(cfg.Export.MongoURI, cfg.Export.MongoDatabase, cfg.Export.MongoCollection, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported export type: %s", sinkType)
	}
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes records to several backends.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

func (s *MultiStorage) Store(ctx context.Context, records []*catalog.GameRecord) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(ctx, records); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			s.logger.Error("backend close failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
