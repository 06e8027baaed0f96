// Package engine runs a scrape: it reads the ranked listing for a category,
// fetches every game's detail page and assembles the catalog.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/SashaBaych/steam-scrape/internal/catalog"
	"github.com/SashaBaych/steam-scrape/internal/config"
	"github.com/SashaBaych/steam-scrape/internal/listing"
	"github.com/SashaBaych/steam-scrape/internal/observability"
	"github.com/SashaBaych/steam-scrape/internal/types"
)

// Lister returns the ranked entries of a listing page.
type Lister interface {
	Scrape(ctx context.Context, pageURL, mode string, n int) ([]listing.Entry, error)
}

// DetailBatch resolves detail URLs into index-aligned GameInfo records.
type DetailBatch interface {
	FetchAll(ctx context.Context, urls []string, sampleDate time.Time) ([]*types.GameInfo, error)
}

// Engine wires the listing scraper and the batch fetcher together.
type Engine struct {
	cfg     *config.Config
	lister  Lister
	details DetailBatch
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithClock overrides the clock used for sample dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a new Engine.
func New(cfg *config.Config, lister Lister, details DetailBatch, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		lister:  lister,
		details: details,
		metrics: metrics,
		logger:  logger.With("component", "engine"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SampleDate returns the calendar date of t.
func SampleDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BuildCatalog scrapes the top n games of category and returns the catalog.
func (e *Engine) BuildCatalog(ctx context.Context, category string, n int) (*catalog.Catalog, error) {
	if err := config.ValidateCategory(category); err != nil {
		return nil, err
	}
	cat := catalog.New(category)
	sampleDate := SampleDate(e.now())

	var entries []listing.Entry
	err := observability.Stage(ctx, e.logger, "listing", func(ctx context.Context) error {
		var err error
		entries, err = e.lister.Scrape(ctx, e.cfg.URLs[category], e.cfg.ListingMode(category), n)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.metrics.ListingEntries.Add(int64(len(entries)))
	if len(entries) == 0 {
		e.logger.Warn("listing returned no games", "category", category)
		return cat, nil
	}

	urls := make([]string, len(entries))
	for i, entry := range entries {
		urls[i] = entry.Link
	}

	var infos []*types.GameInfo
	err = observability.Stage(ctx, e.logger, "details", func(ctx context.Context) error {
		var err error
		infos, err = e.details.FetchAll(ctx, urls, sampleDate)
		return err
	})
	if err != nil {
		return nil, err
	}

	for i, entry := range entries {
		cat.Add(entry.Rank, entry.Title, category, entry.Link, infos[i])
	}

	e.logger.Info("catalog built", "category", category, "games", cat.Len())
	return cat, nil
}
