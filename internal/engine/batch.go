package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/SashaBaych/steam-scrape/internal/config"
	"github.com/SashaBaych/steam-scrape/internal/fetcher"
	"github.com/SashaBaych/steam-scrape/internal/observability"
	"github.com/SashaBaych/steam-scrape/internal/parser"
	"github.com/SashaBaych/steam-scrape/internal/types"
)

// BatchFetcher fetches many detail pages concurrently. Each page is first
// requested directly; pages without a name block go through the rendered
// age-gate fetcher, one browser at a time.
type BatchFetcher struct {
	direct    fetcher.Fetcher
	rendered  fetcher.Fetcher
	extractor *parser.Extractor
	limit     int
	fallbacks *semaphore.Weighted
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewBatchFetcher creates a batch fetcher over the two fetch strategies.
func NewBatchFetcher(cfg *config.Config, direct, rendered fetcher.Fetcher, metrics *observability.Metrics, logger *slog.Logger) *BatchFetcher {
	return &BatchFetcher{
		direct:    direct,
		rendered:  rendered,
		extractor: parser.NewExtractor(logger),
		limit:     cfg.Fetcher.MaxInFlight,
		fallbacks: semaphore.NewWeighted(int64(max(cfg.Fetcher.MaxBrowserFallbacks, 1))),
		metrics:   metrics,
		logger:    logger.With("component", "batch_fetcher"),
	}
}

// FetchAll returns one GameInfo per URL, index-aligned with urls. Games that
// could not be read get an unavailable record. A transport failure on any
// direct request aborts the whole batch.
func (b *BatchFetcher) FetchAll(ctx context.Context, urls []string, sampleDate time.Time) ([]*types.GameInfo, error) {
	results := make([]*types.GameInfo, len(urls))
	if len(urls) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}

	for i, u := range urls {
		g.Go(func() error {
			info, err := b.fetchOne(gctx, u, sampleDate)
			if err != nil {
				return err
			}
			results[i] = info
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch details: %w", err)
	}

	b.logger.Info("details fetched",
		"games", len(urls),
		"fallbacks", b.metrics.AgeGateFallbacks.Load(),
		"unavailable", b.metrics.DetailUnavailable.Load(),
	)
	return results, nil
}

func (b *BatchFetcher) fetchOne(ctx context.Context, url string, sampleDate time.Time) (*types.GameInfo, error) {
	b.metrics.DetailRequests.Add(1)
	resp, err := b.direct.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	b.metrics.BytesDownloaded.Add(int64(len(resp.Body)))
	if !resp.IsSuccess() {
		b.metrics.DetailNon2xx.Add(1)
	}

	info := b.extractor.Extract(resp, sampleDate)
	if info.HasName() {
		return info, nil
	}

	b.logger.Debug("name block missing, falling back", "url", url, "status", resp.StatusCode, "fetcher", b.rendered.Type())
	return b.fallback(ctx, url, sampleDate)
}

func (b *BatchFetcher) fallback(ctx context.Context, url string, sampleDate time.Time) (*types.GameInfo, error) {
	if err := b.fallbacks.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.fallbacks.Release(1)

	b.metrics.AgeGateFallbacks.Add(1)
	resp, err := b.rendered.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, types.ErrUnavailable) {
			b.metrics.DetailUnavailable.Add(1)
			return types.UnavailableInfo(sampleDate), nil
		}
		return nil, err
	}

	info := b.extractor.Extract(resp, sampleDate)
	if !info.HasName() {
		b.logger.Info("no name block after age gate", "url", url)
		b.metrics.DetailUnavailable.Add(1)
		return types.UnavailableInfo(sampleDate), nil
	}
	b.metrics.AgeGateCleared.Add(1)
	return info, nil
}
