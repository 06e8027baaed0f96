package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SashaBaych/steam-scrape/internal/browser"
	"github.com/SashaBaych/steam-scrape/internal/config"
	"github.com/SashaBaych/steam-scrape/internal/parser"
	"github.com/SashaBaych/steam-scrape/internal/types"
)

// Age gate page elements.
const (
	SelCountryBlock = ".error"
	SelAgeGate      = ".agegate_birthday_desc"
	SelAgeYear      = "#ageYear"
	SelViewPage     = "#view_product_page_btn"
)

// The country block is server rendered, so it is probed only briefly.
const blockProbe = time.Second

// AgeGateFetcher renders a detail page in a fresh browser and answers the
// birth-date prompt. Each call launches and tears down its own browser.
type AgeGateFetcher struct {
	launcher  browser.Launcher
	timeout   time.Duration
	birthYear string
	logger    *slog.Logger
}

// NewAgeGateFetcher creates the rendered fallback fetcher.
func NewAgeGateFetcher(cfg *config.Config, launcher browser.Launcher, logger *slog.Logger) *AgeGateFetcher {
	return &AgeGateFetcher{
		launcher:  launcher,
		timeout:   cfg.Browser.GateTimeout,
		birthYear: cfg.Browser.BirthYear,
		logger:    logger.With("component", "agegate_fetcher"),
	}
}

// Fetch returns the rendered page behind the age gate. It returns an error
// wrapping types.ErrUnavailable when the game is blocked in the current
// country, when no age prompt shows up, or when the browser fails.
func (f *AgeGateFetcher) Fetch(ctx context.Context, url string) (*types.Response, error) {
	start := time.Now()

	s, err := f.launcher.Launch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", types.ErrUnavailable, err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			f.logger.Debug("browser close failed", "error", err)
		}
	}()

	html, err := f.bypass(ctx, s, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Info("page unavailable", "url", url, "reason", err)
		return nil, err
	}

	f.logger.Debug("age gate cleared", "url", url, "duration", time.Since(start))
	return types.NewRenderedResponse(url, html, time.Since(start)), nil
}

func (f *AgeGateFetcher) bypass(ctx context.Context, s browser.Session, url string) (string, error) {
	if err := s.Navigate(ctx, url); err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrUnavailable, err)
	}

	blocked, err := s.WaitFor(ctx, SelCountryBlock, min(blockProbe, f.timeout))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrUnavailable, err)
	}
	if blocked {
		return "", fmt.Errorf("%w: not available in this country", types.ErrUnavailable)
	}

	gate, err := s.WaitFor(ctx, SelAgeGate, f.timeout)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrUnavailable, err)
	}
	if !gate {
		return "", fmt.Errorf("%w: age prompt did not appear", types.ErrUnavailable)
	}

	if err := s.SelectValue(ctx, SelAgeYear, f.birthYear); err != nil {
		return "", fmt.Errorf("%w: select birth year: %w", types.ErrUnavailable, err)
	}
	if err := s.Click(ctx, SelViewPage); err != nil {
		return "", fmt.Errorf("%w: confirm age: %w", types.ErrUnavailable, err)
	}
	if _, err := s.WaitFor(ctx, parser.SelName, f.timeout); err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrUnavailable, err)
	}

	html, err := s.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: read page: %v", types.ErrUnavailable, err)
	}
	return html, nil
}

// Close releases resources. Browsers are closed after every call.
func (f *AgeGateFetcher) Close() error { return nil }

// Type returns the fetcher type identifier.
func (f *AgeGateFetcher) Type() string { return "agegate" }
