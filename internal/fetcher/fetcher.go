package fetcher

import (
	"context"

	"github.com/SashaBaych/steam-scrape/internal/types"
)

// Fetcher retrieves a single detail page. The two strategies are a plain
// HTTP request (HTTPFetcher) and a rendered browser session that clears the
// age gate first (AgeGateFetcher).
type Fetcher interface {
	// Fetch retrieves the page at url.
	Fetch(ctx context.Context, url string) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}
