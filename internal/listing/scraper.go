// Package listing reads the ranked top-seller list for a category out of a
// rendered store page.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SashaBaych/steam-scrape/internal/browser"
	"github.com/SashaBaych/steam-scrape/internal/config"
	"github.com/SashaBaych/steam-scrape/internal/parser"
)

// ShowMoreXPath locates the content hub's load-more button.
const ShowMoreXPath = "//button[normalize-space(text())='Show more']"

// Entry is a ranked listing row. Rank starts at 1.
type Entry struct {
	Rank  int
	Title string
	Link  string
}

// Scraper walks a listing page until it has enough rows or the page stops growing.
type Scraper struct {
	launcher     browser.Launcher
	perPage      int
	waitTimeout  time.Duration
	stepTimeout  time.Duration
	pollInterval time.Duration
	maxRounds    int
	logger       *slog.Logger
}

// NewScraper creates a listing scraper.
func NewScraper(cfg *config.Config, launcher browser.Launcher, logger *slog.Logger) *Scraper {
	return &Scraper{
		launcher:     launcher,
		perPage:      cfg.GamesPerPage,
		waitTimeout:  cfg.Listing.WaitTimeout,
		stepTimeout:  cfg.Listing.StepTimeout,
		pollInterval: cfg.Listing.PollInterval,
		maxRounds:    cfg.Listing.MaxRounds,
		logger:       logger.With("component", "listing"),
	}
}

// RowsFor picks the row selectors matching the kind of listing page.
func RowsFor(pageURL string) parser.RowSelectors {
	if u, err := url.Parse(pageURL); err == nil && strings.HasPrefix(u.Path, "/search") {
		return parser.SearchRows
	}
	return parser.ContentHubRows
}

// Scrape returns up to n ranked entries from pageURL using the given load mode
// (config.ModeScroll, config.ModeButton or config.ModeOffset). Fewer than n
// entries come back when the page runs out of rows.
func (s *Scraper) Scrape(ctx context.Context, pageURL, mode string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	sess, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("start listing browser: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Debug("browser close failed", "error", err)
		}
	}()

	rows := RowsFor(pageURL)
	var found []parser.ListingEntry
	switch mode {
	case config.ModeOffset:
		found, err = s.byOffset(ctx, sess, base, rows, n)
	case config.ModeScroll, config.ModeButton:
		found, err = s.byLoadMore(ctx, sess, base, rows, mode, n)
	default:
		return nil, fmt.Errorf("unknown listing mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	entries := rank(found, n)
	s.logger.Info("listing scraped",
		"url", pageURL,
		"mode", mode,
		"requested", n,
		"found", len(entries),
	)
	return entries, nil
}

// byOffset re-requests the page with offset=k*perPage until n rows are collected
// or a page adds nothing new.
func (s *Scraper) byOffset(ctx context.Context, sess browser.Session, base *url.URL, rows parser.RowSelectors, n int) ([]parser.ListingEntry, error) {
	var out []parser.ListingEntry
	seen := make(map[string]bool)

	for page := 0; len(out) < n && page < s.maxRounds; page++ {
		pageURL := withOffset(base, page*s.perPage)
		if err := sess.Navigate(ctx, pageURL); err != nil {
			return nil, err
		}
		ok, err := sess.WaitFor(ctx, rows.Row, s.waitTimeout)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		html, err := sess.HTML(ctx)
		if err != nil {
			return nil, err
		}
		entries, err := parser.ParseListing([]byte(html), rows, base)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, e := range entries {
			if seen[e.Link] {
				continue
			}
			seen[e.Link] = true
			out = append(out, e)
			added++
		}
		s.logger.Debug("listing page read", "offset", page*s.perPage, "added", added, "total", len(out))
		if added == 0 {
			break
		}
	}
	return out, nil
}

// byLoadMore keeps one page open and grows it by scrolling or by pressing the
// load-more button, stopping once n rows exist or a round adds none.
func (s *Scraper) byLoadMore(ctx context.Context, sess browser.Session, base *url.URL, rows parser.RowSelectors, mode string, n int) ([]parser.ListingEntry, error) {
	if err := sess.Navigate(ctx, base.String()); err != nil {
		return nil, err
	}
	ok, err := sess.WaitFor(ctx, rows.Row, s.waitTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("no listing rows appeared", "url", base.String())
		return nil, nil
	}

	entries, err := s.usable(ctx, sess, rows, base)
	if err != nil {
		return nil, err
	}
	for round := 0; len(entries) < n && round < s.maxRounds; round++ {
		grown, err := s.loadMore(ctx, sess, rows, base, mode, len(entries))
		if err != nil {
			return nil, err
		}
		if len(grown) <= len(entries) {
			s.logger.Debug("listing stopped growing", "entries", len(entries))
			break
		}
		entries = grown
	}
	return entries, nil
}

// loadMore triggers one round of loading and returns the usable entries once
// their number grows past before or the step timeout passes.
func (s *Scraper) loadMore(ctx context.Context, sess browser.Session, rows parser.RowSelectors, base *url.URL, mode string, before int) ([]parser.ListingEntry, error) {
	prevHeight, err := sess.ScrollHeight(ctx)
	if err != nil {
		return nil, err
	}
	if err := sess.ScrollToBottom(ctx); err != nil {
		return nil, err
	}
	if mode == config.ModeButton {
		clicked, err := sess.ClickXPath(ctx, ShowMoreXPath, s.stepTimeout)
		if err != nil {
			return nil, err
		}
		if !clicked {
			return s.usable(ctx, sess, rows, base)
		}
	}

	deadline := time.NewTimer(s.stepTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(s.pollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return s.usable(ctx, sess, rows, base)
		case <-tick.C:
			entries, err := s.usable(ctx, sess, rows, base)
			if err != nil {
				return nil, err
			}
			if len(entries) > before {
				return entries, nil
			}
			if mode == config.ModeScroll {
				h, err := sess.ScrollHeight(ctx)
				if err != nil {
					return nil, err
				}
				if h > prevHeight {
					// Height moved but rows may still be rendering; scroll again.
					prevHeight = h
					if err := sess.ScrollToBottom(ctx); err != nil {
						return nil, err
					}
				}
			}
		}
	}
}

// usable returns the complete, distinct rows currently on the page. Growth
// and the stop condition are measured in these, not in raw row elements.
func (s *Scraper) usable(ctx context.Context, sess browser.Session, rows parser.RowSelectors, base *url.URL) ([]parser.ListingEntry, error) {
	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := parser.ParseListing([]byte(html), rows, base)
	if err != nil {
		return nil, err
	}
	return dedupe(entries), nil
}

func withOffset(base *url.URL, offset int) string {
	u := *base
	q := u.Query()
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	return u.String()
}

func dedupe(entries []parser.ListingEntry) []parser.ListingEntry {
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if seen[e.Link] {
			continue
		}
		seen[e.Link] = true
		out = append(out, e)
	}
	return out
}

// rank truncates to n and numbers entries from 1 in page order.
func rank(found []parser.ListingEntry, n int) []Entry {
	if len(found) > n {
		found = found[:n]
	}
	out := make([]Entry, len(found))
	for i, e := range found {
		out[i] = Entry{Rank: i + 1, Title: e.Title, Link: e.Link}
	}
	return out
}
