package listing

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SashaBaych/steam-scrape/internal/browser/browsertest"
	"github.com/SashaBaych/steam-scrape/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	searchURL = "https://store.steampowered.com/search/?filter=topsellers"
	hubURL    = "https://store.steampowered.com/category/rpg/?flavor=contenthub_topsellers"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Listing.StepTimeout = 50 * time.Millisecond
	cfg.Listing.WaitTimeout = 50 * time.Millisecond
	cfg.Listing.PollInterval = time.Millisecond
	return cfg
}

func searchRows(from, to int) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := from; i <= to; i++ {
		fmt.Fprintf(&b, `<a class="search_result_row" href="https://store.steampowered.com/app/%d/"><span class="title">Game %d</span></a>`, i, i)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func hubRows(from, to int) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := from; i <= to; i++ {
		fmt.Fprintf(&b, `<div class="salepreviewwidgets_SaleItemBrowserRow_y9MSd"><div class="salepreviewwidgets_StoreSaleWidgetHalfLeft_2Va3O"><a href="/app/%d/"><img class="salepreviewwidgets_CapsuleImage_cODQh" alt="Hub %d"></a></div></div>`, i, i)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// growingPage simulates a page that gains step rows per load until it holds max rows.
type growingPage struct {
	mu    sync.Mutex
	rows  int
	step  int
	max   int
	build func(from, to int) string
}

func (g *growingPage) grow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rows >= g.max {
		return false
	}
	g.rows = min(g.rows+g.step, g.max)
	return true
}

func (g *growingPage) html() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.build(1, g.rows)
}

func (g *growingPage) height() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rows * 100
}

func checkRanks(t *testing.T, entries []Entry, prefix string) {
	t.Helper()
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Errorf("entry %d rank = %d", i, e.Rank)
		}
		if want := fmt.Sprintf("%s %d", prefix, i+1); e.Title != want {
			t.Errorf("entry %d title = %q, want %q", i, e.Title, want)
		}
	}
}

func TestScrapeScrollExactPage(t *testing.T) {
	page := &growingPage{rows: 12, step: 12, max: 100, build: searchRows}
	l := &browsertest.Launcher{New: func() *browsertest.Session {
		return &browsertest.Session{
			Present:  func(string) bool { return true },
			Page:     page.html,
			Height:   page.height,
			OnScroll: func() { page.grow() },
		}
	}}

	entries, err := NewScraper(testConfig(), l, testLogger).Scrape(context.Background(), searchURL, config.ModeScroll, 12)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(entries))
	}
	checkRanks(t, entries, "Game")
	if l.Sessions[0].Scrolls != 0 {
		t.Errorf("expected no scrolling for a full first page, got %d", l.Sessions[0].Scrolls)
	}
	if !l.Sessions[0].Closed {
		t.Error("browser not closed")
	}
}

func TestScrapeScrollTruncates(t *testing.T) {
	page := &growingPage{rows: 25, step: 25, max: 100, build: searchRows}
	l := &browsertest.Launcher{New: func() *browsertest.Session {
		return &browsertest.Session{
			Present:  func(string) bool { return true },
			Page:     page.html,
			Height:   page.height,
			OnScroll: func() { page.grow() },
		}
	}}

	entries, err := NewScraper(testConfig(), l, testLogger).Scrape(context.Background(), searchURL, config.ModeScroll, 40)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(entries) != 40 {
		t.Fatalf("expected exactly 40 entries, got %d", len(entries))
	}
	checkRanks(t, entries, "Game")
}

func TestScrapeScrollPlateau(t *testing.T) {
	page := &growingPage{rows: 10, step: 10, max: 20, build: searchRows}
	l := &browsertest.Launcher{New: func() *browsertest.Session {
		return &browsertest.Session{
			Present:  func(string) bool { return true },
			Page:     page.html,
			Height:   page.height,
			OnScroll: func() { page.grow() },
		}
	}}

	entries, err := NewScraper(testConfig(), l, testLogger).Scrape(context.Background(), searchURL, config.ModeScroll, 50)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(entries) != 20 {
		t.Fatalf("expected the 20 available entries, got %d", len(entries))
	}
	checkRanks(t, entries, "Game")
}

// repeatFirst renders search rows where the second row repeats the first game.
func repeatFirst(from, to int) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := from; i <= to; i++ {
		id := i
		if i == 2 {
			id = 1
		}
		fmt.Fprintf(&b, `<a class="search_result_row" href="https://store.steampowered.com/app/%d/"><span class="title">Game %d</span></a>`, id, id)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func TestScrapeScrollSkipsDuplicateRows(t *testing.T) {
	page := &growingPage{rows: 12, step: 12, max: 100, build: repeatFirst}
	l := &browsertest.Launcher{New: func() *browsertest.Session {
		return &browsertest.Session{
			Present:  func(string) bool { return true },
			Page:     page.html,
			Height:   page.height,
			OnScroll: func() { page.grow() },
		}
	}}

	entries, err := NewScraper(testConfig(), l, testLogger).Scrape(context.Background(), searchURL, config.ModeScroll, 12)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(entries))
	}
	seen := make(map[string]bool)
	for i, e := range entries {
		if seen[e.Link] {
			t.Errorf("duplicate link %q", e.Link)
		}
		seen[e.Link] = true
		if e.Rank != i+1 {
			t.Errorf("entry %d rank = %d", i, e.Rank)
		}
	}
	if entries[1].Title != "Game 3" {
		t.Errorf("second entry = %q, want Game 3", entries[1].Title)
	}
	if l.Sessions[0].Scrolls == 0 {
		t.Error("expected the page to be scrolled for the missing entry")
	}
}

func TestScrapeButton(t *testing.T) {
	page := &growingPage{rows: 12, step: 12, max: 36, build: hubRows}
	l := &browsertest.Launcher{New: func() *browsertest.Session {
		return &browsertest.Session{
			Present: func(string) bool { return true },
			Page:    page.html,
			Height:  page.height,
			OnClickXPath: func(expr string) bool {
				return expr == ShowMoreXPath && page.grow()
			},
		}
	}}

	entries, err := NewScraper(testConfig(), l, testLogger).Scrape(context.Background(), hubURL, config.ModeButton, 30)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(entries) != 30 {
		t.Fatalf("expected 30 entries, got %d", len(entries))
	}
	checkRanks(t, entries, "Hub")
	if entries[0].Link != "https://store.steampowered.com/app/1/" {
		t.Errorf("link not resolved: %q", entries[0].Link)
	}
	if got := len(l.Sessions[0].Clicked); got != 2 {
		t.Errorf("expected 2 clicks, got %d", got)
	}
}

func TestScrapeOffset(t *testing.T) {
	var (
		mu      sync.Mutex
		current string
	)
	l := &browsertest.Launcher{New: func() *browsertest.Session {
		return &browsertest.Session{
			OnNavigate: func(raw string) error {
				u, _ := url.Parse(raw)
				off, _ := strconv.Atoi(u.Query().Get("offset"))
				mu.Lock()
				defer mu.Unlock()
				if off >= 24 {
					current = hubRows(1, 0)
					return nil
				}
				current = hubRows(off+1, off+12)
				return nil
			},
			Present: func(string) bool { return true },
			Page: func() string {
				mu.Lock()
				defer mu.Unlock()
				return current
			},
		}
	}}

	entries, err := NewScraper(testConfig(), l, testLogger).Scrape(context.Background(), hubURL, config.ModeOffset, 30)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(entries) != 24 {
		t.Fatalf("expected 24 entries, got %d", len(entries))
	}
	checkRanks(t, entries, "Hub")

	visited := l.Sessions[0].Visited
	if len(visited) != 3 || !strings.Contains(visited[1], "offset=12") {
		t.Errorf("unexpected page visits %v", visited)
	}
}

func TestScrapeNoRows(t *testing.T) {
	l := &browsertest.Launcher{New: func() *browsertest.Session {
		return &browsertest.Session{Page: func() string { return "<html></html>" }}
	}}

	entries, err := NewScraper(testConfig(), l, testLogger).Scrape(context.Background(), searchURL, config.ModeScroll, 10)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestScrapeZeroRequested(t *testing.T) {
	l := &browsertest.Launcher{}
	entries, err := NewScraper(testConfig(), l, testLogger).Scrape(context.Background(), searchURL, config.ModeScroll, 0)
	if err != nil || entries != nil {
		t.Fatalf("expected nil, nil; got %v, %v", entries, err)
	}
	if l.Launched() != 0 {
		t.Error("no browser should start for an empty request")
	}
}

func TestRowsFor(t *testing.T) {
	if RowsFor(searchURL).Row != "a.search_result_row" {
		t.Error("search page should use search rows")
	}
	if RowsFor(hubURL).TitleAttr != "alt" {
		t.Error("category page should use content hub rows")
	}
}
