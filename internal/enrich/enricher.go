// Package enrich attaches social media mention counts to the most recent top sellers.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/SashaBaych/steam-scrape/internal/observability"
	"github.com/SashaBaych/steam-scrape/internal/storage"
)

// trademarkChars matches trademark, copyright and super/subscript characters.
var trademarkChars = regexp.MustCompile(`[\x{00AE}\x{2122}\x{00A9}\x{00B2}\x{00B3}\x{00B9}\x{2070}-\x{2079}\x{2080}-\x{2089}\x{207A}-\x{207F}]`)

// CleanTitle strips trademark symbols and super/subscripts from a game title
// so it can be used as a search query.
func CleanTitle(title string) string {
	return strings.Join(strings.Fields(trademarkChars.ReplaceAllString(title, "")), " ")
}

// Searcher counts mentions of a query.
type Searcher interface {
	CountMentions(ctx context.Context, query string, now time.Time) (int, error)
}

// MentionStore reads ranked games and appends mention counts.
type MentionStore interface {
	LatestTopGames(ctx context.Context, limit int) ([]storage.TopGame, error)
	SaveMention(ctx context.Context, gameID uint, count int, queryDate time.Time) error
}

// Mention is the result for one game.
type Mention struct {
	GameID uint
	Title  string
	Query  string
	Count  int
}

// Enricher looks up mention counts for the top ranked games.
type Enricher struct {
	search  Searcher
	store   MentionStore
	limit   int
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewEnricher creates a mention enricher for the top limit games.
func NewEnricher(search Searcher, store MentionStore, limit int, metrics *observability.Metrics, logger *slog.Logger) *Enricher {
	return &Enricher{
		search:  search,
		store:   store,
		limit:   limit,
		metrics: metrics,
		logger:  logger.With("component", "enricher"),
		now:     time.Now,
	}
}

// Run counts mentions for each top game and stores one row per game. A game
// whose search fails part way keeps the partial count.
func (e *Enricher) Run(ctx context.Context) ([]Mention, error) {
	games, err := e.store.LatestTopGames(ctx, e.limit)
	if err != nil {
		return nil, err
	}

	now := e.now()
	out := make([]Mention, 0, len(games))
	for _, g := range games {
		query := CleanTitle(g.Title)
		e.metrics.MentionQueries.Add(1)

		count, err := e.search.CountMentions(ctx, query, now)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return out, err
			}
			e.logger.Warn("mention search incomplete", "title", g.Title, "count", count, "error", err)
		}
		e.metrics.MentionsCounted.Add(int64(count))

		if err := e.store.SaveMention(ctx, g.GameID, count, now); err != nil {
			return out, err
		}
		out = append(out, Mention{GameID: g.GameID, Title: g.Title, Query: query, Count: count})
		e.logger.Info("mentions recorded", "title", g.Title, "position", g.Position, "count", count)
	}
	return out, nil
}
