package pipeline

import (
	"html"
	"regexp"
	"strings"

	"github.com/SashaBaych/steam-scrape/internal/catalog"
)

// HTMLSanitizeMiddleware strips leftover tags and entities from text fields.
type HTMLSanitizeMiddleware struct {
	stripRe *regexp.Regexp
}

func NewHTMLSanitizeMiddleware() *HTMLSanitizeMiddleware {
	return &HTMLSanitizeMiddleware{
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

func (m *HTMLSanitizeMiddleware) Name() string { return "html_sanitize" }

func (m *HTMLSanitizeMiddleware) Process(rec *catalog.GameRecord) (*catalog.GameRecord, error) {
	rec.Name = m.clean(rec.Name)
	if info := rec.Info; info != nil {
		for _, p := range []*string{info.Name, info.Developer, info.Publisher, info.ReviewSummary} {
			if p != nil {
				*p = m.clean(*p)
			}
		}
		for i, g := range info.Genres {
			info.Genres[i] = m.clean(g)
		}
	}
	return rec, nil
}

func (m *HTMLSanitizeMiddleware) clean(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return html.UnescapeString(m.stripRe.ReplaceAllString(s, ""))
}

// CurrencyNormalizeMiddleware upper-cases currency codes and rounds prices to
// cents. A currency without a price is cleared.
type CurrencyNormalizeMiddleware struct{}

func (m *CurrencyNormalizeMiddleware) Name() string { return "currency_normalize" }

func (m *CurrencyNormalizeMiddleware) Process(rec *catalog.GameRecord) (*catalog.GameRecord, error) {
	info := rec.Info
	if info == nil {
		return rec, nil
	}
	if info.Price.Valid {
		info.Price.Decimal = info.Price.Decimal.Round(2)
	}
	if info.Currency != nil {
		code := strings.ToUpper(strings.TrimSpace(*info.Currency))
		if code == "" || !info.Price.Valid {
			info.Currency = nil
		} else {
			info.Currency = &code
		}
	}
	return rec, nil
}

// GenreNormalizeMiddleware trims genre names and removes empty and duplicate
// entries, keeping the first spelling seen.
type GenreNormalizeMiddleware struct{}

func (m *GenreNormalizeMiddleware) Name() string { return "genre_normalize" }

func (m *GenreNormalizeMiddleware) Process(rec *catalog.GameRecord) (*catalog.GameRecord, error) {
	info := rec.Info
	if info == nil || len(info.Genres) == 0 {
		return rec, nil
	}
	seen := make(map[string]struct{}, len(info.Genres))
	genres := info.Genres[:0]
	for _, g := range info.Genres {
		g = collapse(g)
		key := strings.ToLower(g)
		if g == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		genres = append(genres, g)
	}
	info.Genres = genres
	return rec, nil
}
