package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/SashaBaych/steam-scrape/internal/types"
)

// Selectors used on a game detail page.
const (
	SelName          = "div.apphub_AppName"
	SelReleaseDate   = "div.release_date div.date"
	SelAnyDate       = "div.date"
	SelPrice         = "meta[itemprop=price]"
	SelCurrency      = "meta[itemprop=priceCurrency]"
	SelGenres        = "span[data-panel] a"
	SelReviewSummary = "span[class^=game_review_summary]"
	SelMetascore     = "#game_area_metascore div.score"
	SelMetascoreHigh = "div.score.high"
	SelDevelopers    = "#developers_list a"

	xpDevRow = "//div[contains(@class,'dev_row')][.//div[contains(@class,'subtitle') and contains(normalize-space(.),'%s')]]//a"
)

// releaseDateLayouts are the formats the store uses for release dates.
var releaseDateLayouts = []string{
	"2 Jan, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"2 January, 2006",
}

// Extractor turns a detail page into a GameInfo. Every field is probed
// independently and a miss on one never affects the others.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new detail page extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("component", "extractor"),
	}
}

// Extract reads all detail fields from resp. The result always carries
// sampleDate; any field whose element is missing or malformed is left nil.
func (e *Extractor) Extract(resp *types.Response, sampleDate time.Time) *types.GameInfo {
	info := &types.GameInfo{SampleDate: sampleDate}

	doc, err := resp.Document()
	if err != nil {
		e.logger.Warn("unreadable detail page", "url", resp.URL, "error", err)
		return info
	}
	var root *html.Node
	if len(doc.Nodes) > 0 {
		root = doc.Nodes[0]
	}

	if v, err := ProbeName(doc); e.keep(resp.URL, types.FieldName, err) {
		info.Name = &v
	}
	if v, err := ProbeReleaseDate(doc); e.keep(resp.URL, types.FieldReleaseDate, err) {
		info.ReleaseDate = &v
	}
	if v, err := ProbePrice(doc); e.keep(resp.URL, types.FieldPrice, err) {
		info.Price = decimal.NewNullDecimal(v)
	}
	if v, err := ProbeCurrency(doc); e.keep(resp.URL, types.FieldCurrency, err) {
		info.Currency = &v
	}
	if v, err := ProbeGenres(doc); e.keep(resp.URL, types.FieldGenres, err) {
		info.Genres = v
	}
	if v, err := ProbeReviewSummary(doc); e.keep(resp.URL, types.FieldReviewSummary, err) {
		info.ReviewSummary = &v
	}
	if v, err := ProbeMetacritic(doc); e.keep(resp.URL, types.FieldMetacriticScore, err) {
		info.MetacriticScore = &v
	}
	if v, err := ProbeDeveloper(root, doc); e.keep(resp.URL, types.FieldDeveloper, err) {
		info.Developer = &v
	}
	if v, err := ProbePublisher(root); e.keep(resp.URL, types.FieldPublisher, err) {
		info.Publisher = &v
	}

	return info
}

func (e *Extractor) keep(url, field string, err error) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, types.ErrFieldMissing) && !errors.Is(err, types.ErrNameMissing) {
		e.logger.Debug("field malformed", "url", url, "field", field, "error", err)
	}
	return false
}

// ProbeName returns the game title.
func ProbeName(doc *goquery.Document) (string, error) {
	name, err := firstText(doc.Selection, SelName)
	if err != nil {
		return "", types.ErrNameMissing
	}
	return name, nil
}

// ProbeReleaseDate returns the release date as a calendar date in UTC.
func ProbeReleaseDate(doc *goquery.Document) (time.Time, error) {
	raw, err := firstText(doc.Selection, SelReleaseDate)
	if err != nil {
		raw, err = firstText(doc.Selection, SelAnyDate)
		if err != nil {
			return time.Time{}, err
		}
	}
	return ParseReleaseDate(raw)
}

// ParseReleaseDate parses a store release date such as "12 Jan, 2022".
func ParseReleaseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized release date %q", raw)
}

// ProbePrice returns the listed price.
func ProbePrice(doc *goquery.Document) (decimal.Decimal, error) {
	raw, err := firstAttr(doc.Selection, SelPrice, "content")
	if err != nil {
		return decimal.Decimal{}, err
	}
	raw = strings.ReplaceAll(raw, ",", "")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price %q: %w", raw, err)
	}
	return d, nil
}

// ProbeCurrency returns the ISO currency code of the price.
func ProbeCurrency(doc *goquery.Document) (string, error) {
	return firstAttr(doc.Selection, SelCurrency, "content")
}

// ProbeGenres returns genre names in document order.
func ProbeGenres(doc *goquery.Document) ([]string, error) {
	var genres []string
	doc.Find(SelGenres).Each(func(_ int, s *goquery.Selection) {
		if g := strings.TrimSpace(s.Text()); g != "" {
			genres = append(genres, g)
		}
	})
	if len(genres) == 0 {
		return nil, types.ErrFieldMissing
	}
	return genres, nil
}

// ProbeReviewSummary returns the first review summary label.
func ProbeReviewSummary(doc *goquery.Document) (string, error) {
	return firstText(doc.Selection, SelReviewSummary)
}

// ProbeMetacritic returns the critic score.
func ProbeMetacritic(doc *goquery.Document) (int, error) {
	raw, err := firstText(doc.Selection, SelMetascore)
	if err != nil {
		raw, err = firstText(doc.Selection, SelMetascoreHigh)
		if err != nil {
			return 0, err
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("metacritic score %q: %w", raw, err)
	}
	return n, nil
}

// ProbeDeveloper returns the first listed developer.
func ProbeDeveloper(root *html.Node, doc *goquery.Document) (string, error) {
	if v, err := devRow(root, "Developer"); err == nil {
		return v, nil
	}
	return firstText(doc.Selection, SelDevelopers)
}

// ProbePublisher returns the first listed publisher.
func ProbePublisher(root *html.Node) (string, error) {
	return devRow(root, "Publisher")
}

// devRow reads the first link of the dev_row block labelled label.
func devRow(root *html.Node, label string) (string, error) {
	if root == nil {
		return "", types.ErrFieldMissing
	}
	node, err := htmlquery.Query(root, fmt.Sprintf(xpDevRow, label))
	if err != nil {
		return "", err
	}
	if node == nil {
		return "", types.ErrFieldMissing
	}
	v := strings.TrimSpace(htmlquery.InnerText(node))
	if v == "" {
		return "", types.ErrFieldMissing
	}
	return v, nil
}

func firstText(sel *goquery.Selection, css string) (string, error) {
	s := sel.Find(css).First()
	if s.Length() == 0 {
		return "", types.ErrFieldMissing
	}
	v := strings.TrimSpace(s.Text())
	if v == "" {
		return "", types.ErrFieldMissing
	}
	return v, nil
}

func firstAttr(sel *goquery.Selection, css, attr string) (string, error) {
	v, ok := sel.Find(css).First().Attr(attr)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", types.ErrFieldMissing
	}
	return v, nil
}
