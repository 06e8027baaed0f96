package parser

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/SashaBaych/steam-scrape/internal/types"
)

// RowSelectors describes how to read game rows off a listing page.
type RowSelectors struct {
	Row string
	// Title selects inside the row; TitleAttr reads an attribute instead of text.
	Title     string
	TitleAttr string
	// Link selects inside the row; empty means the row element itself carries LinkAttr.
	Link     string
	LinkAttr string
}

// SearchRows matches the global top-sellers search results.
var SearchRows = RowSelectors{
	Row:      "a.search_result_row",
	Title:    "span.title",
	LinkAttr: "href",
}

// ContentHubRows matches the category content hub sale rows. Class names carry
// build hashes, so only their stable prefixes are matched.
var ContentHubRows = RowSelectors{
	Row:       "div[class*='SaleItemBrowserRow']",
	Title:     "img[class*='CapsuleImage']",
	TitleAttr: "alt",
	Link:      "div[class*='StoreSaleWidgetHalfLeft'] a[href]",
	LinkAttr:  "href",
}

// ListingEntry is one (title, link) pair read from a listing page.
type ListingEntry struct {
	Title string
	Link  string
}

// ParseListing returns the entries of a listing page in document order.
// Rows without a title or a link are skipped. Relative links resolve against base.
func ParseListing(body []byte, sel RowSelectors, base *url.URL) ([]ListingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ParseError{Selector: sel.Row, Err: err}
	}
	return ListingFromDocument(doc, sel, base), nil
}

// ListingFromDocument is ParseListing over an already parsed document.
func ListingFromDocument(doc *goquery.Document, sel RowSelectors, base *url.URL) []ListingEntry {
	var entries []ListingEntry
	doc.Find(sel.Row).Each(func(_ int, row *goquery.Selection) {
		title := rowValue(row, sel.Title, sel.TitleAttr)
		link := rowValue(row, sel.Link, sel.LinkAttr)
		if title == "" || link == "" {
			return
		}
		entries = append(entries, ListingEntry{
			Title: title,
			Link:  resolveLink(base, link),
		})
	})
	return entries
}

func rowValue(row *goquery.Selection, css, attr string) string {
	s := row
	if css != "" {
		s = row.Find(css).First()
	}
	if s.Length() == 0 {
		return ""
	}
	if attr == "" {
		return strings.TrimSpace(s.Text())
	}
	v, _ := s.Attr(attr)
	return strings.TrimSpace(v)
}

func resolveLink(base *url.URL, link string) string {
	if base == nil {
		return link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	return base.ResolveReference(u).String()
}
