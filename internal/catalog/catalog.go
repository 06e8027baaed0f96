// Package catalog keeps the games collected during one run, keyed by name.
package catalog

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/SashaBaych/steam-scrape/internal/types"
)

// GameRecord is one game in the catalog.
type GameRecord struct {
	Rank     int
	Name     string
	Category string
	Link     string
	Info     *types.GameInfo
}

// Catalog maps game names to records. Adding a name that already exists
// overwrites the stored record in place.
//
// A Catalog is not safe for concurrent use. It is filled by one goroutine
// after each detail batch has been collected.
type Catalog struct {
	category string
	games    map[string]*GameRecord
}

// New creates an empty catalog for a category.
func New(category string) *Catalog {
	return &Catalog{
		category: category,
		games:    make(map[string]*GameRecord),
	}
}

// Category returns the category the catalog was built for.
func (c *Catalog) Category() string {
	return c.category
}

// Add inserts or overwrites the record for name. The last write wins for
// every field, including a change of category.
func (c *Catalog) Add(rank int, name, category, link string, info *types.GameInfo) *GameRecord {
	rec, ok := c.games[name]
	if !ok {
		rec = &GameRecord{Name: name}
		c.games[name] = rec
	}
	rec.Rank = rank
	rec.Category = category
	rec.Link = link
	rec.Info = info
	return rec
}

// Get returns the record stored under name.
func (c *Catalog) Get(name string) (*GameRecord, bool) {
	rec, ok := c.games[name]
	return rec, ok
}

// Len returns the number of distinct games.
func (c *Catalog) Len() int {
	return len(c.games)
}

// Records returns all records ordered by rank, then name.
func (c *Catalog) Records() []*GameRecord {
	out := make([]*GameRecord, 0, len(c.games))
	for _, rec := range c.games {
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Render writes the whole catalog as a table.
func (c *Catalog) Render(w io.Writer) {
	RenderRecords(w, c.category, c.Records())
}

// RenderRecords writes records as a table in the order given. It is used
// for records that went through the pipeline, which may have dropped or
// rewritten some of them.
func RenderRecords(w io.Writer, category string, records []*GameRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Top sellers: " + category)
	t.AppendHeader(table.Row{"#", "Name", "Category", "Price", "Released", "Developer", "Publisher", "Genres", "Reviews", "Score"})

	for _, rec := range records {
		row := table.Row{rec.Rank, rec.Name, rec.Category}
		info := rec.Info
		if info == nil || info.Unavailable {
			row = append(row, "info not available", "", "", "", "", "", "")
			t.AppendRow(row)
			continue
		}
		m := info.Map()
		price := cell(m[types.FieldPrice])
		if cur := cell(m[types.FieldCurrency]); price != "" && cur != "" {
			price += " " + cur
		}
		row = append(row,
			price,
			cell(m[types.FieldReleaseDate]),
			cell(m[types.FieldDeveloper]),
			cell(m[types.FieldPublisher]),
			strings.Join(info.Genres, ", "),
			cell(m[types.FieldReviewSummary]),
			cell(m[types.FieldMetacriticScore]),
		)
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", "games", len(records)})
	t.Render()
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	default:
		return ""
	}
}
