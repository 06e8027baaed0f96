package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used in exports.
const DateLayout = "2006-01-02"

// Field keys of a GameInfo as they appear in exports.
const (
	FieldName            = "name"
	FieldReleaseDate     = "release_date"
	FieldPrice           = "price"
	FieldCurrency        = "price_currency"
	FieldGenres          = "genres"
	FieldReviewSummary   = "review_summary"
	FieldMetacriticScore = "metacritic_score"
	FieldDeveloper       = "developer"
	FieldPublisher       = "publisher"
	FieldSampleDate      = "sample_date"
)

// InfoFields lists every GameInfo key in export order.
var InfoFields = []string{
	FieldName,
	FieldReleaseDate,
	FieldPrice,
	FieldCurrency,
	FieldGenres,
	FieldReviewSummary,
	FieldMetacriticScore,
	FieldDeveloper,
	FieldPublisher,
	FieldSampleDate,
}

// GameInfo holds the detail fields extracted from one game page.
// A nil pointer (or nil Genres, or an invalid Price) means the field was not found.
type GameInfo struct {
	Name            *string
	ReleaseDate     *time.Time
	Price           decimal.NullDecimal
	Currency        *string
	Genres          []string
	ReviewSummary   *string
	MetacriticScore *int
	Developer       *string
	Publisher       *string
	SampleDate      time.Time

	// Unavailable is set when neither the direct fetch nor the age-gate bypass produced a page.
	Unavailable bool
}

// UnavailableInfo returns the record used for games whose page could not be read.
func UnavailableInfo(sampleDate time.Time) *GameInfo {
	return &GameInfo{SampleDate: sampleDate, Unavailable: true}
}

// HasName reports whether the name block was found.
func (g *GameInfo) HasName() bool {
	return g != nil && g.Name != nil
}

// Map returns every field keyed by its export name. Absent fields map to nil.
func (g *GameInfo) Map() map[string]any {
	m := make(map[string]any, len(InfoFields))
	for _, k := range InfoFields {
		m[k] = nil
	}
	if g == nil {
		return m
	}
	m[FieldName] = deref(g.Name)
	if g.ReleaseDate != nil {
		m[FieldReleaseDate] = g.ReleaseDate.Format(DateLayout)
	}
	if g.Price.Valid {
		m[FieldPrice] = g.Price.Decimal.StringFixed(2)
	}
	m[FieldCurrency] = deref(g.Currency)
	if g.Genres != nil {
		m[FieldGenres] = g.Genres
	}
	m[FieldReviewSummary] = deref(g.ReviewSummary)
	if g.MetacriticScore != nil {
		m[FieldMetacriticScore] = *g.MetacriticScore
	}
	m[FieldDeveloper] = deref(g.Developer)
	m[FieldPublisher] = deref(g.Publisher)
	m[FieldSampleDate] = g.SampleDate.Format(DateLayout)
	return m
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
