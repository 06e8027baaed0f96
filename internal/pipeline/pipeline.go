// Package pipeline normalizes catalog records before they are stored.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/SashaBaych/steam-scrape/internal/catalog"
)

// Middleware processes a record and returns the (possibly modified) record.
// Return nil to drop the record from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop it.
	Process(rec *catalog.GameRecord) (*catalog.GameRecord, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default returns the pipeline applied to every scraped catalog.
func Default(logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(NewHTMLSanitizeMiddleware())
	p.Use(&TrimMiddleware{})
	p.Use(&CurrencyNormalizeMiddleware{})
	p.Use(&GenreNormalizeMiddleware{})
	p.Use(&RequiredFieldsMiddleware{})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
func (p *Pipeline) Process(rec *catalog.GameRecord) (*catalog.GameRecord, error) {
	current := rec

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, fmt.Errorf("pipeline stage %s on %q: %w", mw.Name(), current.Name, err)
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", mw.Name(), "name", rec.Name)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// ProcessAll runs every record through the pipeline and returns the survivors
// in their original order.
func (p *Pipeline) ProcessAll(records []*catalog.GameRecord) ([]*catalog.GameRecord, error) {
	out := make([]*catalog.GameRecord, 0, len(records))
	for _, rec := range records {
		result, err := p.Process(rec)
		if err != nil {
			return nil, err
		}
		if result != nil {
			out = append(out, result)
		}
	}
	if dropped := len(records) - len(out); dropped > 0 {
		p.logger.Info("records dropped", "count", dropped)
	}
	return out, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// RequiredFieldsMiddleware drops records without a name or a link.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(rec *catalog.GameRecord) (*catalog.GameRecord, error) {
	if rec.Name == "" || rec.Link == "" {
		return nil, nil
	}
	return rec, nil
}

// TrimMiddleware collapses whitespace in the record's text fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(rec *catalog.GameRecord) (*catalog.GameRecord, error) {
	rec.Name = collapse(rec.Name)
	rec.Link = strings.TrimSpace(rec.Link)
	if info := rec.Info; info != nil {
		collapsePtr(info.Name)
		collapsePtr(info.Developer)
		collapsePtr(info.Publisher)
		collapsePtr(info.ReviewSummary)
	}
	return rec, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func collapsePtr(s *string) {
	if s != nil {
		*s = collapse(*s)
	}
}
