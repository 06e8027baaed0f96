package pipeline

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/SashaBaych/steam-scrape/internal/catalog"
	"github.com/SashaBaych/steam-scrape/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func strPtr(s string) *string { return &s }

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})

	rec := &catalog.GameRecord{
		Name: "  Hades \n II ",
		Link: " https://store.steampowered.com/app/1145350/ ",
		Info: &types.GameInfo{Developer: strPtr("  Supergiant   Games ")},
	}

	result, err := p.Process(rec)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.Name != "Hades II" {
		t.Errorf("expected collapsed name, got %q", result.Name)
	}
	if result.Link != "https://store.steampowered.com/app/1145350/" {
		t.Errorf("expected trimmed link, got %q", result.Link)
	}
	if *result.Info.Developer != "Supergiant Games" {
		t.Errorf("expected collapsed developer, got %q", *result.Info.Developer)
	}
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m := &RequiredFieldsMiddleware{}

	result, err := m.Process(&catalog.GameRecord{Name: "Hades", Link: "https://x/app/1"})
	if err != nil || result == nil {
		t.Error("record with name and link should pass")
	}

	result, _ = m.Process(&catalog.GameRecord{Name: "Hades"})
	if result != nil {
		t.Error("record without link should be dropped")
	}
}

func TestHTMLSanitizeMiddleware(t *testing.T) {
	m := NewHTMLSanitizeMiddleware()
	rec := &catalog.GameRecord{
		Name: "Tom Clancy&#39;s Rainbow Six&reg; Siege",
		Info: &types.GameInfo{
			Publisher: strPtr("<b>Ubisoft</b>"),
			Genres:    []string{"Action &amp; Adventure"},
		},
	}

	result, err := m.Process(rec)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if result.Name != "Tom Clancy's Rainbow Six® Siege" {
		t.Errorf("name = %q", result.Name)
	}
	if *result.Info.Publisher != "Ubisoft" {
		t.Errorf("publisher = %q", *result.Info.Publisher)
	}
	if result.Info.Genres[0] != "Action & Adventure" {
		t.Errorf("genre = %q", result.Info.Genres[0])
	}
}

func TestCurrencyNormalizeMiddleware(t *testing.T) {
	m := &CurrencyNormalizeMiddleware{}

	priced := &catalog.GameRecord{Info: &types.GameInfo{
		Price:    decimal.NewNullDecimal(decimal.RequireFromString("59.999")),
		Currency: strPtr(" usd "),
	}}
	if _, err := m.Process(priced); err != nil {
		t.Fatalf("error: %v", err)
	}
	if got := priced.Info.Price.Decimal.StringFixed(2); got != "60.00" {
		t.Errorf("price = %s, want 60.00", got)
	}
	if *priced.Info.Currency != "USD" {
		t.Errorf("currency = %q", *priced.Info.Currency)
	}

	free := &catalog.GameRecord{Info: &types.GameInfo{Currency: strPtr("USD")}}
	if _, err := m.Process(free); err != nil {
		t.Fatalf("error: %v", err)
	}
	if free.Info.Currency != nil {
		t.Errorf("currency without price should be cleared, got %q", *free.Info.Currency)
	}
}

func TestGenreNormalizeMiddleware(t *testing.T) {
	m := &GenreNormalizeMiddleware{}
	rec := &catalog.GameRecord{Info: &types.GameInfo{
		Genres: []string{" Action ", "RPG", "action", "", "Indie"},
	}}

	if _, err := m.Process(rec); err != nil {
		t.Fatalf("error: %v", err)
	}
	if diff := cmp.Diff([]string{"Action", "RPG", "Indie"}, rec.Info.Genres); diff != "" {
		t.Errorf("genres mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultPipeline_ProcessAll(t *testing.T) {
	p := Default(testLogger)
	if p.Len() != 5 {
		t.Fatalf("Len = %d, want 5", p.Len())
	}

	records := []*catalog.GameRecord{
		{Rank: 1, Name: "Counter-Strike 2", Link: "https://x/app/730"},
		{Rank: 2, Name: "   ", Link: "https://x/app/2"},
		{Rank: 3, Name: "Unavailable Game", Link: "https://x/app/3", Info: types.UnavailableInfo(time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC))},
	}

	out, err := p.ProcessAll(records)
	if err != nil {
		t.Fatalf("ProcessAll: %v", err)
	}
	if len(out) != 2 || out[0].Rank != 1 || out[1].Rank != 3 {
		t.Errorf("unexpected survivors %+v", out)
	}
}
