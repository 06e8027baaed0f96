package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestGameInfoMapHasEveryKey(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	m := UnavailableInfo(day).Map()

	if len(m) != len(InfoFields) {
		t.Fatalf("expected %d keys, got %d", len(InfoFields), len(m))
	}
	for _, k := range InfoFields {
		v, ok := m[k]
		if !ok {
			t.Errorf("missing key %q", k)
			continue
		}
		if k == FieldSampleDate {
			if v != "2024-03-05" {
				t.Errorf("sample_date = %v", v)
			}
			continue
		}
		if v != nil {
			t.Errorf("expected nil for %q, got %v", k, v)
		}
	}
}

func TestGameInfoMapValues(t *testing.T) {
	name := "Elden Ring"
	score := 94
	released := time.Date(2022, 2, 25, 0, 0, 0, 0, time.UTC)
	info := &GameInfo{
		Name:            &name,
		ReleaseDate:     &released,
		Price:           decimal.NewNullDecimal(decimal.RequireFromString("59.99")),
		Genres:          []string{"Action", "RPG"},
		MetacriticScore: &score,
	}
	m := info.Map()

	if m[FieldName] != "Elden Ring" {
		t.Errorf("name = %v", m[FieldName])
	}
	if m[FieldReleaseDate] != "2022-02-25" {
		t.Errorf("release_date = %v", m[FieldReleaseDate])
	}
	if m[FieldPrice] != "59.99" {
		t.Errorf("price = %v", m[FieldPrice])
	}
	if m[FieldMetacriticScore] != 94 {
		t.Errorf("metacritic_score = %v", m[FieldMetacriticScore])
	}
	if v, ok := m["price_currency"]; !ok || v != nil {
		t.Errorf("price_currency should be present and nil, got %v (present %v)", v, ok)
	}
	if _, ok := m["currency"]; ok {
		t.Error("unexpected key currency")
	}
	if !info.HasName() {
		t.Error("expected HasName")
	}
}
