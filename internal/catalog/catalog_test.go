package catalog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/SashaBaych/steam-scrape/internal/types"
)

func named(name string, score int) *types.GameInfo {
	return &types.GameInfo{Name: &name, MetacriticScore: &score, SampleDate: time.Now()}
}

func TestAddIsIdempotent(t *testing.T) {
	c := New("rpg")
	info := named("Game A", 80)
	c.Add(1, "Game A", "rpg", "https://example.com/a", info)
	c.Add(1, "Game A", "rpg", "https://example.com/a", info)

	if c.Len() != 1 {
		t.Fatalf("expected 1 game, got %d", c.Len())
	}
	rec, ok := c.Get("Game A")
	if !ok || rec.Rank != 1 || rec.Info != info {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestAddLastWriteWins(t *testing.T) {
	c := New("global")
	first := c.Add(3, "Game B", "global", "https://example.com/b", named("Game B", 70))
	c.Add(7, "Game B", "action", "https://example.com/b2", named("Game B", 90))

	rec, _ := c.Get("Game B")
	if rec != first {
		t.Error("expected the record to be updated in place")
	}
	if rec.Rank != 7 || rec.Category != "action" || rec.Link != "https://example.com/b2" {
		t.Errorf("fields not overwritten: %+v", rec)
	}
	if *rec.Info.MetacriticScore != 90 {
		t.Errorf("info not overwritten: %d", *rec.Info.MetacriticScore)
	}
}

func TestRecordsOrderedByRank(t *testing.T) {
	c := New("global")
	c.Add(2, "Second", "global", "l2", nil)
	c.Add(1, "First", "global", "l1", nil)
	c.Add(3, "Third", "global", "l3", nil)

	recs := c.Records()
	for i, want := range []string{"First", "Second", "Third"} {
		if recs[i].Name != want {
			t.Errorf("record %d = %q, want %q", i, recs[i].Name, want)
		}
	}
}

func TestRender(t *testing.T) {
	c := New("rpg")
	c.Add(1, "Game A", "rpg", "l1", named("Game A", 88))
	c.Add(2, "Locked", "rpg", "l2", types.UnavailableInfo(time.Now()))

	var buf bytes.Buffer
	c.Render(&buf)
	out := buf.String()
	for _, want := range []string{"Game A", "88", "Locked", "info not available"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRecordsShowsOnlyGivenRecords(t *testing.T) {
	c := New("rpg")
	c.Add(1, "Dropped Game", "rpg", "", named("Dropped Game", 50))
	kept := c.Add(2, "  Kept &amp; Cleaned ", "rpg", "l2", named("Kept", 75))

	cleaned := *kept
	cleaned.Name = "Kept & Cleaned"

	var buf bytes.Buffer
	RenderRecords(&buf, c.Category(), []*GameRecord{&cleaned})
	out := buf.String()
	if strings.Contains(out, "Dropped Game") {
		t.Errorf("dropped record was rendered:\n%s", out)
	}
	if !strings.Contains(out, "Kept & Cleaned") || strings.Contains(out, "&amp;") {
		t.Errorf("rendered table should show the processed name:\n%s", out)
	}
	if !strings.Contains(strings.ToLower(out), "games") || !strings.Contains(out, " 1 |") {
		t.Errorf("footer should count one record:\n%s", out)
	}
}
