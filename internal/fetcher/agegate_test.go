package fetcher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SashaBaych/steam-scrape/internal/browser"
	"github.com/SashaBaych/steam-scrape/internal/browser/browsertest"
	"github.com/SashaBaych/steam-scrape/internal/config"
	"github.com/SashaBaych/steam-scrape/internal/parser"
	"github.com/SashaBaych/steam-scrape/internal/types"
)

const renderedDetail = `<html><body><div class="apphub_AppName">Mature Game</div></body></html>`

func gateSession(present ...string) func() *browsertest.Session {
	return func() *browsertest.Session {
		set := make(map[string]bool)
		for _, p := range present {
			set[p] = true
		}
		return &browsertest.Session{
			Present: func(sel string) bool { return set[sel] },
			Page:    func() string { return renderedDetail },
		}
	}
}

func TestAgeGateBypass(t *testing.T) {
	l := &browsertest.Launcher{New: gateSession(SelAgeGate, parser.SelName)}
	f := NewAgeGateFetcher(config.DefaultConfig(), l, testLogger)

	resp, err := f.Fetch(context.Background(), "https://store.steampowered.com/app/42/")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !resp.Rendered || string(resp.Body) != renderedDetail {
		t.Errorf("unexpected response %+v", resp)
	}

	s := l.Sessions[0]
	if s.Selected[SelAgeYear] != "1980" {
		t.Errorf("birth year = %q", s.Selected[SelAgeYear])
	}
	if len(s.Clicked) != 1 || s.Clicked[0] != SelViewPage {
		t.Errorf("clicks = %v", s.Clicked)
	}
	if !s.Closed {
		t.Error("browser not closed")
	}
}

func TestAgeGateCountryBlock(t *testing.T) {
	l := &browsertest.Launcher{New: gateSession(SelCountryBlock, SelAgeGate)}
	f := NewAgeGateFetcher(config.DefaultConfig(), l, testLogger)

	_, err := f.Fetch(context.Background(), "https://store.steampowered.com/app/43/")
	if !errors.Is(err, types.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if len(l.Sessions[0].Selected) != 0 {
		t.Error("should not touch the age form when blocked")
	}
	if !l.Sessions[0].Closed {
		t.Error("browser not closed")
	}
}

func TestAgeGateMissingPrompt(t *testing.T) {
	l := &browsertest.Launcher{New: gateSession()}
	f := NewAgeGateFetcher(config.DefaultConfig(), l, testLogger)

	_, err := f.Fetch(context.Background(), "https://store.steampowered.com/app/44/")
	if !errors.Is(err, types.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestAgeGateLaunchFailure(t *testing.T) {
	l := &browsertest.Launcher{Err: errors.New("no chrome")}
	f := NewAgeGateFetcher(config.DefaultConfig(), l, testLogger)

	_, err := f.Fetch(context.Background(), "https://store.steampowered.com/app/45/")
	if !errors.Is(err, types.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestAgeGateStuckConfirmButton(t *testing.T) {
	l := &browsertest.Launcher{New: func() *browsertest.Session {
		s := gateSession(SelAgeGate, parser.SelName)()
		s.OnClick = func(sel string) error {
			return fmt.Errorf("click %s: %w", sel, browser.ErrActionTimeout)
		}
		return s
	}}
	f := NewAgeGateFetcher(config.DefaultConfig(), l, testLogger)

	_, err := f.Fetch(context.Background(), "https://store.steampowered.com/app/46/")
	if !errors.Is(err, types.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, browser.ErrActionTimeout) {
		t.Errorf("expected the action timeout to be kept, got %v", err)
	}
	if !l.Sessions[0].Closed {
		t.Error("browser not closed")
	}
}

func TestAgeGateStuckYearSelect(t *testing.T) {
	l := &browsertest.Launcher{New: func() *browsertest.Session {
		s := gateSession(SelAgeGate, parser.SelName)()
		s.OnSelect = func(sel, _ string) error {
			return fmt.Errorf("select %s: %w", sel, browser.ErrActionTimeout)
		}
		return s
	}}
	f := NewAgeGateFetcher(config.DefaultConfig(), l, testLogger)

	_, err := f.Fetch(context.Background(), "https://store.steampowered.com/app/47/")
	if !errors.Is(err, types.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if len(l.Sessions[0].Clicked) != 0 {
		t.Errorf("confirm should not be pressed, clicks = %v", l.Sessions[0].Clicked)
	}
}
