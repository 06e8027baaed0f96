// Package browser drives a headless browser for pages that need JavaScript:
// listing pages that load rows on scroll or on a button press, and detail
// pages behind the age gate.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SashaBaych/steam-scrape/internal/config"
	"github.com/SashaBaych/steam-scrape/internal/useragent"
)

// Session is one live browser with a single open page.
type Session interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// WaitFor waits up to timeout for a CSS selector to match.
	// It returns false (and no error) when the wait times out.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	// Click clicks the first element matching a CSS selector. It gives up
	// with ErrActionTimeout after Options.ActionTimeout.
	Click(ctx context.Context, selector string) error

	// ClickXPath waits up to timeout for an XPath match and clicks it.
	// It returns false (and no error) when nothing matched in time.
	ClickXPath(ctx context.Context, expr string, timeout time.Duration) (bool, error)

	// SelectValue picks the option with the given value in a <select>.
	// It is bounded the same way as Click.
	SelectValue(ctx context.Context, selector, value string) error

	// ScrollToBottom scrolls the window to the end of the document.
	ScrollToBottom(ctx context.Context) error

	// ScrollHeight reports document.body.scrollHeight.
	ScrollHeight(ctx context.Context) (int, error)

	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)

	// Close tears down the page and the browser process.
	Close() error
}

// Launcher starts a fresh browser for every session.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// ErrActionTimeout reports a click or select whose target never became usable.
var ErrActionTimeout = errors.New("browser action timed out")

// Options configures new browser sessions.
type Options struct {
	Headless     bool
	Stealth      bool
	WindowWidth  int
	WindowHeight int
	BinPath      string
	UserAgents   *useragent.Picker

	// ActionTimeout bounds Click and SelectValue. Zero leaves them bounded
	// only by the caller's context.
	ActionTimeout time.Duration
}

// OptionsFromConfig builds launch options from the browser section of the config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Headless:     cfg.Browser.Headless,
		Stealth:      cfg.Browser.Stealth,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
		BinPath:      cfg.Browser.BinPath,
		UserAgents:   useragent.NewPicker(cfg.Fetcher.UserAgents),

		ActionTimeout: cfg.Browser.GateTimeout,
	}
}

// NewLauncher returns the launcher for the configured engine.
func NewLauncher(cfg *config.Config, logger *slog.Logger) (Launcher, error) {
	opts := OptionsFromConfig(cfg)
	switch cfg.Browser.Engine {
	case "rod", "":
		return NewRodLauncher(opts, logger), nil
	case "chromedp":
		return NewChromedpLauncher(opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", cfg.Browser.Engine)
	}
}

// withTimeout derives the context for one bounded action.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// actionErr labels a failed action and turns a deadline that belongs to the
// action, not to ctx, into ErrActionTimeout.
func actionErr(ctx context.Context, action, target string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%s %s: %w", action, target, ErrActionTimeout)
	}
	return fmt.Errorf("%s %s: %w", action, target, err)
}

func (o Options) windowSize() string {
	return fmt.Sprintf("%d,%d", o.WindowWidth, o.WindowHeight)
}
