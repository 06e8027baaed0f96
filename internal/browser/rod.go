package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// RodLauncher launches Chromium through rod.
type RodLauncher struct {
	opts   Options
	logger *slog.Logger
}

// NewRodLauncher creates a rod-backed launcher.
func NewRodLauncher(opts Options, logger *slog.Logger) *RodLauncher {
	return &RodLauncher{
		opts:   opts,
		logger: logger.With("component", "rod_browser"),
	}
}

// Launch starts a new browser process and opens one page in it.
func (l *RodLauncher) Launch(ctx context.Context) (Session, error) {
	ua := l.opts.UserAgents.Pick()

	lc := launcher.New().
		Headless(l.opts.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", l.opts.windowSize()).
		Set("user-agent", ua)
	if l.opts.BinPath != "" {
		lc = lc.Bin(l.opts.BinPath)
	}

	controlURL, err := lc.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		lc.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	var page *rod.Page
	if l.opts.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		_ = b.Close()
		lc.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		l.logger.Debug("user agent override failed", "error", err)
	}

	l.logger.Debug("browser launched", "stealth", l.opts.Stealth, "user_agent", ua)
	return &rodSession{browser: b, page: page, launcher: lc, actionTimeout: l.opts.ActionTimeout}, nil
}

type rodSession struct {
	browser       *rod.Browser
	page          *rod.Page
	launcher      *launcher.Launcher
	actionTimeout time.Duration
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (s *rodSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	_, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	return found(ctx, err)
}

func (s *rodSession) Click(ctx context.Context, selector string) error {
	actx, cancel := withTimeout(ctx, s.actionTimeout)
	defer cancel()
	el, err := s.page.Context(actx).Element(selector)
	if err == nil {
		err = el.Click(proto.InputMouseButtonLeft, 1)
	}
	return actionErr(ctx, "click", selector, err)
}

func (s *rodSession) ClickXPath(ctx context.Context, expr string, timeout time.Duration) (bool, error) {
	el, err := s.page.Context(ctx).Timeout(timeout).ElementX(expr)
	if ok, err := found(ctx, err); !ok {
		return false, err
	}
	if err := el.ScrollIntoView(); err != nil {
		return false, err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("click %s: %w", expr, err)
	}
	return true, nil
}

func (s *rodSession) SelectValue(ctx context.Context, selector, value string) error {
	actx, cancel := withTimeout(ctx, s.actionTimeout)
	defer cancel()
	el, err := s.page.Context(actx).Element(selector)
	if err == nil {
		err = el.Select([]string{value}, true, rod.SelectorTypeText)
	}
	return actionErr(ctx, "select", selector, err)
}

func (s *rodSession) ScrollToBottom(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (s *rodSession) ScrollHeight(ctx context.Context) (int, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}

// found maps a timed out element lookup to (false, nil).
func found(ctx context.Context, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return false, nil
	}
	var notFound *rod.ElementNotFoundError
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, err
}
