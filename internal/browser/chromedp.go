package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromedpLauncher launches Chromium through chromedp.
type ChromedpLauncher struct {
	opts   Options
	logger *slog.Logger
}

// NewChromedpLauncher creates a chromedp-backed launcher.
func NewChromedpLauncher(opts Options, logger *slog.Logger) *ChromedpLauncher {
	return &ChromedpLauncher{
		opts:   opts,
		logger: logger.With("component", "chromedp_browser"),
	}
}

// Launch starts a new browser process with one tab.
func (l *ChromedpLauncher) Launch(ctx context.Context) (Session, error) {
	ua := l.opts.UserAgents.Pick()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(l.opts.WindowWidth, l.opts.WindowHeight),
		chromedp.UserAgent(ua),
	)
	if l.opts.BinPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.opts.BinPath))
	}

	// The browser lives until Close, not until ctx ends.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	l.logger.Debug("browser launched", "user_agent", ua)
	return &chromedpSession{
		ctx:           tabCtx,
		cancel:        func() { cancelTab(); cancelAlloc() },
		actionTimeout: l.opts.ActionTimeout,
	}, nil
}

type chromedpSession struct {
	ctx           context.Context
	cancel        context.CancelFunc
	actionTimeout time.Duration
}

// run executes actions bound to both the tab and the caller's context.
func (s *chromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx := s.ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(runCtx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, 0, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *chromedpSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	err := s.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
	return timedOut(ctx, err)
}

func (s *chromedpSession) Click(ctx context.Context, selector string) error {
	err := s.run(ctx, s.actionTimeout, chromedp.Click(selector, chromedp.ByQuery))
	return actionErr(ctx, "click", selector, err)
}

func (s *chromedpSession) ClickXPath(ctx context.Context, expr string, timeout time.Duration) (bool, error) {
	err := s.run(ctx, timeout,
		chromedp.WaitVisible(expr, chromedp.BySearch),
		chromedp.ScrollIntoView(expr, chromedp.BySearch),
		chromedp.Click(expr, chromedp.BySearch),
	)
	return timedOut(ctx, err)
}

func (s *chromedpSession) SelectValue(ctx context.Context, selector, value string) error {
	err := s.run(ctx, s.actionTimeout, chromedp.SetValue(selector, value, chromedp.ByQuery))
	return actionErr(ctx, "select", selector, err)
}

func (s *chromedpSession) ScrollToBottom(ctx context.Context) error {
	return s.run(ctx, 0, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

func (s *chromedpSession) ScrollHeight(ctx context.Context) (int, error) {
	var h int
	err := s.run(ctx, 0, chromedp.Evaluate(`document.body.scrollHeight`, &h))
	return h, err
}

func (s *chromedpSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromedpSession) Close() error {
	s.cancel()
	return nil
}

func timedOut(ctx context.Context, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return false, nil
	}
	return false, err
}
