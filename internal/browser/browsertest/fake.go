// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SashaBaych/steam-scrape/internal/browser"
)

// Session is a scriptable browser.Session. Hooks left nil fall back to
// harmless defaults; every call is recorded.
type Session struct {
	mu sync.Mutex

	OnNavigate   func(url string) error
	Present      func(selector string) bool
	OnClick      func(selector string) error
	OnSelect     func(selector, value string) error
	OnClickXPath func(expr string) bool
	OnScroll     func()
	Height       func() int
	Page         func() string

	Visited  []string
	Clicked  []string
	Selected map[string]string
	Scrolls  int
	Closed   bool
}

var _ browser.Session = (*Session)(nil)

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	s.Visited = append(s.Visited, url)
	s.mu.Unlock()
	if s.OnNavigate != nil {
		return s.OnNavigate(url)
	}
	return ctx.Err()
}

func (s *Session) WaitFor(ctx context.Context, selector string, _ time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.Present == nil {
		return false, nil
	}
	return s.Present(selector), nil
}

func (s *Session) Click(_ context.Context, selector string) error {
	s.mu.Lock()
	s.Clicked = append(s.Clicked, selector)
	s.mu.Unlock()
	if s.OnClick != nil {
		return s.OnClick(selector)
	}
	return nil
}

func (s *Session) ClickXPath(_ context.Context, expr string, _ time.Duration) (bool, error) {
	if s.OnClickXPath == nil {
		return false, nil
	}
	ok := s.OnClickXPath(expr)
	if ok {
		s.mu.Lock()
		s.Clicked = append(s.Clicked, expr)
		s.mu.Unlock()
	}
	return ok, nil
}

func (s *Session) SelectValue(_ context.Context, selector, value string) error {
	if s.OnSelect != nil {
		if err := s.OnSelect(selector, value); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Selected == nil {
		s.Selected = make(map[string]string)
	}
	s.Selected[selector] = value
	return nil
}

func (s *Session) ScrollToBottom(context.Context) error {
	s.mu.Lock()
	s.Scrolls++
	s.mu.Unlock()
	if s.OnScroll != nil {
		s.OnScroll()
	}
	return nil
}

func (s *Session) ScrollHeight(context.Context) (int, error) {
	if s.Height == nil {
		return 0, nil
	}
	return s.Height(), nil
}

func (s *Session) HTML(context.Context) (string, error) {
	if s.Page == nil {
		return "", errors.New("no page loaded")
	}
	return s.Page(), nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.Closed = true
	s.mu.Unlock()
	return nil
}

// Launcher hands out sessions built by New.
type Launcher struct {
	mu       sync.Mutex
	New      func() *Session
	Err      error
	Sessions []*Session
}

var _ browser.Launcher = (*Launcher)(nil)

func (l *Launcher) Launch(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Err != nil {
		return nil, l.Err
	}
	s := &Session{}
	if l.New != nil {
		s = l.New()
	}
	l.mu.Lock()
	l.Sessions = append(l.Sessions, s)
	l.mu.Unlock()
	return s, nil
}

// Launched returns how many sessions were started.
func (l *Launcher) Launched() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Sessions)
}
