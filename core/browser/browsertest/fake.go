// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/leadspider/leadspider/core/browser"
	jsoniter "github.com/json-iterator/go"
)

// EvalFunc answers Evaluate calls for a fixture. Returning (nil, nil) yields null.
type EvalFunc func(js string, args ...any) (any, error)

// Fixture is the canned content served for one URL.
type Fixture struct {
	HTML     string
	Text     string
	FinalURL string
	Err      error
	// Hang blocks Navigate until the context is done.
	Hang bool
	Eval EvalFunc
}

// Session serves fixtures keyed by URL and records page usage.
type Session struct {
	mu       sync.Mutex
	fixtures map[string]Fixture
	visits   []string
	waits    []browser.WaitStrategy
	opened   int
	closed   int
	failures map[string]int
}

func NewSession() *Session {
	return &Session{fixtures: make(map[string]Fixture), failures: make(map[string]int)}
}

// Add registers a fixture for url.
func (s *Session) Add(url string, f Fixture) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures[url] = f
	return s
}

// AddHTML registers a plain HTML fixture.
func (s *Session) AddHTML(url, html string) *Session {
	return s.Add(url, Fixture{HTML: html})
}

// FailFirst makes the first n navigations to url fail before the fixture is served.
func (s *Session) FailFirst(url string, n int) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[url] = n
	return s
}

func (s *Session) OpenPage(ctx context.Context) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &Page{session: s}, nil
}

func (s *Session) Close() error { return nil }

// Visits lists navigated URLs in order.
func (s *Session) Visits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visits...)
}

// Waits lists the wait strategy of every navigation, in visit order.
func (s *Session) Waits() []browser.WaitStrategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]browser.WaitStrategy(nil), s.waits...)
}

// VisitCount counts navigations to url.
func (s *Session) VisitCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.visits {
		if v == url {
			n++
		}
	}
	return n
}

// Leaked reports pages opened but never closed.
func (s *Session) Leaked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened - s.closed
}

func (s *Session) navigate(url string, wait browser.WaitStrategy) (Fixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits = append(s.visits, url)
	s.waits = append(s.waits, wait)
	if n := s.failures[url]; n > 0 {
		s.failures[url] = n - 1
		return Fixture{}, fmt.Errorf("navigation failed: net::ERR_CONNECTION_REFUSED at %s", url)
	}
	f, ok := s.fixtures[url]
	if !ok {
		return Fixture{}, fmt.Errorf("navigation failed: net::ERR_NAME_NOT_RESOLVED at %s", url)
	}
	return f, f.Err
}

// Page is a fake tab bound to the fixture it navigated to.
type Page struct {
	session *Session
	mu      sync.Mutex
	fixture Fixture
	url     string
	closed  bool
}

func (p *Page) Navigate(ctx context.Context, url string, wait browser.WaitStrategy) error {
	f, err := p.session.navigate(url, wait)
	if err != nil {
		return err
	}
	if f.Hang {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	p.fixture = f
	p.url = url
	if f.FinalURL != "" {
		p.url = f.FinalURL
	}
	p.mu.Unlock()
	return nil
}

func (p *Page) HTML(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fixture.HTML, nil
}

func (p *Page) Text(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fixture.Text != "" {
		return p.fixture.Text, nil
	}
	return browser.TextFromHTML(p.fixture.HTML), nil
}

func (p *Page) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *Page) Evaluate(_ context.Context, js string, args ...any) ([]byte, error) {
	p.mu.Lock()
	eval := p.fixture.Eval
	p.mu.Unlock()
	if eval == nil {
		return []byte("null"), nil
	}
	v, err := eval(js, args...)
	if err != nil {
		return nil, err
	}
	return jsoniter.Marshal(v)
}

func (p *Page) Screenshot(context.Context) ([]byte, error) {
	return []byte("png"), nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.session.mu.Lock()
	p.session.closed++
	p.session.mu.Unlock()
	return nil
}

// ScriptContains builds an EvalFunc that answers with the first response whose
// key is a substring of the evaluated script.
func ScriptContains(responses map[string]any) EvalFunc {
	return func(js string, _ ...any) (any, error) {
		for key, v := range responses {
			if strings.Contains(js, key) {
				return v, nil
			}
		}
		return nil, nil
	}
}
