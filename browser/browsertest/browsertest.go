// Package browsertest provides a scripted in-memory browser backend for tests.
package browsertest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cinegate/cinegate/browser"
)

// Page describes what a fake session observes after navigating to a URL.
// Elements that are not described never appear: waits for them block until
// the caller's context is done, like a real page that never renders them.
type Page struct {
	HTML string
	// Requests are observed as soon as the page loads.
	Requests []string
	// Attributes maps "selector@attribute" to successive values; the last one repeats.
	Attributes map[string][]string
	// Clickable lists selectors that exist and can be clicked.
	Clickable []string
	// ClickRequests are observed after the first successful click.
	ClickRequests []string
	// Hang makes navigation block until the context is done.
	Hang bool
}

// Backend is a browser.Backend serving Pages by URL.
type Backend struct {
	Pages   map[string]Page
	OpenErr error
	// CloseErr is returned by every session Close.
	CloseErr error

	opened atomic.Int32
	live   atomic.Int32
}

// Name implements browser.Backend.
func (b *Backend) Name() string {
	return "fake"
}

// Open implements browser.Backend.
func (b *Backend) Open(ctx context.Context) (browser.Session, error) {
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.opened.Add(1)
	b.live.Add(1)
	return &session{backend: b, polls: map[string]int{}}, nil
}

// Opened returns how many sessions were opened in total.
func (b *Backend) Opened() int {
	return int(b.opened.Load())
}

// Live returns how many sessions are open right now.
func (b *Backend) Live() int {
	return int(b.live.Load())
}

type session struct {
	backend *Backend

	mu       sync.Mutex
	page     Page
	url      string
	requests []string
	polls    map[string]int
	clicked  bool
	closed   bool
}

var errClosed = errors.New("session closed")

func (s *session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	page, ok := s.backend.Pages[url]
	s.mu.Unlock()

	if page.Hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if !ok {
		return errors.New("net::ERR_NAME_NOT_RESOLVED " + url)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
	s.url = url
	s.clicked = false
	s.requests = append(s.requests, url)
	s.requests = append(s.requests, page.Requests...)
	return nil
}

func (s *session) Attribute(ctx context.Context, selector, name string) (string, error) {
	s.mu.Lock()
	k := selector + "@" + name
	values, ok := s.page.Attributes[k]
	if ok && len(values) > 0 {
		i := min(s.polls[k], len(values)-1)
		s.polls[k]++
		s.mu.Unlock()
		return values[i], nil
	}
	s.mu.Unlock()

	<-ctx.Done()
	return "", ctx.Err()
}

func (s *session) Click(ctx context.Context, selector string) error {
	s.mu.Lock()
	for _, c := range s.page.Clickable {
		if c == selector {
			if !s.clicked {
				s.clicked = true
				s.requests = append(s.requests, s.page.ClickRequests...)
			}
			s.mu.Unlock()
			return nil
		}
	}
	s.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

func (s *session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page.HTML, nil
}

func (s *session) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.backend.live.Add(-1)
	}
	return s.backend.CloseErr
}
