package resolver

import (
	"context"
	"net/http"
	"sync"

	"github.com/cinegate/cinegate/fetch"
)

// stubFetcher serves canned bodies by URL and records every call.
type stubFetcher struct {
	pages  map[string]string
	errs   map[string]error
	render bool

	mu    sync.Mutex
	calls []fetch.Options
	urls  []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string, opts fetch.Options) (*fetch.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, opts)
	s.urls = append(s.urls, url)
	s.mu.Unlock()

	if err, ok := s.errs[url]; ok {
		return nil, err
	}
	body, ok := s.pages[url]
	if !ok {
		return nil, &fetch.Error{Kind: fetch.KindStatus, URL: url, Status: http.StatusNotFound}
	}
	return &fetch.Response{URL: url, Status: http.StatusOK, Header: http.Header{}, Body: []byte(body)}, nil
}

func (s *stubFetcher) CanRender() bool {
	return s.render
}

// flakyFetcher answers the first call with a 503 and hands the rest to next.
type flakyFetcher struct {
	next  fetch.Fetcher
	calls int
}

func (f *flakyFetcher) Fetch(ctx context.Context, url string, opts fetch.Options) (*fetch.Response, error) {
	f.calls++
	if f.calls == 1 {
		return nil, &fetch.Error{Kind: fetch.KindStatus, URL: url, Status: http.StatusServiceUnavailable}
	}
	return f.next.Fetch(ctx, url, opts)
}
