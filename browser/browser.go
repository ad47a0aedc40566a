// Package browser drives headless browsers for embed pages that only reveal their
// manifest after scripts run and playback starts.
//
// Sessions are expensive (a process, a renderer and a network stack each), so they
// are only ever used through With, which releases them on every exit path.
package browser

import (
	"context"
	"errors"
	"sync"

	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/metrics"
)

// ErrNoBackend is returned when browser automation is disabled.
var ErrNoBackend = errors.New("no browser backend configured")

// Session is one browser with one page.
// Every blocking method returns once ctx is done; there is no unbounded wait.
type Session interface {
	// Navigate loads url in the page and waits for the document to load.
	Navigate(ctx context.Context, url string) error
	// Attribute waits for the first element matching selector and returns its attribute.
	Attribute(ctx context.Context, selector, name string) (string, error)
	// Click waits for the first element matching selector and clicks it from script,
	// which works even when overlays intercept pointer events.
	Click(ctx context.Context, selector string) error
	// HTML returns the current serialized document.
	HTML(ctx context.Context) (string, error)
	// Requests returns the URLs of every request the page issued so far, in order.
	Requests() []string
	// Close releases the page, the browser and any process behind it.
	Close() error
}

// Backend opens sessions.
type Backend interface {
	Name() string
	Open(ctx context.Context) (Session, error)
}

// With opens a session, passes it to fn and always closes it afterwards,
// even when fn panics. A failing Close is logged and never replaces fn's result.
func With[T any](ctx context.Context, backend Backend, fn func(Session) (T, error)) (result T, err error) {
	if backend == nil {
		return result, ErrNoBackend
	}

	session, err := backend.Open(ctx)
	if err != nil {
		return result, err
	}
	metrics.BrowserSessions.Inc()

	defer func() {
		metrics.BrowserSessions.Dec()
		if closeErr := session.Close(); closeErr != nil {
			log.WithFields(log.Fields{"backend": backend.Name()}).WithError(closeErr).Warn("close browser session")
		}
	}()

	return fn(session)
}

// requestLog collects request URLs reported from event goroutines.
type requestLog struct {
	mu   sync.Mutex
	urls []string
}

func (r *requestLog) add(url string) {
	r.mu.Lock()
	r.urls = append(r.urls, url)
	r.mu.Unlock()
}

func (r *requestLog) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}
