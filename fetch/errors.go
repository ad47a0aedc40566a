package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindTransport covers DNS, connection, TLS and body read failures.
	KindTransport Kind = iota
	// KindStatus is a completed exchange with a non-2xx status.
	KindStatus
	// KindTimeout is an exchange cut short by its deadline.
	KindTimeout
	// KindRender is a failed or unavailable JavaScript rendering.
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindTimeout:
		return "timeout"
	case KindRender:
		return "render"
	default:
		return "transport"
	}
}

// ErrNoRenderer is wrapped by render-mode fetches on a client without a renderer.
var ErrNoRenderer = errors.New("no renderer configured")

// Error is the error type returned by Fetcher implementations.
type Error struct {
	Kind   Kind
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("GET %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
	default:
		return fmt.Sprintf("GET %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether repeating the request may succeed.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindTransport, KindTimeout:
		return true
	case KindStatus:
		return e.Status == http.StatusTooManyRequests || e.Status >= 500
	default:
		return false
	}
}

// wrap converts err into an *Error, keeping an existing one intact.
func wrap(ctx context.Context, url string, kind Kind, err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		kind = KindTimeout
	}
	return &Error{Kind: kind, URL: url, Err: err}
}

// IsKind reports whether err carries a fetch failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}
