package browser

import (
	"context"
	"net/http"
	"time"

	"github.com/cinegate/cinegate/fetch"
)

// Renderer adapts a Backend to fetch.Renderer, for deployments that have a
// browser but no rendering API.
type Renderer struct {
	Backend Backend
	// Settle lets page scripts run after load before the document is serialized.
	Settle time.Duration
}

// Render implements fetch.Renderer.
func (r *Renderer) Render(ctx context.Context, url string, _ fetch.Options) (*fetch.Response, error) {
	return With(ctx, r.Backend, func(s Session) (*fetch.Response, error) {
		if err := s.Navigate(ctx, url); err != nil {
			return nil, err
		}
		if err := Sleep(ctx, r.Settle); err != nil {
			return nil, err
		}

		html, err := s.HTML(ctx)
		if err != nil {
			return nil, err
		}
		return &fetch.Response{URL: url, Status: http.StatusOK, Header: http.Header{}, Body: []byte(html)}, nil
	})
}

// Sleep pauses for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
