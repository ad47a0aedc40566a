package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// RenderAPI renders pages through a ScrapingBee-compatible HTTP API:
// GET endpoint?api_key=K&url=U&render_js=true&wait=MS returns the rendered HTML.
type RenderAPI struct {
	Endpoint string
	APIKey   string
	// Wait lets page scripts run before the snapshot is taken.
	Wait time.Duration
	HTTP *http.Client
}

// Render implements Renderer.
func (r *RenderAPI) Render(ctx context.Context, target string, opts Options) (*Response, error) {
	if r.APIKey == "" {
		return nil, &Error{Kind: KindRender, URL: target, Err: errors.New("render api key is not set")}
	}

	params := url.Values{}
	params.Set("api_key", r.APIKey)
	params.Set("url", target)
	params.Set("render_js", "true")
	if r.Wait > 0 {
		params.Set("wait", strconv.FormatInt(r.Wait.Milliseconds(), 10))
	}
	if opts.Referer != "" {
		params.Set("forward_headers", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &Error{Kind: KindRender, URL: target, Err: err}
	}
	if opts.Referer != "" {
		req.Header.Set("Spb-Referer", opts.Referer)
	}

	client := r.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, wrap(ctx, target, KindTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, wrap(ctx, target, KindTransport, fmt.Errorf("read body: %w", err))
	}

	// The API reports upstream failures with its own status; both count as status errors.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, URL: target, Status: resp.StatusCode}
	}

	return &Response{URL: target, Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
