// Package fetch retrieves embed pages and manifests, either with a plain browser-like GET
// or through a JavaScript rendering backend, under a shared bounded retry policy.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cinegate/cinegate/constant"
	"github.com/cinegate/cinegate/network"
)

// maxBody caps how much of a response is read into memory.
const maxBody = 16 << 20

// Options adjusts a single fetch.
type Options struct {
	// Referer is sent verbatim when non-empty. Use Origin to derive it from the target.
	Referer string
	// RenderJS delegates the fetch to the configured Renderer.
	RenderJS bool
	// Timeout overrides the client default for this call.
	Timeout time.Duration
	// Headers are applied last and win over the defaults.
	Headers map[string]string
	// MaxBody, when positive, reads at most this many bytes of the body.
	MaxBody int64
}

// Response is a fully read upstream response.
type Response struct {
	// URL is the final URL after redirects.
	URL    string
	Status int
	Header http.Header
	Body   []byte
	// Truncated is set when the body was cut at the read limit.
	Truncated bool
}

// Fetcher retrieves a URL. Failures are reported as *Error, never swallowed.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts Options) (*Response, error)
}

// Renderer fetches a page after its scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string, opts Options) (*Response, error)
}

// Client is the default Fetcher.
type Client struct {
	http     *http.Client
	renderer Renderer
	timeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) { client.http = c }
}

// WithRenderer enables render mode.
func WithRenderer(r Renderer) Option {
	return func(client *Client) { client.renderer = r }
}

// WithTimeout sets the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) { client.timeout = d }
}

// New returns a Client. Without options it uses a plain pooled client and a 20s timeout.
func New(opts ...Option) *Client {
	c := &Client{timeout: 20 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = network.NewClient(network.Options{})
	}
	return c
}

// CanRender reports whether render-mode fetches are possible.
func (c *Client) CanRender() bool {
	return c.renderer != nil
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context, target string, opts Options) (*Response, error) {
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if opts.RenderJS {
		if c.renderer == nil {
			return nil, &Error{Kind: KindRender, URL: target, Err: ErrNoRenderer}
		}
		resp, err := c.renderer.Render(ctx, target, opts)
		if err != nil {
			return nil, wrap(ctx, target, KindRender, err)
		}
		return resp, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: target, Err: err}
	}
	SetBrowserHeaders(req.Header, opts)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrap(ctx, target, KindTransport, err)
	}
	defer resp.Body.Close()

	limit := int64(maxBody)
	if opts.MaxBody > 0 && opts.MaxBody < limit {
		limit = opts.MaxBody
	}

	// The remainder of a cut body is never read; closing drops the connection.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, wrap(ctx, target, KindTransport, fmt.Errorf("read body: %w", err))
	}
	truncated := int64(len(body)) > limit
	if truncated {
		body = body[:limit]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, URL: target, Status: resp.StatusCode}
	}

	return &Response{
		URL:    resp.Request.URL.String(),
		Status: resp.StatusCode,
		Header:    resp.Header,
		Body:      body,
		Truncated: truncated,
	}, nil
}

// SetBrowserHeaders applies the desktop Chrome header set, the referer and any overrides.
func SetBrowserHeaders(h http.Header, opts Options) {
	h.Set("User-Agent", constant.UserAgent)
	h.Set("Accept", constant.Accept)
	h.Set("Accept-Language", constant.AcceptLanguage)
	if opts.Referer != "" {
		h.Set("Referer", opts.Referer)
	}
	for k, v := range opts.Headers {
		h.Set(k, v)
	}
}

// Origin returns the scheme and host of rawURL, e.g. "https://host".
// Many CDNs answer 403 when the referer is missing or names another site.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
