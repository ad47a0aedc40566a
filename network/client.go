// Package network provides the outbound HTTP clients shared by fetchers, the render API and Lua resolvers.
package network

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Options tunes a client built by NewClient.
type Options struct {
	// Timeout bounds a whole exchange, body included.
	Timeout time.Duration
	// Impersonate dials https origins with a Chrome TLS fingerprint.
	Impersonate bool
}

// NewClient returns a long-lived client for connection and cookie reuse.
// It holds no request-specific state, so one instance may serve concurrent callers.
func NewClient(opts Options) *http.Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	var transport http.RoundTripper = newTransport()
	if opts.Impersonate {
		transport = NewChromeTransport()
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		Jar:       jar,
	}
}

// newTransport initializes a tuned http.Transport with optimized pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 20
	t.MaxConnsPerHost = 50
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = time.Second
	return t
}
