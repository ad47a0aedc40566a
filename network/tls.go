package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cinegate/cinegate/log"
	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 15 * time.Second

// ChromeTransport is an http.RoundTripper whose TLS handshakes mimic Chrome 120.
// Embed hosts behind Cloudflare or DDoS-Guard reject the stock Go ClientHello.
//
// https requests go over HTTP/2 first and fall back to HTTP/1.1 with forced ALPN
// when the h2 exchange fails. Plain http requests use a regular transport.
type ChromeTransport struct {
	h2    *http2.Transport
	h1    *http.Transport
	plain *http.Transport
}

var (
	chrome     *ChromeTransport
	chromeOnce sync.Once
)

// NewChromeTransport returns the process-wide Chrome transport, so pooled
// connections are shared between every client that impersonates.
func NewChromeTransport() *ChromeTransport {
	chromeOnce.Do(func() {
		h1 := newTransport()
		h1.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChrome(ctx, network, addr, []string{"http/1.1"})
		}

		chrome = &ChromeTransport{
			h2: &http2.Transport{
				DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
					return dialChrome(ctx, network, addr, nil)
				},
			},
			h1:    h1,
			plain: newTransport(),
		}
	})
	return chrome
}

// RoundTrip implements http.RoundTripper.
func (t *ChromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.plain.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	if req.Context().Err() != nil {
		return nil, err
	}

	retry := req
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, err
		}
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, err
		}
		retry = req.Clone(req.Context())
		retry.Body = body
	}

	log.Debugf("h2 to %s failed, retrying over http/1.1: %v", req.URL.Host, err)
	return t.h1.RoundTrip(retry)
}

// dialChrome opens a TCP connection and performs a Chrome-fingerprinted handshake.
// A nil protos keeps Chrome's own ALPN list (h2, http/1.1).
func dialChrome(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}

	return tlsConn, nil
}
