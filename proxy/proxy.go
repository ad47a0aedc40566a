// Package proxy serves rewritten HLS playlists behind opaque stream tokens.
//
// Playlists are fetched with the referer their host expects and every URI line
// is pointed back at this proxy; anything else is answered with a redirect so
// media bytes never flow through the server.
package proxy

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cinegate/cinegate/constant"
	"github.com/cinegate/cinegate/fetch"
	"github.com/cinegate/cinegate/hls"
	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/metrics"
	"github.com/gorilla/mux"
)

// Prefix is the path under which stream tokens are served.
const Prefix = "/proxy-stream/"

// TokenVar is the mux route variable holding the token.
const TokenVar = "token"

// upstreamTimeout bounds a playlist fetch made on behalf of a player.
const upstreamTimeout = 15 * time.Second

// sniffSize is how much of an extensionless resource is read to tell a playlist
// from media.
const sniffSize = 1024

// Link returns the proxy URL for absURL under the public base URL.
func Link(base, absURL string) string {
	return strings.TrimRight(base, "/") + Prefix + hls.Encode(absURL) + "/"
}

// Handler is the proxy endpoint. It keeps no state between requests.
type Handler struct {
	Fetcher fetch.Fetcher
	// Public is the externally visible base URL. Empty means derive it from each request.
	Public string
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)[TokenVar]
	if token == "" {
		token = strings.Trim(strings.TrimPrefix(r.URL.Path, Prefix), "/")
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")

	target, err := hls.Decode(token)
	if err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	kind := hls.Classify(target)
	if kind == hls.Media {
		h.redirect(w, r, target)
		return
	}

	var resp *fetch.Response
	if kind == hls.Unknown {
		resp, err = h.fetch(r, target, true)
		if err != nil {
			h.fail(w, http.StatusInternalServerError, err)
			return
		}
		if !isPlaylist(resp) {
			h.redirect(w, r, target)
			return
		}
		if resp.Truncated || resp.Status == http.StatusPartialContent {
			resp = nil
		}
	}

	if resp == nil {
		resp, err = h.fetch(r, target, false)
		if err != nil {
			h.fail(w, http.StatusInternalServerError, err)
			return
		}
	}

	if !isPlaylist(resp) {
		what := "unexpected content"
		if looksLikeMarkup(resp.Body) {
			what = "a web page"
		}
		h.fail(w, http.StatusInternalServerError, fmt.Errorf("upstream %s answered with %s instead of a playlist", target, what))
		return
	}

	manifestURL := resp.URL
	if manifestURL == "" {
		manifestURL = target
	}

	base := PublicBase(r, h.Public)
	out, stats, err := hls.Rewrite(resp.Body, manifestURL, func(abs string) string {
		return Link(base, abs)
	})
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	metrics.ProxyRequests.WithLabelValues("manifest").Inc()
	log.WithFields(log.Fields{
		"url":         target,
		"status":      resp.Status,
		"rewritten":   stats.Rewritten,
		"passthrough": stats.Passthrough,
	}).Debug("manifest proxied")

	w.Header().Set("Content-Type", constant.MimeMPEGURL)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(out)
}

// fetch requests target with its own origin as referer. A sniff asks for the
// first bytes only and never reads past them.
func (h *Handler) fetch(r *http.Request, target string, sniff bool) (*fetch.Response, error) {
	opts := fetch.Options{Referer: fetch.Origin(target), Timeout: upstreamTimeout}
	if sniff {
		opts.MaxBody = sniffSize
		opts.Headers = map[string]string{"Range": fmt.Sprintf("bytes=0-%d", sniffSize-1)}
	}
	return h.Fetcher.Fetch(r.Context(), target, opts)
}

// isPlaylist accepts a playlist Content-Type or a body that starts like one.
func isPlaylist(resp *fetch.Response) bool {
	return hls.IsManifestContentType(resp.Header.Get("Content-Type")) || hls.Sniff(resp.Body)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, target string) {
	metrics.ProxyRequests.WithLabelValues("redirect").Inc()
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) fail(w http.ResponseWriter, status int, err error) {
	metrics.ProxyRequests.WithLabelValues("error").Inc()
	log.WithFields(log.Fields{"status": status}).WithError(err).Warn("proxy request failed")

	w.Header().Set("Content-Type", constant.MimeText)
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "proxy error: %v", err)
}

func looksLikeMarkup(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("<"))
}

// PublicBase returns configured when set, otherwise the scheme and host the
// client used, honouring X-Forwarded-Proto and X-Forwarded-Host.
func PublicBase(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := firstValue(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = proto
	}

	host := r.Host
	if fwd := firstValue(r.Header.Get("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}

func firstValue(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}
