package resolver

import (
	"context"
	"fmt"

	"github.com/cinegate/cinegate/fetch"
	"github.com/cinegate/cinegate/log"
)

// Strategy extracts a manifest URL from an embed page.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, host Host, embedURL string) (string, error)
}

// Scan fetches the embed page and searches its markup and scripts for a manifest URL.
// When the page holds none it follows one nested player iframe.
type Scan struct {
	Fetcher fetch.Fetcher
	// RenderJS fetches through the renderer instead of a plain GET.
	RenderJS bool
}

// Name implements Strategy.
func (s *Scan) Name() string {
	if s.RenderJS {
		return "render"
	}
	return "scan"
}

// Resolve implements Strategy.
func (s *Scan) Resolve(ctx context.Context, host Host, embedURL string) (string, error) {
	html, final, err := s.page(ctx, embedURL, fetch.Origin(embedURL))
	if err != nil {
		return "", err
	}
	if u, ok := PickManifest(FindManifests(html, final)); ok {
		return u, nil
	}
	if IsCaptcha(html) {
		return "", ErrCaptcha
	}

	selector := host.NestedIframe.OrElse("iframe[src]")
	inner, ok := IframeSource(html, final, selector)
	if !ok {
		return "", ErrNoManifest
	}

	log.WithFields(log.Fields{"host": host.Name, "iframe": inner}).Debug("following nested player")

	html, final, err = s.page(ctx, inner, fetch.Origin(embedURL))
	if err != nil {
		return "", fmt.Errorf("nested player: %w", err)
	}
	if u, ok := PickManifest(FindManifests(html, final)); ok {
		return u, nil
	}
	if IsCaptcha(html) {
		return "", ErrCaptcha
	}
	return "", ErrNoManifest
}

func (s *Scan) page(ctx context.Context, url, referer string) (html, final string, err error) {
	resp, err := s.Fetcher.Fetch(ctx, url, fetch.Options{Referer: referer, RenderJS: s.RenderJS})
	if err != nil {
		return "", "", err
	}

	html = string(resp.Body)
	final = resp.URL
	if final == "" {
		final = url
	}
	return html, final, nil
}
