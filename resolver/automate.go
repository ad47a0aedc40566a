package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cinegate/cinegate/browser"
	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/util"
)

// maxAttempts caps browser attempts no matter what is configured.
const maxAttempts = 3

// Waits used when the corresponding Automate field is zero.
const (
	defaultAttemptTimeout = time.Minute
	defaultIframeWait     = 10 * time.Second
	defaultPlayWait       = 15 * time.Second
	defaultCaptureWait    = 15 * time.Second
)

// Automate resolves embeds in a real browser: load the page, hop into the nested
// player if the host has one, start playback and watch for the manifest.
//
// Every attempt runs in a fresh session under its own deadline and every wait
// inside it is bounded as well.
type Automate struct {
	Backend  browser.Backend
	Attempts int
	// Timeout bounds one attempt, session start-up and teardown included.
	Timeout time.Duration
	// Settle is the pause after each page load.
	Settle      time.Duration
	IframeWait  time.Duration
	PlayWait    time.Duration
	CaptureWait time.Duration
	// Poll is the interval between two looks at requests or the video source.
	Poll time.Duration
}

// Name implements Strategy.
func (a *Automate) Name() string {
	return "browser"
}

// Resolve implements Strategy.
func (a *Automate) Resolve(ctx context.Context, host Host, embedURL string) (string, error) {
	attempts := util.Clamp(a.Attempts, 1, maxAttempts)

	var err error
	for i := 1; i <= attempts; i++ {
		var u string
		u, err = a.attempt(ctx, host, embedURL)
		if err == nil {
			return u, nil
		}

		log.WithFields(log.Fields{
			"host":    host.Name,
			"attempt": i,
			"kind":    ClassOf(err),
		}).WithError(err).Debug("browser attempt failed")

		if errors.Is(err, ErrCaptcha) || ctx.Err() != nil {
			break
		}
	}
	return "", err
}

func (a *Automate) attempt(ctx context.Context, host Host, embedURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(a.Timeout, defaultAttemptTimeout))
	defer cancel()

	return browser.With(ctx, a.Backend, func(s browser.Session) (string, error) {
		if err := a.load(ctx, s, embedURL); err != nil {
			return "", err
		}

		if selector, ok := host.NestedIframe.Get(); ok {
			src, err := bounded(ctx, orDefault(a.IframeWait, defaultIframeWait), func(ctx context.Context) (string, error) {
				return s.Attribute(ctx, selector, "src")
			})
			if err != nil || src == "" {
				// Some mirrors inline the player; carry on with the outer page.
				log.WithFields(log.Fields{"host": host.Name}).Debug("nested player iframe not found")
			} else if inner, err := absolute(embedURL, src); err == nil {
				if err := a.load(ctx, s, inner); err != nil {
					return "", fmt.Errorf("nested player: %w", err)
				}
			}
		}

		_, clickErr := bounded(ctx, orDefault(a.PlayWait, defaultPlayWait), func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.Click(ctx, host.playSelector())
		})
		if clickErr != nil {
			// Autoplaying players never show a control; the capture below decides.
			log.WithFields(log.Fields{"host": host.Name}).WithError(clickErr).Debug("play control not clicked")
		}

		var (
			u   string
			err error
		)
		switch host.Capture {
		case CaptureVideoSrc:
			u, err = a.pollVideoSrc(ctx, s, embedURL)
		default:
			u, err = a.captureNetwork(ctx, s)
		}
		if errors.Is(err, ErrNoManifest) {
			if html, htmlErr := s.HTML(ctx); htmlErr == nil && IsCaptcha(html) {
				return "", ErrCaptcha
			}
		}
		return u, err
	})
}

func (a *Automate) load(ctx context.Context, s browser.Session, url string) error {
	if err := s.Navigate(ctx, url); err != nil {
		return err
	}
	return browser.Sleep(ctx, a.Settle)
}

// captureNetwork waits for manifest requests. It returns as soon as a master
// playlist shows up; chunk lists only win once the wait is over.
func (a *Automate) captureNetwork(ctx context.Context, s browser.Session) (string, error) {
	return a.poll(ctx, func(context.Context) (string, bool, bool) {
		found := ManifestURLs(s.Requests())
		u, ok := PickManifest(found)
		return u, ok && !looksLikeChunk(u), ok
	})
}

// pollVideoSrc waits for the video element to point at a manifest.
func (a *Automate) pollVideoSrc(ctx context.Context, s browser.Session, base string) (string, error) {
	return a.poll(ctx, func(ctx context.Context) (string, bool, bool) {
		src, err := bounded(ctx, a.interval(), func(ctx context.Context) (string, error) {
			return s.Attribute(ctx, "video", "src")
		})
		if err != nil || !IsManifestURL(src) {
			return "", false, false
		}
		abs, err := absolute(base, src)
		return abs, err == nil, err == nil
	})
}

// poll calls look until it reports done or CaptureWait elapses.
// look returns the best candidate so far, whether it is final, and whether there is one at all.
func (a *Automate) poll(parent context.Context, look func(context.Context) (string, bool, bool)) (string, error) {
	wait := orDefault(a.CaptureWait, defaultCaptureWait)
	ctx, cancel := context.WithTimeout(parent, wait)
	defer cancel()

	ticker := time.NewTicker(a.interval())
	defer ticker.Stop()

	for {
		candidate, done, ok := look(ctx)
		if done {
			return candidate, nil
		}

		select {
		case <-ctx.Done():
			if ok {
				return candidate, nil
			}
			if err := parent.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("%w after %s", ErrNoManifest, wait)
		case <-ticker.C:
		}
	}
}

func (a *Automate) interval() time.Duration {
	if a.Poll <= 0 {
		return 250 * time.Millisecond
	}
	return a.Poll
}

// bounded runs fn under an extra deadline of d on top of ctx.
func bounded[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
