package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/cinegate/cinegate/constant"
	"github.com/playwright-community/playwright-go"
)

// defaultWait bounds playwright calls made with a context that has no deadline.
const defaultWait = 30 * time.Second

// Playwright drives Chromium through the Playwright driver.
//
// With Endpoint set it connects to a hosted browser (for example a browserless
// deployment) and authenticates with basic credentials; otherwise it launches one.
type Playwright struct {
	Endpoint string
	Username string
	Password string
	Bin      string
	Headless bool
}

// Name implements Backend.
func (p *Playwright) Name() string {
	return "playwright"
}

// Open implements Backend.
func (p *Playwright) Open(ctx context.Context) (Session, error) {
	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: p.Endpoint != ""})
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	var b playwright.Browser
	if p.Endpoint != "" {
		headers := map[string]string{}
		if p.Username != "" {
			creds := base64.StdEncoding.EncodeToString([]byte(p.Username + ":" + p.Password))
			headers["Authorization"] = "Basic " + creds
		}
		b, err = pw.Chromium.Connect(p.Endpoint, playwright.BrowserTypeConnectOptions{
			Headers: headers,
			Timeout: playwright.Float(remaining(ctx)),
		})
	} else {
		opts := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(p.Headless),
			Args:     []string{"--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu", "--mute-audio"},
			Timeout:  playwright.Float(remaining(ctx)),
		}
		if p.Bin != "" {
			opts.ExecutablePath = playwright.String(p.Bin)
		}
		b, err = pw.Chromium.Launch(opts)
	}
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("open chromium: %w", err)
	}

	page, err := b.NewPage(playwright.BrowserNewPageOptions{UserAgent: playwright.String(constant.UserAgent)})
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}

	s := &playwrightSession{pw: pw, browser: b, page: page}
	page.OnRequest(func(r playwright.Request) {
		s.requests.add(r.URL())
	})

	return s, nil
}

type playwrightSession struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	page     playwright.Page
	requests requestLog
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(remaining(ctx)),
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *playwrightSession) Attribute(ctx context.Context, selector, name string) (string, error) {
	loc := s.page.Locator(selector).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(remaining(ctx)),
	}); err != nil {
		return "", fmt.Errorf("wait for %q: %w", selector, err)
	}
	return loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: playwright.Float(remaining(ctx))})
}

func (s *playwrightSession) Click(ctx context.Context, selector string) error {
	loc := s.page.Locator(selector).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(remaining(ctx)),
	}); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return loc.DispatchEvent("click", nil, playwright.LocatorDispatchEventOptions{Timeout: playwright.Float(remaining(ctx))})
}

func (s *playwrightSession) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Content()
}

func (s *playwrightSession) Requests() []string {
	return s.requests.snapshot()
}

func (s *playwrightSession) Close() error {
	return errors.Join(s.browser.Close(), s.pw.Stop())
}

// remaining converts the time left on ctx to playwright milliseconds.
// An expired context still yields 1ms, since 0 disables playwright timeouts.
func remaining(ctx context.Context) float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return float64(defaultWait.Milliseconds())
	}
	return float64(max(time.Until(deadline).Milliseconds(), 1))
}
