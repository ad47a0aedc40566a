package browser

import (
	"context"
	"fmt"

	"github.com/cinegate/cinegate/constant"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Rod drives Chromium over the DevTools protocol.
//
// With ControlURL set it attaches to an already running browser; otherwise every
// session launches, and later kills, its own Chromium process.
type Rod struct {
	ControlURL string
	// Bin is the Chromium executable. Empty means a system install, or a download into Dir.
	Bin      string
	Dir      string
	Headless bool
}

// Name implements Backend.
func (r *Rod) Name() string {
	return "rod"
}

// Open implements Backend.
func (r *Rod) Open(ctx context.Context) (Session, error) {
	controlURL := r.ControlURL

	var l *launcher.Launcher
	if controlURL == "" {
		bin, err := r.bin()
		if err != nil {
			return nil, err
		}

		l = launcher.New().
			Context(ctx).
			Bin(bin).
			Headless(r.Headless).
			NoSandbox(true).
			Set("disable-dev-shm-usage").
			Set("disable-gpu").
			Set("mute-audio").
			Set("autoplay-policy", "no-user-gesture-required").
			Set("window-size", "1280,1696")

		controlURL, err = l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chromium: %w", err)
		}
	}

	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, controlURL, nil); err != nil {
		killLauncher(l)
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	s, err := attach(ws, l)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// devtools is the connection a session speaks the DevTools protocol over.
type devtools interface {
	cdp.WebSocketable
	Close() error
}

// attach opens a page over conn. Every failure after this point closes conn
// and kills l, so nothing of the session outlives the error.
func attach(conn devtools, l *launcher.Launcher) (*rodSession, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &rodSession{conn: conn, launcher: l, cancel: cancel, done: make(chan struct{})}

	b := rod.New().ControlURL("").Client(cdp.New().Start(conn)).Context(ctx)
	if err := b.Connect(); err != nil {
		s.release()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	if l == nil {
		// Closing an incognito context leaves a shared remote browser running.
		incognito, err := b.Incognito()
		if err != nil {
			s.release()
			return nil, fmt.Errorf("create browser context: %w", err)
		}
		b = incognito
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		s.release()
		return nil, fmt.Errorf("open page: %w", err)
	}

	_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: constant.UserAgent})

	s.browser, s.page = b, page
	wait := page.EachEvent(func(e *proto.NetworkRequestWillBeSent) {
		s.requests.add(e.Request.URL)
	})
	go func() {
		defer close(s.done)
		wait()
	}()

	return s, nil
}

func (r *Rod) bin() (string, error) {
	if r.Bin != "" {
		return r.Bin, nil
	}
	if path, ok := launcher.LookPath(); ok {
		return path, nil
	}

	b := launcher.NewBrowser()
	if r.Dir != "" {
		b.RootDir = r.Dir
	}
	path, err := b.Get()
	if err != nil {
		return "", fmt.Errorf("download chromium: %w", err)
	}
	return path, nil
}

func killLauncher(l *launcher.Launcher) {
	if l != nil {
		l.Kill()
		l.Cleanup()
	}
}

type rodSession struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	conn     devtools
	cancel   context.CancelFunc
	requests requestLog
	// done is closed once the request listener has returned.
	done     chan struct{}
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return page.WaitLoad()
}

func (s *rodSession) Attribute(ctx context.Context, selector, name string) (string, error) {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return "", fmt.Errorf("wait for %q: %w", selector, err)
	}

	v, err := el.Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (s *rodSession) Click(ctx context.Context, selector string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	_, err = el.Eval(`() => this.click()`)
	return err
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *rodSession) Requests() []string {
	return s.requests.snapshot()
}

// Close disposes the browser context, or the whole browser when this session
// launched it, then drops the connection and waits for the request listener.
func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.release()
	<-s.done
	return err
}

func (s *rodSession) release() {
	s.cancel()
	_ = s.conn.Close()
	killLauncher(s.launcher)
}
