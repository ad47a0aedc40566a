// Package dispatch routes resolution requests to the resolver of the named server,
// with result caching and coalescing of identical in-flight requests.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/metrics"
	"github.com/cinegate/cinegate/resolver"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrUnsupported is returned for server names without an implementation.
	ErrUnsupported = errors.New("unsupported server")
	// ErrInvalidSource is returned for empty or malformed source ids.
	ErrInvalidSource = errors.New("invalid source id")
)

const (
	defaultTimeout = 90 * time.Second
	maxSourceID    = 256
)

// Request names what to resolve.
type Request struct {
	Server   string
	SourceID string
	// Force skips both caches.
	Force bool
}

// Result is the outcome of a resolution, shaped for the JSON API.
type Result struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
	Server  string `json:"server,omitempty"`
	Cached  bool   `json:"cached"`
	// Err is the failure behind Error.
	Err error `json:"-"`
}

// failure is what the failure cache remembers about an unsuccessful resolution.
type failure struct {
	Kind    resolver.Class `json:"class"`
	Message string         `json:"message"`
}

func (f failure) Error() string         { return f.Message }
func (f failure) Class() resolver.Class { return f.Kind }

// Dispatcher resolves requests against a Registry.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration

	resolved *cacher[string]
	failed   *cacher[failure]

	group singleflight.Group
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds every uncached resolution.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithCache remembers successes for lifetime and failures for failLifetime
// in the given files. A zero lifetime disables that cache.
func WithCache(resolutions string, lifetime time.Duration, failures string, failLifetime time.Duration) Option {
	return func(d *Dispatcher) {
		if lifetime > 0 {
			d.resolved = newCacher[string](resolutions, lifetime)
		}
		if failLifetime > 0 {
			d.failed = newCacher[failure](failures, failLifetime)
		}
	}
}

// New returns a Dispatcher without caches unless configured otherwise.
// A resolution runs once; retries belong to the fetcher the resolvers use.
func New(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry requests are routed through.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Resolve resolves req. Failures are reported in the Result, never as panics.
// Unknown servers and bad ids fail before any network or browser work.
//
// Identical concurrent requests share one resolution, which keeps running for
// the other waiters when ctx is cancelled and is bounded by the dispatcher timeout.
func (d *Dispatcher) Resolve(ctx context.Context, req Request) Result {
	server := d.registry.Lookup(req.Server)
	if !server.Supported() {
		metrics.Resolutions.WithLabelValues(server.Name, "unsupported").Inc()
		err := fmt.Errorf("%w %q", ErrUnsupported, server.Name)
		if s, ok := d.registry.Suggest(server.Name).Get(); ok {
			err = fmt.Errorf("%w, did you mean %q?", err, s)
		}
		return fail(server.Name, err)
	}

	id, err := validSourceID(req.SourceID)
	if err != nil {
		metrics.Resolutions.WithLabelValues(server.Name, "invalid").Inc()
		return fail(server.Name, err)
	}

	key := server.Name + "/" + id
	if !req.Force {
		if u, ok := d.resolved.Get(key).Get(); ok {
			metrics.Resolutions.WithLabelValues(server.Name, "cached").Inc()
			return Result{Success: true, URL: u, Server: server.Name, Cached: true}
		}
		if f, ok := d.failed.Get(key).Get(); ok {
			metrics.Resolutions.WithLabelValues(server.Name, "cached").Inc()
			r := fail(server.Name, f)
			r.Cached = true
			return r
		}
	}

	ch := d.group.DoChan(key, func() (any, error) {
		return d.resolve(ctx, server, id, key)
	})

	select {
	case <-ctx.Done():
		return fail(server.Name, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return fail(server.Name, res.Err)
		}
		return Result{Success: true, URL: res.Val.(string), Server: server.Name}
	}
}

func (d *Dispatcher) resolve(ctx context.Context, server *Server, id, key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	start := time.Now()
	u, err := server.Resolver.Resolve(ctx, id)
	metrics.ResolveDuration.WithLabelValues(server.Name).Observe(time.Since(start).Seconds())

	fields := log.Fields{
		"server": server.Name,
		"source": id,
		"took":   time.Since(start).Round(time.Millisecond),
	}

	if err != nil {
		class := resolver.ClassOf(err)
		fields["kind"] = class
		metrics.Resolutions.WithLabelValues(server.Name, string(class)).Inc()
		log.WithFields(fields).WithError(err).Warn("resolution failed")

		if cacheErr := d.failed.Set(key, failure{Kind: class, Message: err.Error()}); cacheErr != nil {
			log.WithError(cacheErr).Warn("cache failure")
		}
		return "", err
	}

	metrics.Resolutions.WithLabelValues(server.Name, "ok").Inc()
	log.WithFields(fields).Info("resolved")

	if cacheErr := d.resolved.Set(key, u); cacheErr != nil {
		log.WithError(cacheErr).Warn("cache resolution")
	}
	if cacheErr := d.failed.Delete(key); cacheErr != nil {
		log.WithError(cacheErr).Warn("clear cached failure")
	}
	return u, nil
}

// Forget drops any cached outcome for a server and source id. Names that no
// server answers to are reported rather than silently ignored.
func (d *Dispatcher) Forget(server, sourceID string) error {
	s := d.registry.Lookup(server)
	if !s.Supported() {
		return fmt.Errorf("%w %q", ErrUnsupported, s.Name)
	}
	key := s.Name + "/" + strings.TrimSpace(sourceID)
	return errors.Join(d.resolved.Delete(key), d.failed.Delete(key))
}

func validSourceID(id string) (string, error) {
	id = strings.TrimSpace(id)
	switch {
	case id == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidSource)
	case len(id) > maxSourceID:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidSource, maxSourceID)
	case strings.ContainsAny(id, "/?# \t\r\n"):
		return "", fmt.Errorf("%w %q", ErrInvalidSource, id)
	}
	return id, nil
}

func fail(server string, err error) Result {
	return Result{Server: server, Error: err.Error(), Err: err}
}
