// Package metrics exposes Prometheus collectors for resolutions, proxy traffic and browser sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cinegate"

// Registry holds every cinegate collector plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	// Resolutions counts dispatch outcomes per server: ok, cached, unsupported, failed.
	Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolve_total",
		Help:      "Resolution requests by server and outcome.",
	}, []string{"server", "outcome"})

	// ResolveDuration observes uncached resolutions per server.
	ResolveDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "resolve_duration_seconds",
		Help:      "Wall time of uncached resolutions.",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
	}, []string{"server"})

	// Strategies counts strategy attempts by name and outcome.
	Strategies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_attempts_total",
		Help:      "Resolution strategy attempts by strategy and error class.",
	}, []string{"strategy", "outcome"})

	// ProxyRequests counts proxy responses by kind: manifest, redirect, error.
	ProxyRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_requests_total",
		Help:      "Proxy responses by kind.",
	}, []string{"kind"})

	// BrowserSessions is the number of browser sessions currently open.
	BrowserSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "browser_sessions",
		Help:      "Browser sessions currently open.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Resolutions,
		ResolveDuration,
		Strategies,
		ProxyRequests,
		BrowserSessions,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
