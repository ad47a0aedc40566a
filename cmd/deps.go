package cmd

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cinegate/cinegate/auth"
	"github.com/cinegate/cinegate/browser"
	"github.com/cinegate/cinegate/dispatch"
	"github.com/cinegate/cinegate/fetch"
	"github.com/cinegate/cinegate/key"
	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/network"
	"github.com/cinegate/cinegate/resolver"
	"github.com/cinegate/cinegate/resolver/custom"
	"github.com/cinegate/cinegate/where"
	"github.com/spf13/viper"
)

// backend returns the configured browser backend, nil when browsers are disabled.
func backend() (browser.Backend, error) {
	headless := viper.GetBool(key.BrowserHeadless)
	bin := viper.GetString(key.BrowserBin)

	switch name := strings.ToLower(viper.GetString(key.BrowserBackend)); name {
	case "", "none":
		return nil, nil
	case "rod":
		return &browser.Rod{
			ControlURL: viper.GetString(key.BrowserControlURL),
			Bin:        bin,
			Dir:        where.Browser(),
			Headless:   headless,
		}, nil
	case "playwright":
		p := &browser.Playwright{Bin: bin, Headless: headless}
		if host := viper.GetString(key.BrowserRemoteHost); host != "" {
			password, err := auth.Secret(key.BrowserRemotePassword)
			if err != nil {
				return nil, fmt.Errorf("remote browser password: %w", err)
			}
			p.Endpoint = "ws://" + net.JoinHostPort(host, strconv.Itoa(viper.GetInt(key.BrowserRemotePort)))
			p.Username = viper.GetString(key.BrowserRemoteUsername)
			p.Password = password
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown browser backend %q, expected rod, playwright or none", name)
	}
}

// fetcher returns the shared outbound client. Render mode goes through the
// rendering API when a key is configured, otherwise through the browser.
func fetcher(b browser.Backend) (*fetch.Client, error) {
	client := network.NewClient(network.Options{Impersonate: viper.GetBool(key.FetchImpersonate)})
	opts := []fetch.Option{
		fetch.WithHTTPClient(client),
		fetch.WithTimeout(viper.GetDuration(key.FetchTimeout)),
	}

	apiKey, err := auth.Secret(key.RenderAPIKey)
	if err != nil {
		return nil, fmt.Errorf("render api key: %w", err)
	}

	switch {
	case apiKey != "":
		opts = append(opts, fetch.WithRenderer(&fetch.RenderAPI{
			Endpoint: viper.GetString(key.RenderEndpoint),
			APIKey:   apiKey,
			Wait:     viper.GetDuration(key.RenderWait),
			HTTP:     client,
		}))
	case b != nil:
		opts = append(opts, fetch.WithRenderer(&browser.Renderer{
			Backend: b,
			Settle:  viper.GetDuration(key.BrowserSettle),
		}))
	}
	return fetch.New(opts...), nil
}

// registry returns the built-in servers followed by the Lua resolver scripts.
func registry(f fetch.Fetcher, b browser.Backend) *dispatch.Registry {
	attempts := viper.GetInt(key.BrowserAttempts)
	deps := resolver.Deps{
		Fetcher: f,
		Backend: b,
		Order:   viper.GetStringSlice(key.ResolveStrategies),
		Automate: resolver.Automate{
			Attempts:    attempts,
			Timeout:     viper.GetDuration(key.ResolveTimeout) / time.Duration(max(1, attempts)),
			Settle:      viper.GetDuration(key.BrowserSettle),
			IframeWait:  viper.GetDuration(key.BrowserIframeWait),
			PlayWait:    viper.GetDuration(key.BrowserPlayWait),
			CaptureWait: viper.GetDuration(key.BrowserCaptureWait),
		},
	}
	servers := dispatch.Builtins(deps)

	if viper.GetBool(key.ResolveScripts) {
		scripts, err := custom.LoadDir(where.Resolvers(), nil)
		if err != nil {
			log.WithError(err).Warn("some resolver scripts were not loaded")
		}
		servers = append(servers, dispatch.ScriptedServers(scripts)...)
	}
	return dispatch.NewRegistry(servers...)
}

// dispatcher wires the whole resolution stack from configuration. Resolvers
// fetch through retry, so only the failing request is repeated, never a whole
// resolution with its browser sessions.
func dispatcher(retry fetch.RetryPolicy) (*dispatch.Dispatcher, *fetch.Client, error) {
	b, err := backend()
	if err != nil {
		return nil, nil, err
	}
	f, err := fetcher(b)
	if err != nil {
		return nil, nil, err
	}

	d := dispatch.New(registry(fetch.WithRetry(f, retry), b),
		dispatch.WithTimeout(viper.GetDuration(key.ResolveTimeout)),
		dispatch.WithCache(
			where.Resolutions(), viper.GetDuration(key.ResolveCacheLifetime),
			where.Failures(), viper.GetDuration(key.ResolveFailLifetime),
		),
	)
	return d, f, nil
}
