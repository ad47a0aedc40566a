// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/constant"
	"github.com/cinegate/cinegate/key"
	"github.com/cinegate/cinegate/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Cinegate + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	case time.Duration:
		return "duration"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.ServerAddress, ":8000", "Address the API and proxy listen on")
	register(key.ServerPublicURL, "", "Public base URL used in proxy links.\nDerived from the request (X-Forwarded-* aware) if empty")
	register(key.ServerReadTimeout, 30*time.Second, "Maximum duration for reading an inbound request")
	register(key.ServerWriteTimeout, 2*time.Minute, "Maximum duration for writing a response.\nMust exceed resolve.timeout")

	register(key.ResolveStrategies, []string{"scan", "render", "browser"}, "Resolution strategies, tried in order.\nAvailable options are: scan, render, browser\nUnavailable ones (no API key, no browser) are skipped")
	register(key.ResolveTimeout, 90*time.Second, "Upper bound for one resolution request, all strategies included")
	register(key.ResolveCacheLifetime, 6*time.Hour, "How long a resolved manifest URL is reused")
	register(key.ResolveFailLifetime, time.Minute, "How long a failed resolution is remembered")
	register(key.ResolveScripts, true, "Load Lua resolver scripts from the resolvers directory")

	register(key.FetchTimeout, 20*time.Second, "Timeout of a single outbound request")
	register(key.FetchImpersonate, true, "Use a Chrome TLS fingerprint for outbound requests")
	register(key.FetchRetries, 3, "Attempts per request for batch runs.\nInteractive requests never retry")
	register(key.FetchBackoffInitial, time.Second, "First retry delay")
	register(key.FetchBackoffMax, 10*time.Second, "Largest retry delay")

	register(key.RenderEndpoint, "https://app.scrapingbee.com/api/v1/", "Rendering API endpoint")
	register(key.RenderAPIKey, "", "Rendering API key.\nFalls back to the system keyring (cinegate secret set render.api_key)")
	register(key.RenderWait, 5*time.Second, "How long the rendering API lets scripts run before snapshotting")

	register(key.BrowserBackend, "rod", "Browser automation backend.\nAvailable options are: rod, playwright, none")
	register(key.BrowserBin, "", "Path to a Chromium binary. Downloaded on demand if empty")
	register(key.BrowserHeadless, true, "Run the local browser headless")
	register(key.BrowserAttempts, 2, "Browser attempts per resolution, each with a fresh session (max 3)")
	register(key.BrowserSettle, 5*time.Second, "Pause after page load before looking for the player")
	register(key.BrowserIframeWait, 10*time.Second, "Wait for a nested player iframe")
	register(key.BrowserPlayWait, 15*time.Second, "Wait for a play control or video element")
	register(key.BrowserCaptureWait, 15*time.Second, "Wait for a manifest request after clicking play")
	register(key.BrowserControlURL, "", "DevTools websocket of an already running browser (rod backend)")

	register(key.BrowserRemoteHost, "", "Remote browser host. Enables remote mode when set")
	register(key.BrowserRemotePort, 3000, "Remote browser port")
	register(key.BrowserRemoteUsername, "", "Remote browser username")
	register(key.BrowserRemotePassword, "", "Remote browser password.\nFalls back to the system keyring (cinegate secret set browser.remote.password)")

	register(key.BatchDelay, 5*time.Second, "Delay between two requests to the same host during batch runs")
	register(key.BatchForce, false, "Re-resolve sources that already have a resolved_url")

	register(key.StoreFiles, []string{}, "Content store documents processed by \"cinegate batch\"")

	register(key.LogsWrite, false, "Also write logs to a dated file in the logs directory")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")

	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Look for a newer release after \"cinegate version\"")
	register(key.CliOpenWith, "", "Application \"resolve --open\" hands the manifest to, e.g. mpv.\nThe system default handler is used if empty")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
