// Package resolver turns embed pages of third-party video hosts into manifest URLs.
package resolver

import (
	"fmt"
	"strings"

	"github.com/samber/mo"
)

// Capture selects how browser automation recognises the manifest.
type Capture int

const (
	// CaptureNetwork inspects the page's outgoing requests.
	CaptureNetwork Capture = iota
	// CaptureVideoSrc polls the src attribute of the video element.
	CaptureVideoSrc
)

// DefaultPlaySelector matches JW Player and Video.js surfaces and bare video elements.
const DefaultPlaySelector = "div.jw-video.jw-reset, .vjs-big-play-button, video"

// Host describes an embed host.
type Host struct {
	// Name is the canonical server name, lower case.
	Name    string
	Aliases []string
	// Template builds the embed URL; %s is the source id.
	Template string
	// NestedIframe selects a secondary player iframe whose page holds the manifest.
	NestedIframe mo.Option[string]
	PlaySelector string
	Capture      Capture
	// RequiresJS skips the plain static scan.
	RequiresJS bool
}

// EmbedURL builds the canonical embed page URL for sourceID.
func (h Host) EmbedURL(sourceID string) string {
	return fmt.Sprintf(h.Template, sourceID)
}

func (h Host) playSelector() string {
	if h.PlaySelector == "" {
		return DefaultPlaySelector
	}
	return h.PlaySelector
}

// Names returns the canonical name followed by the aliases, all lower case.
func (h Host) Names() []string {
	names := []string{strings.ToLower(h.Name)}
	for _, a := range h.Aliases {
		names = append(names, strings.ToLower(a))
	}
	return names
}

// Streamwish and friends are the hosts resolvable without scripts.
var (
	Streamwish = Host{
		Name:     "streamwish",
		Aliases:  []string{"sw"},
		Template: "https://streamwish.to/e/%s",
	}
	Filemoon = Host{
		Name:         "filemoon",
		Template:     "https://filemoon.sx/e/%s",
		NestedIframe: mo.Some("iframe[src*='bkg']"),
	}
	Vidhide = Host{
		Name:     "vidhide",
		Template: "https://filelions.to/v/%s",
	}
	Voesx = Host{
		Name:     "voesx",
		Template: "https://voe.sx/e/%s",
	}
)

// Builtins returns the built-in hosts.
func Builtins() []Host {
	return []Host{Streamwish, Filemoon, Vidhide, Voesx}
}
