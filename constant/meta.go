// Package constant defines immutable application-level identifiers and protocol defaults.
package constant

const (
	// Cinegate is the canonical application identifier used for filesystem paths, env prefixes and CLI branding.
	Cinegate = "cinegate"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is the browser User-Agent sent to embed hosts, manifest origins and the render API.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Accept mirrors the header set of a desktop Chrome navigation request.
	Accept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"

	// AcceptLanguage favours the Spanish-language catalogue the store is built around.
	AcceptLanguage = "es-419,es;q=0.9,en;q=0.8"
)

// Build metadata, set with -ldflags "-X".
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// HLS media types.
const (
	// MimeMPEGURL is the content type served for rewritten manifests.
	MimeMPEGURL = "application/vnd.apple.mpegurl"
	MimeJSON    = "application/json"
	MimeText    = "text/plain; charset=utf-8"
)
