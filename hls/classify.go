package hls

import (
	"bytes"
	"net/url"
	"path"
	"strings"
)

// Kind tells the proxy how to treat an upstream URL.
type Kind int

const (
	// Unknown URLs carry no telling extension; the body decides.
	Unknown Kind = iota
	// Manifest URLs are fetched and rewritten.
	Manifest
	// Media URLs are redirected to, never streamed through.
	Media
)

func (k Kind) String() string {
	switch k {
	case Manifest:
		return "manifest"
	case Media:
		return "media"
	default:
		return "unknown"
	}
}

var manifestExt = map[string]struct{}{
	".m3u8": {},
	".m3u":  {},
}

// Segment hosts frequently disguise transport stream chunks as images or scripts.
var mediaExt = map[string]struct{}{
	".ts": {}, ".m4s": {}, ".mp4": {}, ".m4a": {}, ".m4v": {}, ".aac": {}, ".mp3": {},
	".ac3": {}, ".ec3": {}, ".cmfv": {}, ".cmfa": {},
	".vtt": {}, ".webvtt": {}, ".srt": {}, ".key": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {}, ".ico": {},
	".js": {}, ".css": {}, ".html": {}, ".woff": {}, ".woff2": {},
}

// Classify inspects the path extension of rawURL, ignoring query and fragment.
func Classify(rawURL string) Kind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Unknown
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if _, ok := manifestExt[ext]; ok {
		return Manifest
	}
	if _, ok := mediaExt[ext]; ok {
		return Media
	}
	return Unknown
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Sniff reports whether body starts like an extended M3U playlist.
func Sniff(body []byte) bool {
	body = bytes.TrimPrefix(body, utf8BOM)
	return bytes.HasPrefix(bytes.TrimLeft(body, " \t\r\n"), []byte("#EXTM3U"))
}

// IsManifestContentType reports whether an upstream Content-Type names a playlist.
func IsManifestContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "mpegurl")
}

