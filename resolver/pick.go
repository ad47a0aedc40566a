package resolver

import (
	"strings"

	"github.com/samber/lo"
)

const manifestExt = ".m3u8"

// IsManifestURL reports whether u mentions the manifest extension anywhere.
func IsManifestURL(u string) bool {
	return strings.Contains(strings.ToLower(u), manifestExt)
}

// ManifestURLs keeps the manifest-looking URLs of urls, in order, without repeats.
func ManifestURLs(urls []string) []string {
	return lo.Uniq(lo.Filter(urls, func(u string, _ int) bool {
		return IsManifestURL(u)
	}))
}

// looksLikeChunk reports whether u names a segment or chunk list rather than a master playlist.
func looksLikeChunk(u string) bool {
	lower := strings.ToLower(u)
	return strings.Contains(lower, "seg") || strings.Contains(lower, "chunk")
}

// PickManifest chooses among observed manifest URLs: the first one that does not
// look like a segment or chunk list, otherwise the last one observed.
func PickManifest(urls []string) (string, bool) {
	if len(urls) == 0 {
		return "", false
	}
	if master, ok := lo.Find(urls, func(u string) bool { return !looksLikeChunk(u) }); ok {
		return master, true
	}
	return urls[len(urls)-1], true
}
