package hls

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkFunc maps an absolute upstream URL to the URL a player should request instead.
type LinkFunc func(absURL string) string

// Stats counts the two kinds of output lines of a rewrite.
type Stats struct {
	Rewritten   int
	Passthrough int
}

// Rewrite replaces every URI line of a playlist with link(absolute URI).
//
// Lines are trimmed. Blank lines and lines starting with '#' are copied as-is,
// tag attributes included, so the output has exactly as many lines as the input
// and in the same order. URI lines are resolved against manifestURL first.
//
// URI attributes inside tags (#EXT-X-KEY, #EXT-X-MAP, #EXT-X-MEDIA and the like)
// are not touched. An absolute one still points at the upstream host; a relative
// one is resolved by the player against the proxy link of this playlist, which
// the proxy does not serve, so such keys, init segments and renditions fail to load.
func Rewrite(body []byte, manifestURL string, link LinkFunc) ([]byte, Stats, error) {
	var stats Stats

	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, stats, fmt.Errorf("parse manifest url: %w", err)
	}

	text := strings.TrimPrefix(string(body), string(utf8BOM))
	trailing := strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "#") {
			lines[i] = line
			stats.Passthrough++
			continue
		}

		ref, err := url.Parse(line)
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w", i+1, err)
		}

		lines[i] = link(base.ResolveReference(ref).String())
		stats.Rewritten++
	}

	out := strings.Join(lines, "\n")
	if trailing {
		out += "\n"
	}
	return []byte(out), stats, nil
}
