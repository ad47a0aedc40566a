// Package hls implements the opaque URL tokens and the line-oriented playlist rewriting
// behind the manifest proxy.
package hls

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrBadToken is returned for tokens that do not decode to an absolute http(s) URL.
var ErrBadToken = errors.New("malformed stream token")

// Encode turns an absolute URL into a path-safe token.
// Tokens are reversible and hide nothing from a determined reader.
func Encode(absURL string) string {
	return base64.URLEncoding.EncodeToString([]byte(absURL))
}

// Decode reverses Encode. Unpadded tokens are accepted as well since some
// players strip trailing '=' from path segments.
func Decode(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty", ErrBadToken)
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadToken, err)
	}

	decoded := string(raw)
	u, err := url.Parse(decoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrBadToken, decoded)
	}

	return decoded, nil
}
