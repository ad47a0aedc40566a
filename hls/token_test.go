package hls

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestToken(t *testing.T) {
	Convey("Given absolute URLs with manifest and query characters", t, func() {
		urls := []string{
			"https://host/path/manifest.m3u8",
			"https://cdn.example.com:8443/hls/master.m3u8?t=abc+def&e=1700000000&s=Zm9v/bar==",
			"http://h/p/seg0.ts",
			"https://h/a%20b/índex.m3u8#frag",
			"https://h/p/~seg?x=%2F&y=;,!*'()",
		}

		Convey("Encode then Decode yields the original URL exactly", func() {
			for _, u := range urls {
				tok := Encode(u)
				So(strings.ContainsAny(tok, "/+"), ShouldBeFalse)

				back, err := Decode(tok)
				So(err, ShouldBeNil)
				So(back, ShouldEqual, u)
			}
		})

		Convey("Unpadded tokens still decode", func() {
			tok := strings.TrimRight(Encode(urls[0]), "=")
			back, err := Decode(tok)
			So(err, ShouldBeNil)
			So(back, ShouldEqual, urls[0])
		})
	})

	Convey("Given malformed tokens", t, func() {
		Convey("Garbage is rejected", func() {
			_, err := Decode("%%%not-base64%%%")
			So(errors.Is(err, ErrBadToken), ShouldBeTrue)
		})

		Convey("Empty tokens are rejected", func() {
			_, err := Decode("  ")
			So(errors.Is(err, ErrBadToken), ShouldBeTrue)
		})

		Convey("Relative and non-http URLs are rejected", func() {
			for _, u := range []string{"segment1.ts", "file:///etc/passwd", "javascript:alert(1)"} {
				_, err := Decode(Encode(u))
				So(errors.Is(err, ErrBadToken), ShouldBeTrue)
			}
		})
	})
}
