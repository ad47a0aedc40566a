package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/cinegate/cinegate/fetch"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScan(t *testing.T) {
	Convey("Given a static scan over a stub fetcher", t, func() {
		stub := &stubFetcher{pages: map[string]string{
			"https://streamwish.to/e/abc123": `<html><script>jwplayer("v").setup({file:"abc123.m3u8"})</script></html>`,
			"https://filemoon.sx/e/xyz":      `<iframe src="https://filemoon.sx/bkg/xyz"></iframe>`,
			"https://filemoon.sx/bkg/xyz":    packed,
			"https://voe.sx/e/wall":          `<div class="cf-turnstile"></div>`,
			"https://filelions.to/v/empty":   `<div class="jw-video jw-reset"></div>`,
		}}
		scan := &Scan{Fetcher: stub}
		ctx := context.Background()

		Convey("streamwish abc123 resolves to the manifest in the page", func() {
			r := New(Streamwish, Deps{Fetcher: stub, Order: []string{StrategyScan}})
			u, err := r.Resolve(ctx, "abc123")
			So(err, ShouldBeNil)
			So(u, ShouldEqual, "https://streamwish.to/e/abc123.m3u8")
			So(u, ShouldEndWith, "/abc123.m3u8")
		})

		Convey("The embed page is requested with its own origin as referer", func() {
			_, _ = scan.Resolve(ctx, Streamwish, Streamwish.EmbedURL("abc123"))
			So(stub.calls[0].Referer, ShouldEqual, "https://streamwish.to")
			So(stub.calls[0].RenderJS, ShouldBeFalse)
		})

		Convey("A nested player iframe is followed once", func() {
			u, err := scan.Resolve(ctx, Filemoon, Filemoon.EmbedURL("xyz"))
			So(err, ShouldBeNil)
			So(u, ShouldEqual, "https://cdn.host/hls2/01/master.m3u8?t=x")
			So(stub.urls, ShouldResemble, []string{"https://filemoon.sx/e/xyz", "https://filemoon.sx/bkg/xyz"})
		})

		Convey("A challenge page is a captcha failure", func() {
			_, err := scan.Resolve(ctx, Voesx, Voesx.EmbedURL("wall"))
			So(errors.Is(err, ErrCaptcha), ShouldBeTrue)
			So(ClassOf(err), ShouldEqual, ClassCaptcha)
		})

		Convey("A page without a manifest is an extraction failure", func() {
			_, err := scan.Resolve(ctx, Vidhide, Vidhide.EmbedURL("empty"))
			So(errors.Is(err, ErrNoManifest), ShouldBeTrue)
			So(ClassOf(err), ShouldEqual, ClassExtract)
		})

		Convey("Fetch failures are passed through untouched", func() {
			_, err := scan.Resolve(ctx, Vidhide, Vidhide.EmbedURL("gone"))
			So(fetch.IsKind(err, fetch.KindStatus), ShouldBeTrue)
			So(ClassOf(err), ShouldEqual, ClassTransport)
		})

		Convey("Render scans ask for script execution", func() {
			render := &Scan{Fetcher: stub, RenderJS: true}
			So(render.Name(), ShouldEqual, "render")
			_, _ = render.Resolve(ctx, Streamwish, Streamwish.EmbedURL("abc123"))
			So(stub.calls[0].RenderJS, ShouldBeTrue)
		})
	})
}
