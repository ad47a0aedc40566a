package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cinegate/cinegate/constant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Given an upstream that echoes request headers", t, func() {
		var seen http.Header
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Clone()
			switch r.URL.Path {
			case "/missing":
				http.NotFound(w, r)
			case "/slow":
				time.Sleep(200 * time.Millisecond)
				_, _ = io.WriteString(w, "late")
			default:
				_, _ = io.WriteString(w, "#EXTM3U")
			}
		}))
		defer srv.Close()

		client := New(WithHTTPClient(srv.Client()))

		Convey("A plain fetch sends a browser user agent and the referer", func() {
			resp, err := client.Fetch(context.Background(), srv.URL+"/m.m3u8", Options{Referer: Origin(srv.URL + "/m.m3u8")})
			So(err, ShouldBeNil)
			So(resp.Status, ShouldEqual, 200)
			So(string(resp.Body), ShouldEqual, "#EXTM3U")
			So(seen.Get("User-Agent"), ShouldEqual, constant.UserAgent)
			So(seen.Get("Referer"), ShouldEqual, srv.URL)
		})

		Convey("No referer is sent unless asked for", func() {
			_, err := client.Fetch(context.Background(), srv.URL, Options{})
			So(err, ShouldBeNil)
			So(seen.Get("Referer"), ShouldBeEmpty)
		})

		Convey("Explicit headers win", func() {
			_, err := client.Fetch(context.Background(), srv.URL, Options{Headers: map[string]string{"User-Agent": "x"}})
			So(err, ShouldBeNil)
			So(seen.Get("User-Agent"), ShouldEqual, "x")
		})

		Convey("A non-2xx status is a status error", func() {
			_, err := client.Fetch(context.Background(), srv.URL+"/missing", Options{})
			var fe *Error
			So(errors.As(err, &fe), ShouldBeTrue)
			So(fe.Kind, ShouldEqual, KindStatus)
			So(fe.Status, ShouldEqual, 404)
			So(fe.Temporary(), ShouldBeFalse)
		})

		Convey("An expired deadline is a timeout", func() {
			_, err := client.Fetch(context.Background(), srv.URL+"/slow", Options{Timeout: 20 * time.Millisecond})
			So(IsKind(err, KindTimeout), ShouldBeTrue)
			So(Retryable(err), ShouldBeTrue)
		})

		Convey("Render mode without a renderer fails loudly", func() {
			So(client.CanRender(), ShouldBeFalse)
			_, err := client.Fetch(context.Background(), srv.URL, Options{RenderJS: true})
			So(IsKind(err, KindRender), ShouldBeTrue)
			So(errors.Is(err, ErrNoRenderer), ShouldBeTrue)
		})
	})

	Convey("A refused connection is a transport error", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		_, err := New().Fetch(context.Background(), addr, Options{})
		So(IsKind(err, KindTransport), ShouldBeTrue)
	})
}

func TestOrigin(t *testing.T) {
	Convey("Origin keeps scheme and host only", t, func() {
		So(Origin("https://cdn.host:8443/a/b/m.m3u8?x=1"), ShouldEqual, "https://cdn.host:8443")
		So(Origin("segment.ts"), ShouldBeEmpty)
	})
}

func TestRenderAPI(t *testing.T) {
	Convey("Given a rendering API", t, func() {
		var query map[string]string
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			query = map[string]string{"api_key": q.Get("api_key"), "url": q.Get("url"), "render_js": q.Get("render_js"), "wait": q.Get("wait")}
			if q.Get("api_key") != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `<video src="https://cdn/x/master.m3u8">`)
		}))
		defer api.Close()

		render := &RenderAPI{Endpoint: api.URL, APIKey: "secret", Wait: 3 * time.Second, HTTP: api.Client()}
		client := New(WithRenderer(render))

		Convey("Render mode goes through the API", func() {
			resp, err := client.Fetch(context.Background(), "https://streamwish.to/e/abc", Options{RenderJS: true})
			So(err, ShouldBeNil)
			So(string(resp.Body), ShouldContainSubstring, "master.m3u8")
			So(query["url"], ShouldEqual, "https://streamwish.to/e/abc")
			So(query["render_js"], ShouldEqual, "true")
			So(query["wait"], ShouldEqual, "3000")
		})

		Convey("A rejected key is a status error", func() {
			render.APIKey = "wrong"
			_, err := client.Fetch(context.Background(), "https://streamwish.to/e/abc", Options{RenderJS: true})
			So(IsKind(err, KindStatus), ShouldBeTrue)
		})

		Convey("A missing key never reaches the API", func() {
			render.APIKey = ""
			query = nil
			_, err := client.Fetch(context.Background(), "https://streamwish.to/e/abc", Options{RenderJS: true})
			So(IsKind(err, KindRender), ShouldBeTrue)
			So(query, ShouldBeNil)
		})
	})
}

func TestRetry(t *testing.T) {
	Convey("Given an upstream failing twice with 503", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := calls.Add(1)
			if r.URL.Path == "/gone" {
				w.WriteHeader(http.StatusGone)
				return
			}
			if n <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, "ok")
		}))
		defer srv.Close()

		client := New(WithHTTPClient(srv.Client()))
		policy := RetryPolicy{MaxAttempts: 3, Initial: time.Millisecond, Max: 5 * time.Millisecond}

		Convey("The batch policy recovers within its attempts", func() {
			resp, err := WithRetry(client, policy).Fetch(context.Background(), srv.URL, Options{})
			So(err, ShouldBeNil)
			So(string(resp.Body), ShouldEqual, "ok")
			So(calls.Load(), ShouldEqual, 3)
		})

		Convey("The interactive policy surfaces the first failure", func() {
			_, err := WithRetry(client, Interactive).Fetch(context.Background(), srv.URL, Options{})
			So(IsKind(err, KindStatus), ShouldBeTrue)
			So(calls.Load(), ShouldEqual, 1)
		})

		Convey("Permanent failures are not repeated", func() {
			_, err := WithRetry(client, policy).Fetch(context.Background(), srv.URL+"/gone", Options{})
			So(IsKind(err, KindStatus), ShouldBeTrue)
			So(calls.Load(), ShouldEqual, 1)
		})

		Convey("Attempts are bounded", func() {
			short := RetryPolicy{MaxAttempts: 2, Initial: time.Millisecond, Max: time.Millisecond}
			_, err := WithRetry(client, short).Fetch(context.Background(), srv.URL, Options{})
			So(err, ShouldNotBeNil)
			So(calls.Load(), ShouldEqual, 2)
		})
	})
}
