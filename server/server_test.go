package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cinegate/cinegate/dispatch"
	"github.com/cinegate/cinegate/fetch"
	"github.com/cinegate/cinegate/hls"
	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/resolver"
	. "github.com/smartystreets/goconvey/convey"
)

type resolverFunc func(ctx context.Context, id string) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, id string) (string, error) { return f(ctx, id) }

type manifestFetcher struct {
	calls atomic.Int32
}

func (m *manifestFetcher) Fetch(_ context.Context, url string, _ fetch.Options) (*fetch.Response, error) {
	m.calls.Add(1)
	return &fetch.Response{
		URL:    url,
		Status: http.StatusOK,
		Header: http.Header{},
		Body:   []byte("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1\nlow/index.m3u8\n"),
	}, nil
}

func newTestServer(public string) (*Server, *manifestFetcher, *atomic.Int32) {
	var calls atomic.Int32
	res := resolverFunc(func(ctx context.Context, id string) (string, error) {
		calls.Add(1)
		switch id {
		case "abc123":
			return "https://cdn.example/hls/abc123/master.m3u8", nil
		case "captcha":
			return "", fmt.Errorf("scan: %w", resolver.ErrCaptcha)
		case "empty":
			return "", fmt.Errorf("scan: %w", resolver.ErrNoManifest)
		case "slow":
			return "", context.DeadlineExceeded
		default:
			return "", &fetch.Error{Kind: fetch.KindTransport, URL: "https://streamwish.to/e/" + id, Err: errors.New("connection reset")}
		}
	})

	registry := dispatch.NewRegistry(
		&dispatch.Server{Kind: dispatch.Streamwish, Name: "streamwish", Aliases: []string{"sw"}, Resolver: res},
		&dispatch.Server{Kind: dispatch.Filemoon, Name: "filemoon", Resolver: res},
	)
	fetcher := &manifestFetcher{}
	return New(dispatch.New(registry), fetcher, public), fetcher, &calls
}

func get(h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "http://cinegate.test"+target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(rec.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestResolveAPI(t *testing.T) {
	log.SetOutput(io.Discard)

	Convey("Given the HTTP surface", t, func() {
		srv, _, calls := newTestServer("")
		h := srv.Router()

		Convey("A supported server resolves to the manifest URL", func() {
			rec := get(h, "/api/v1/resolve/streamwish/abc123/")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "application/json")

			body := decode(rec)
			So(body["success"], ShouldEqual, true)
			So(body["url"], ShouldEqual, "https://cdn.example/hls/abc123/master.m3u8")
			So(body["server"], ShouldEqual, "streamwish")
			So(body, ShouldNotContainKey, "error")
		})

		Convey("The trailing slash is optional and aliases are accepted", func() {
			rec := get(h, "/api/v1/resolve/SW/abc123")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["url"], ShouldEqual, "https://cdn.example/hls/abc123/master.m3u8")
		})

		Convey("An unsupported server fails fast with 400", func() {
			rec := get(h, "/api/v1/resolve/netu/abc123/")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)

			body := decode(rec)
			So(body["success"], ShouldEqual, false)
			So(body["error"], ShouldContainSubstring, "unsupported server")
			So(body, ShouldNotContainKey, "url")
			So(calls.Load(), ShouldEqual, 0)
		})

		Convey("Failures map to statuses by class", func() {
			cases := map[string]int{
				"captcha": http.StatusNotFound,
				"empty":   http.StatusNotFound,
				"slow":    http.StatusGatewayTimeout,
				"down":    http.StatusBadGateway,
			}
			for id, status := range cases {
				rec := get(h, "/api/v1/resolve/filemoon/"+id+"/")
				So(rec.Code, ShouldEqual, status)
				So(decode(rec)["success"], ShouldEqual, false)
			}
		})

		Convey("proxy=1 wraps the manifest in a proxy link for the caller's host", func() {
			rec := get(h, "/api/v1/resolve/sw/abc123/?proxy=1", "X-Forwarded-Proto", "https", "X-Forwarded-Host", "watch.example")
			So(rec.Code, ShouldEqual, http.StatusOK)

			link := decode(rec)["url"].(string)
			So(link, ShouldStartWith, "https://watch.example/proxy-stream/")
			So(link, ShouldEndWith, "/")

			token := strings.TrimSuffix(strings.TrimPrefix(link, "https://watch.example/proxy-stream/"), "/")
			target, err := hls.Decode(token)
			So(err, ShouldBeNil)
			So(target, ShouldEqual, "https://cdn.example/hls/abc123/master.m3u8")
		})

		Convey("Other methods are not routed", func() {
			req := httptest.NewRequest(http.MethodPost, "http://cinegate.test/api/v1/resolve/sw/abc123/", nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Unknown routes answer JSON 404", func() {
			rec := get(h, "/api/v2/whatever")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decode(rec)["success"], ShouldEqual, false)
		})

		Convey("Servers are listed with their aliases", func() {
			rec := get(h, "/api/v1/servers")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var servers []map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &servers), ShouldBeNil)
			So(servers, ShouldHaveLength, 2)
			So(servers[0]["name"], ShouldEqual, "streamwish")
			So(servers[0]["aliases"], ShouldResemble, []any{"sw"})
		})
	})
}

func TestProxyAndOps(t *testing.T) {
	log.SetOutput(io.Discard)

	Convey("Given the HTTP surface with a configured public URL", t, func() {
		srv, fetcher, _ := newTestServer("https://public.example/")
		h := srv.Router()

		Convey("Proxy tokens are served with and without the trailing slash", func() {
			token := hls.Encode("https://cdn.example/hls/abc123/master.m3u8")
			for _, path := range []string{"/proxy-stream/" + token + "/", "/proxy-stream/" + token} {
				rec := get(h, path)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldEqual, "application/vnd.apple.mpegurl")
				So(rec.Body.String(), ShouldContainSubstring, "https://public.example/proxy-stream/"+hls.Encode("https://cdn.example/hls/abc123/low/index.m3u8")+"/")
			}
			So(fetcher.calls.Load(), ShouldEqual, 2)
		})

		Convey("Bad tokens are rejected as text", func() {
			rec := get(h, "/proxy-stream/!!!/")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(rec.Body.String(), ShouldStartWith, "proxy error:")
		})

		Convey("Health and metrics are exposed", func() {
			rec := get(h, "/healthz")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["status"], ShouldEqual, "ok")

			get(h, "/api/v1/resolve/sw/abc123/")
			rec = get(h, "/metrics")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "cinegate_resolve_total")
		})
	})
}

func TestStatus(t *testing.T) {
	Convey("Resolution errors map to HTTP statuses", t, func() {
		So(Status(nil), ShouldEqual, http.StatusOK)
		So(Status(fmt.Errorf("%w %q", dispatch.ErrUnsupported, "netu")), ShouldEqual, http.StatusBadRequest)
		So(Status(fmt.Errorf("%w: empty", dispatch.ErrInvalidSource)), ShouldEqual, http.StatusBadRequest)
		So(Status(resolver.ErrNoManifest), ShouldEqual, http.StatusNotFound)
		So(Status(resolver.ErrCaptcha), ShouldEqual, http.StatusNotFound)
		So(Status(context.DeadlineExceeded), ShouldEqual, http.StatusGatewayTimeout)
		So(Status(errors.New("connection refused")), ShouldEqual, http.StatusBadGateway)
	})
}

func TestMiddleware(t *testing.T) {
	log.SetOutput(io.Discard)

	Convey("A panicking handler answers 500 and the server keeps going", t, func() {
		h := recoverer(logger(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})))

		rec := get(h, "/anything")
		So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		So(rec.Body.String(), ShouldContainSubstring, "internal error: boom")

		rec = get(h, "/again")
		So(rec.Code, ShouldEqual, http.StatusInternalServerError)
	})

	Convey("ListenAndServe stops when its context is done", t, func() {
		srv, _, _ := newTestServer("")
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- srv.ListenAndServe(ctx, &http.Server{Addr: "127.0.0.1:0"})
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			So(err, ShouldBeNil)
		case <-time.After(5 * time.Second):
			So("shutdown timed out", ShouldBeEmpty)
		}
	})
}
