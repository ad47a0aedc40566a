package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHandler(t *testing.T) {
	Convey("Given some recorded activity", t, func() {
		Resolutions.WithLabelValues("streamwish", "ok").Inc()
		ProxyRequests.WithLabelValues("redirect").Inc()

		Convey("The handler exposes cinegate series", func() {
			rec := httptest.NewRecorder()
			Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

			body, _ := io.ReadAll(rec.Body)
			So(rec.Code, ShouldEqual, 200)
			So(string(body), ShouldContainSubstring, `cinegate_resolve_total{outcome="ok",server="streamwish"}`)
			So(string(body), ShouldContainSubstring, `cinegate_proxy_requests_total{kind="redirect"}`)
		})
	})
}
