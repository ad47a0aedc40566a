package network

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewClient(t *testing.T) {
	Convey("Given a local origin that sets a cookie", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie("session"); err == nil {
				_, _ = io.WriteString(w, "again")
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "1", Path: "/"})
			_, _ = io.WriteString(w, "first")
		}))
		defer srv.Close()

		for _, impersonate := range []bool{false, true} {
			client := NewClient(Options{Timeout: 5 * time.Second, Impersonate: impersonate})

			Convey(fmt.Sprintf("Cookies are reused across calls (impersonate=%t)", impersonate), func() {
				read := func() string {
					resp, err := client.Get(srv.URL)
					So(err, ShouldBeNil)
					defer resp.Body.Close()
					b, _ := io.ReadAll(resp.Body)
					return string(b)
				}

				So(read(), ShouldEqual, "first")
				So(read(), ShouldEqual, "again")
			})
		}
	})
}

func TestChromeTransport(t *testing.T) {
	Convey("NewChromeTransport is shared", t, func() {
		So(NewChromeTransport(), ShouldEqual, NewChromeTransport())
	})
}
