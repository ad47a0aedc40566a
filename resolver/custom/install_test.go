package custom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cinegate/cinegate/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInstall(t *testing.T) {
	Convey("Given a host serving resolver scripts", t, func() {
		filesystem.SetMemMapFs()
		Reset(filesystem.SetOsFs)

		scripts := map[string]string{
			"/r/mirror.lua":  `function Resolve(id) return "https://cdn.test/" .. id .. ".m3u8" end`,
			"/r/broken.lua":  `function Resolve(id`,
			"/r/noentry.lua": `Aliases = {"x"}`,
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, ok := scripts[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(body))
		}))
		defer srv.Close()

		ctx := context.Background()
		dir := "/resolvers"

		Convey("A valid script is written and loads", func() {
			target, changed, err := Install(ctx, srv.Client(), srv.URL+"/r/mirror.lua", dir)
			So(err, ShouldBeNil)
			So(changed, ShouldBeTrue)
			So(target, ShouldEqual, "/resolvers/mirror.lua")

			s, err := Load(target, srv.Client())
			So(err, ShouldBeNil)
			So(s.Name, ShouldEqual, "mirror")

			Convey("Installing the same content again changes nothing", func() {
				_, changed, err := Install(ctx, srv.Client(), srv.URL+"/r/mirror.lua", dir)
				So(err, ShouldBeNil)
				So(changed, ShouldBeFalse)
			})

			Convey("An update that does not load keeps the working copy", func() {
				good, _ := filesystem.API().ReadFile(target)
				scripts["/r/mirror.lua"] = `Aliases = {}`

				_, _, err := Install(ctx, srv.Client(), srv.URL+"/r/mirror.lua", dir)
				So(err, ShouldNotBeNil)

				kept, _ := filesystem.API().ReadFile(target)
				So(string(kept), ShouldEqual, string(good))
			})
		})

		Convey("Syntax errors are refused before anything is written", func() {
			_, _, err := Install(ctx, srv.Client(), srv.URL+"/r/broken.lua", dir)
			So(err, ShouldNotBeNil)

			_, statErr := filesystem.API().Stat("/resolvers/broken.lua")
			So(statErr, ShouldNotBeNil)
		})

		Convey("Scripts without Resolve are removed again", func() {
			_, _, err := Install(ctx, srv.Client(), srv.URL+"/r/noentry.lua", dir)
			So(err, ShouldNotBeNil)

			_, statErr := filesystem.API().Stat("/resolvers/noentry.lua")
			So(statErr, ShouldNotBeNil)
		})

		Convey("Bad URLs and missing files are errors", func() {
			_, _, err := Install(ctx, srv.Client(), "ftp://host/x.lua", dir)
			So(err, ShouldNotBeNil)
			_, _, err = Install(ctx, srv.Client(), srv.URL+"/r/readme.txt", dir)
			So(err, ShouldNotBeNil)
			_, _, err = Install(ctx, srv.Client(), srv.URL+"/r/missing.lua", dir)
			So(err, ShouldNotBeNil)
		})
	})
}
