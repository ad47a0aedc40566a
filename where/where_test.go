package where

import (
	"path/filepath"
	"testing"

	"github.com/cinegate/cinegate/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Use in-memory filesystem for tests to avoid creating real directories
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Config() honours the override", func() {
			custom := filepath.Join("/", "srv", "cinegate")
			t.Setenv(EnvConfigPath, custom)
			So(Config(), ShouldEqual, custom)
			So(lo.Must(filesystem.API().IsDir(custom)), ShouldBeTrue)
		})

		Convey("Resolvers() lives under Config()", func() {
			path := Resolvers()
			So(filepath.Dir(path), ShouldEqual, Config())
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Cache files live under Cache()", func() {
			So(filepath.Dir(Resolutions()), ShouldEqual, Cache())
			So(filepath.Dir(Failures()), ShouldEqual, Cache())
		})
	})
}
