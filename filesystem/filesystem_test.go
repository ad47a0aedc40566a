package filesystem

import (
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestApi(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs", func() {
			SetOsFs()
			fs := API()
			So(fs, ShouldNotBeNil)
			So(fs.Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			fs := API()
			So(fs, ShouldNotBeNil)
			So(fs.Name(), ShouldEqual, "MemMapFS")
		})
	})
}

func TestWriteAtomic(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		SetMemMapFs()

		Convey("WriteAtomic creates parents and replaces content", func() {
			path := "/data/store/movies.json"
			So(WriteAtomic(path, []byte("old"), 0o644), ShouldBeNil)
			So(WriteAtomic(path, []byte("new"), 0o644), ShouldBeNil)

			So(string(lo.Must(API().ReadFile(path))), ShouldEqual, "new")

			entries := lo.Must(API().ReadDir("/data/store"))
			So(entries, ShouldHaveLength, 1)
		})
	})
}
