package resolver

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPickManifest(t *testing.T) {
	Convey("Given observed manifest URLs", t, func() {
		Convey("A URL without seg or chunk wins over ones with them", func() {
			u, ok := PickManifest([]string{
				"https://c/hls/seg-1-v1-a1.m3u8",
				"https://c/hls/master.m3u8?t=1",
				"https://c/hls/index-CHUNK.m3u8",
			})
			So(ok, ShouldBeTrue)
			So(u, ShouldEqual, "https://c/hls/master.m3u8?t=1")
		})

		Convey("The first master is preferred when several exist", func() {
			u, _ := PickManifest([]string{"https://c/a/master.m3u8", "https://c/b/master.m3u8"})
			So(u, ShouldEqual, "https://c/a/master.m3u8")
		})

		Convey("Otherwise the last observed URL is used", func() {
			u, ok := PickManifest([]string{"https://c/Seg1.m3u8", "https://c/chunklist_b800.m3u8"})
			So(ok, ShouldBeTrue)
			So(u, ShouldEqual, "https://c/chunklist_b800.m3u8")
		})

		Convey("Nothing observed means nothing picked", func() {
			_, ok := PickManifest(nil)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("ManifestURLs filters and dedupes in order", t, func() {
		So(ManifestURLs([]string{
			"https://e/e/abc",
			"https://c/x/MASTER.M3U8",
			"https://c/x/seg1.ts",
			"https://c/x/MASTER.M3U8",
			"https://c/x/index.m3u8?x=1",
		}), ShouldResemble, []string{"https://c/x/MASTER.M3U8", "https://c/x/index.m3u8?x=1"})
	})
}
