package store

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cinegate/cinegate/filesystem"
	"github.com/cinegate/cinegate/source"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

const sample = `{
    "movies": [
        {"id": 1, "title": "Coco <2017>", "sources": [
            {"language": "Latino", "server_name": "Streamwish", "embed_url": "https://streamwish.to/e/abc123"},
            {"language": "Latino", "server_name": "Filemoon", "embed_url": "https://filemoon.sx/e/xyz/", "resolved_url": "https://cdn/x.m3u8"}
        ]}
    ],
    "series": [
        {"id": "s1", "title": "Élite", "seasons": [
            {"season_number": 1, "episodes": [
                {"episode_number": 1, "title": "Episodio 1", "sources": [
                    {"language": "Español", "server_name": "SW", "embed_url": "https://sw/e/ep1"}
                ]}
            ]}
        ]}
    ],
    "generated_at": "2024-01-01"
}`

func TestStore(t *testing.T) {
	Convey("Given a content file", t, func() {
		filesystem.SetMemMapFs()
		Reset(filesystem.SetOsFs)

		path := "/data/data1.json"
		So(filesystem.API().MkdirAll("/data", 0o755), ShouldBeNil)
		So(filesystem.API().WriteFile(path, []byte(sample), 0o644), ShouldBeNil)

		doc, err := Load(path)
		So(err, ShouldBeNil)

		Convey("Its collections are decoded", func() {
			So(doc.Movies, ShouldHaveLength, 1)
			So(doc.Series, ShouldHaveLength, 1)
			So(doc.Anime, ShouldBeEmpty)
			So(doc.Extra, ShouldContainKey, "generated_at")
		})

		Convey("Walk visits every source in document order", func() {
			var visited []string
			err := Walk(doc, func(collection string, entry *source.Entry, src *source.VideoSource) error {
				visited = append(visited, collection+":"+entry.Title+":"+src.SourceID())
				return nil
			})
			So(err, ShouldBeNil)
			So(visited, ShouldResemble, []string{
				"movies:Coco <2017>:abc123",
				"movies:Coco <2017>:xyz",
				"series:Élite:ep1",
			})
		})

		Convey("Walk stops at the first error", func() {
			stop := errors.New("stop")
			calls := 0
			err := Walk(doc, func(string, *source.Entry, *source.VideoSource) error {
				calls++
				return stop
			})
			So(err, ShouldEqual, stop)
			So(calls, ShouldEqual, 1)
		})

		Convey("Saving keeps unknown members, text and indentation", func() {
			doc.Movies[0].Sources[0].SetResolved(mo.Some("https://cdn/abc123.m3u8?a=1&b=2"))
			doc.Series[0].Seasons[0].Episodes[0].Sources[0].SetResolved(mo.None[string]())
			So(Save(path, doc), ShouldBeNil)

			data, err := filesystem.API().ReadFile(path)
			So(err, ShouldBeNil)
			text := string(data)

			So(text, ShouldContainSubstring, "\n    \"anime\": [],")
			So(text, ShouldContainSubstring, `"title": "Coco <2017>"`)
			So(text, ShouldContainSubstring, `"title": "Élite"`)
			So(text, ShouldContainSubstring, `"resolved_url": "https://cdn/abc123.m3u8?a=1&b=2"`)
			So(text, ShouldContainSubstring, `"resolved_url": null`)
			So(text, ShouldContainSubstring, `"generated_at": "2024-01-01"`)
			So(strings.Count(text, "resolved_url"), ShouldEqual, 3)

			again, err := Load(path)
			So(err, ShouldBeNil)
			So(again.Movies[0].ID(), ShouldEqual, "1")
			So(again.Movies[0].Sources[0].ResolvedURL.OrEmpty(), ShouldEqual, "https://cdn/abc123.m3u8?a=1&b=2")
			So(again.Series[0].Seasons[0].Episodes[0].Sources[0].Resolved(), ShouldBeFalse)
		})

		Convey("No temporary files are left behind", func() {
			So(Save(path, doc), ShouldBeNil)
			entries, err := filesystem.API().ReadDir("/data")
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 1)
		})
	})

	Convey("Listing groups each entry's sources by language", t, func() {
		filesystem.SetMemMapFs()
		Reset(filesystem.SetOsFs)

		So(filesystem.API().WriteFile("/mixed.json", []byte(`{"movies": [
			{"id": 7, "title": "Roma", "sources": [
				{"language": "Subtitulado", "server_name": "Voesx", "embed_url": "https://voe.sx/e/a"},
				{"language": "Inglés", "server_name": "Netu", "embed_url": "https://netu/e/b"},
				{"language": "Latino", "server_name": "Filemoon", "embed_url": "https://filemoon.sx/e/c"},
				{"language": "Latino", "server_name": "MEGA", "embed_url": "https://mega/e/d"}
			]},
			{"id": 8, "title": "Empty", "sources": []}
		]}`), 0o644), ShouldBeNil)

		doc, err := Load("/mixed.json")
		So(err, ShouldBeNil)

		listings := List(doc)
		So(listings, ShouldHaveLength, 1)
		So(listings[0].Collection, ShouldEqual, "movies")
		So(listings[0].Entry.Title, ShouldEqual, "Roma")

		var got []string
		for _, g := range listings[0].Groups {
			for _, s := range g.Sources {
				got = append(got, g.Language+":"+s.ServerName)
			}
		}
		So(got, ShouldResemble, []string{
			"Latino:MEGA",
			"Latino:Filemoon",
			"Subtitulado:Voesx",
			"Inglés:Netu",
		})
	})

	Convey("Missing and blank files are empty documents", t, func() {
		filesystem.SetMemMapFs()
		Reset(filesystem.SetOsFs)

		doc, err := Load("/nowhere.json")
		So(err, ShouldBeNil)
		So(doc.Movies, ShouldBeEmpty)

		So(filesystem.API().WriteFile("/blank.json", []byte("  \n"), 0o644), ShouldBeNil)
		doc, err = Load("/blank.json")
		So(err, ShouldBeNil)
		So(doc.Series, ShouldBeEmpty)
	})

	Convey("Broken files are reported", t, func() {
		filesystem.SetMemMapFs()
		Reset(filesystem.SetOsFs)

		So(filesystem.API().WriteFile("/broken.json", []byte(`{"movies": {}}`), 0o644), ShouldBeNil)
		_, err := Load("/broken.json")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "movies")
	})
}

func TestSchema(t *testing.T) {
	Convey("The schema describes sources", t, func() {
		data, err := json.Marshal(Schema())
		So(err, ShouldBeNil)

		text := string(data)
		So(text, ShouldContainSubstring, `"VideoSource"`)
		So(text, ShouldContainSubstring, `"resolved_url"`)
		So(text, ShouldContainSubstring, `"server_name"`)
	})
}
