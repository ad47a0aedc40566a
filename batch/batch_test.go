package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cinegate/cinegate/dispatch"
	"github.com/cinegate/cinegate/filesystem"
	"github.com/cinegate/cinegate/resolver"
	"github.com/cinegate/cinegate/store"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeResolver struct {
	calls atomic.Int32
	ids   []string
}

func (f *fakeResolver) Resolve(_ context.Context, id string) (string, error) {
	f.calls.Add(1)
	f.ids = append(f.ids, id)
	if strings.HasPrefix(id, "bad") {
		return "", fmt.Errorf("scan: %w", resolver.ErrNoManifest)
	}
	return "https://cdn.test/" + id + "/master.m3u8", nil
}

// slowResolver takes longer than the batch delay and records when each call ran.
type slowResolver struct {
	took  time.Duration
	spans [][2]time.Time
}

func (s *slowResolver) Resolve(ctx context.Context, id string) (string, error) {
	start := time.Now()
	time.Sleep(s.took)
	s.spans = append(s.spans, [2]time.Time{start, time.Now()})
	return "https://cdn.test/" + id + "/master.m3u8", nil
}

const document = `{
    "movies": [
        {
            "title": "Coco",
            "sources": [
                {"language": "Latino", "server_name": "Streamwish", "embed_url": "https://streamwish.to/e/m1"},
                {"language": "Latino", "server_name": "Netu", "embed_url": "https://netu/e/n1"},
                {"language": "Latino", "server_name": "Filemoon", "embed_url": "https://filemoon.sx/e/done", "resolved_url": "https://cdn.test/done.m3u8"}
            ]
        }
    ],
    "anime": [
        {
            "title": "Frieren",
            "seasons": [
                {"season_number": 1, "episodes": [
                    {"episode_number": 1, "title": "Episodio 1", "sources": [
                        {"language": "Subtitulado", "server_name": "SW", "embed_url": "https://sw/e/bad1/"},
                        {"language": "Subtitulado", "server_name": "voesx", "embed_url": ""}
                    ]}
                ]}
            ]
        }
    ]
}`

func newDispatcher(res *fakeResolver) *dispatch.Dispatcher {
	return dispatch.New(dispatch.NewRegistry(
		&dispatch.Server{Kind: dispatch.Streamwish, Name: "streamwish", Aliases: []string{"sw"}, Resolver: res},
		&dispatch.Server{Kind: dispatch.Filemoon, Name: "filemoon", Resolver: res},
		&dispatch.Server{Kind: dispatch.Voesx, Name: "voesx", Resolver: res},
	))
}

func TestRunner(t *testing.T) {
	Convey("Given a content file", t, func() {
		filesystem.SetMemMapFs()
		Reset(filesystem.SetOsFs)

		path := "/data/data1.json"
		So(filesystem.API().MkdirAll("/data", 0o755), ShouldBeNil)
		So(filesystem.API().WriteFile(path, []byte(document), 0o644), ShouldBeNil)

		res := &fakeResolver{}
		var events []Event
		runner := &Runner{Dispatcher: newDispatcher(res), Notify: func(e Event) { events = append(events, e) }}

		Convey("Unresolved sources of supported servers are resolved", func() {
			report, err := runner.Run(context.Background(), []string{path})
			So(err, ShouldBeNil)
			So(report, ShouldResemble, Report{Files: 1, Saved: 1, Resolved: 1, Failed: 1, Skipped: 3})
			So(res.ids, ShouldResemble, []string{"m1", "bad1"})
			So(events, ShouldHaveLength, 2)
			So(events[0].Entry.Title, ShouldEqual, "Coco")

			doc, err := store.Load(path)
			So(err, ShouldBeNil)
			So(doc.Movies[0].Sources[0].ResolvedURL.OrEmpty(), ShouldEqual, "https://cdn.test/m1/master.m3u8")
			So(doc.Movies[0].Sources[1].ResolvedURL.IsAbsent(), ShouldBeTrue)
			So(doc.Movies[0].Sources[2].ResolvedURL.OrEmpty(), ShouldEqual, "https://cdn.test/done.m3u8")

			data, _ := filesystem.API().ReadFile(path)
			So(string(data), ShouldContainSubstring, `"resolved_url": null`)
		})

		Convey("Force resolves everything again", func() {
			runner.Force = true
			report, err := runner.Run(context.Background(), []string{path})
			So(err, ShouldBeNil)
			So(report.Resolved, ShouldEqual, 2)
			So(res.ids, ShouldResemble, []string{"m1", "done", "bad1"})
		})

		Convey("Failures are retried on the next run, successes are kept", func() {
			_, err := runner.Run(context.Background(), []string{path})
			So(err, ShouldBeNil)

			res.ids = nil
			report, err := runner.Run(context.Background(), []string{path})
			So(err, ShouldBeNil)
			So(res.ids, ShouldResemble, []string{"bad1"})
			So(report.Skipped, ShouldEqual, 4)
		})

		Convey("A file with nothing to resolve is not rewritten", func() {
			settled := `{"movies": [{"title": "Up", "sources": [{"server_name": "netu", "embed_url": "https://netu/e/x"}]}]}`
			So(filesystem.API().WriteFile("/data/settled.json", []byte(settled), 0o644), ShouldBeNil)

			report, err := runner.Run(context.Background(), []string{"/data/settled.json"})
			So(err, ShouldBeNil)
			So(report, ShouldResemble, Report{Files: 1, Skipped: 1})

			data, _ := filesystem.API().ReadFile("/data/settled.json")
			So(string(data), ShouldEqual, settled)
		})

		Convey("Requests to the same server are spaced by the delay", func() {
			runner.Delay = 60 * time.Millisecond
			runner.Force = true

			start := time.Now()
			_, err := runner.Run(context.Background(), []string{path})
			So(err, ShouldBeNil)
			// m1 and bad1 share streamwish, done is on filemoon.
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 55*time.Millisecond)
		})

		Convey("The delay is kept after a slow request finishes", func() {
			slow := &slowResolver{took: 120 * time.Millisecond}
			runner.Dispatcher = dispatch.New(dispatch.NewRegistry(
				&dispatch.Server{Kind: dispatch.Streamwish, Name: "streamwish", Resolver: slow},
			))
			runner.Delay = 80 * time.Millisecond

			three := `{"movies": [{"title": "Coco", "sources": [
				{"server_name": "streamwish", "embed_url": "https://streamwish.to/e/a"},
				{"server_name": "streamwish", "embed_url": "https://streamwish.to/e/b"},
				{"server_name": "streamwish", "embed_url": "https://streamwish.to/e/c"}
			]}]}`
			So(filesystem.API().WriteFile("/data/slow.json", []byte(three), 0o644), ShouldBeNil)

			report, err := runner.Run(context.Background(), []string{"/data/slow.json"})
			So(err, ShouldBeNil)
			So(report.Resolved, ShouldEqual, 3)
			So(slow.spans, ShouldHaveLength, 3)
			for i := 1; i < len(slow.spans); i++ {
				gap := slow.spans[i][0].Sub(slow.spans[i-1][1])
				So(gap, ShouldBeGreaterThanOrEqualTo, 75*time.Millisecond)
			}
		})

		Convey("Unreadable files are reported and the rest still run", func() {
			So(filesystem.API().WriteFile("/data/broken.json", []byte("{"), 0o644), ShouldBeNil)

			report, err := runner.Run(context.Background(), []string{"/data/broken.json", path})
			So(err, ShouldNotBeNil)
			So(report.Files, ShouldEqual, 2)
			So(report.Resolved, ShouldEqual, 1)
		})

		Convey("Cancellation stops the run and keeps what was done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			runner.Notify = func(Event) { cancel() }

			report, err := runner.Run(ctx, []string{path})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(report.Resolved, ShouldEqual, 1)
			So(report.Saved, ShouldEqual, 1)

			doc, _ := store.Load(path)
			So(doc.Movies[0].Sources[0].Resolved(), ShouldBeTrue)
			So(doc.Anime[0].Seasons[0].Episodes[0].Sources[0].Resolved(), ShouldBeFalse)
		})
	})
}
