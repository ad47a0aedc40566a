// Package batch pre-resolves the sources of content documents and stores the
// manifest URLs back into them.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cinegate/cinegate/dispatch"
	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/source"
	"github.com/cinegate/cinegate/store"
	"github.com/samber/mo"
	"golang.org/x/time/rate"
)

// Report sums up a run.
type Report struct {
	Files    int
	Saved    int
	Resolved int
	Failed   int
	// Skipped counts sources already resolved, without an id or on an unsupported server.
	Skipped int
}

func (r *Report) add(other Report) {
	r.Files += other.Files
	r.Saved += other.Saved
	r.Resolved += other.Resolved
	r.Failed += other.Failed
	r.Skipped += other.Skipped
}

// Event describes one attempted source.
type Event struct {
	File   string
	Entry  *source.Entry
	Source *source.VideoSource
	Result dispatch.Result
}

// Runner resolves documents one source at a time.
type Runner struct {
	Dispatcher *dispatch.Dispatcher
	// Delay is the pause between the end of one request to a server and the
	// start of the next one to the same server.
	Delay time.Duration
	// Force resolves sources that already have a URL.
	Force bool
	// Notify, when set, is called after every attempt.
	Notify func(Event)

	limiters map[string]*rate.Limiter
}

// Run processes every file in order. A file that cannot be read or written is
// reported and the run moves on; a cancelled ctx stops it after saving progress.
func (r *Runner) Run(ctx context.Context, paths []string) (Report, error) {
	var (
		total Report
		errs  []error
	)
	for _, path := range paths {
		report, err := r.File(ctx, path)
		total.add(report)
		if err != nil {
			if ctx.Err() != nil {
				return total, err
			}
			log.WithFields(log.Fields{"file": path}).WithError(err).Error("batch file failed")
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// File processes one document and saves it only if a source changed.
func (r *Runner) File(ctx context.Context, path string) (Report, error) {
	report := Report{Files: 1}

	doc, err := store.Load(path)
	if err != nil {
		return report, err
	}

	changed := false
	walkErr := store.Walk(doc, func(_ string, entry *source.Entry, src *source.VideoSource) error {
		server := r.Dispatcher.Registry().Lookup(src.ServerName)
		id := src.SourceID()
		if !server.Supported() || id == "" || (src.Resolved() && !r.Force) {
			report.Skipped++
			return nil
		}

		if err := r.pause(ctx, server.Name); err != nil {
			return err
		}

		res := r.Dispatcher.Resolve(ctx, dispatch.Request{Server: server.Name, SourceID: id, Force: r.Force})
		r.finished(server.Name)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fields := log.Fields{"file": path, "title": entry.Title, "server": server.Name, "source": id}
		if res.Success {
			src.SetResolved(mo.Some(res.URL))
			report.Resolved++
			log.WithFields(fields).Info("source resolved")
		} else {
			src.SetResolved(mo.None[string]())
			report.Failed++
			log.WithFields(fields).WithError(res.Err).Warn("source not resolved")
		}
		changed = true

		if r.Notify != nil {
			r.Notify(Event{File: path, Entry: entry, Source: src, Result: res})
		}
		return nil
	})

	if changed {
		if err := store.Save(path, doc); err != nil {
			return report, errors.Join(walkErr, fmt.Errorf("save %s: %w", path, err))
		}
		report.Saved++
	}
	return report, walkErr
}

// pause blocks until Delay has passed since the last request to server finished.
// The first request to a server goes out at once.
func (r *Runner) pause(ctx context.Context, server string) error {
	l, ok := r.limiters[server]
	if !ok {
		return nil
	}
	return l.Wait(ctx)
}

// finished restarts the pause of server: its limiter is emptied now and only
// refills a token after Delay.
func (r *Runner) finished(server string) {
	if r.Delay <= 0 {
		return
	}
	if r.limiters == nil {
		r.limiters = make(map[string]*rate.Limiter)
	}

	l := rate.NewLimiter(rate.Every(r.Delay), 1)
	l.AllowN(time.Now(), 1)
	r.limiters[server] = l
}
