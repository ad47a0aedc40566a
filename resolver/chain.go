package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/metrics"
)

// Chain tries strategies in order and returns the first manifest found.
type Chain []Strategy

// Names lists the strategies in order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name()
	}
	return names
}

// Resolve runs the chain. The returned error joins every strategy's failure, so
// errors.Is works for ErrNoManifest, ErrCaptcha and fetch errors alike.
func (c Chain) Resolve(ctx context.Context, host Host, embedURL string) (string, error) {
	if len(c) == 0 {
		return "", errors.New("no resolution strategy available")
	}

	var errs []error
	for _, s := range c {
		start := time.Now()
		u, err := s.Resolve(ctx, host, embedURL)

		fields := log.Fields{
			"host":     host.Name,
			"strategy": s.Name(),
			"took":     time.Since(start).Round(time.Millisecond),
		}

		if err == nil {
			metrics.Strategies.WithLabelValues(s.Name(), "ok").Inc()
			log.WithFields(fields).Debug("manifest found")
			return u, nil
		}

		class := ClassOf(err)
		metrics.Strategies.WithLabelValues(s.Name(), string(class)).Inc()
		fields["kind"] = class
		log.WithFields(fields).WithError(err).Debug("strategy failed")

		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}

	return "", errors.Join(errs...)
}
