package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cinegate/cinegate/key"
	"github.com/cinegate/cinegate/log"
	"github.com/spf13/viper"
)

// RetryPolicy bounds how often and how patiently a fetch is repeated.
type RetryPolicy struct {
	MaxAttempts uint
	Initial     time.Duration
	Max         time.Duration
}

// Interactive never retries; API callers get the first failure immediately.
var Interactive = RetryPolicy{MaxAttempts: 1}

// BatchPolicy returns the configured policy for store-wide runs.
func BatchPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: uint(max(1, viper.GetInt(key.FetchRetries))),
		Initial:     viper.GetDuration(key.FetchBackoffInitial),
		Max:         viper.GetDuration(key.FetchBackoffMax),
	}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	if p.Initial > 0 {
		bo.InitialInterval = p.Initial
	}
	if p.Max > 0 {
		bo.MaxInterval = p.Max
	}
	return bo
}

// Retry runs op until it succeeds, fails permanently or the attempts are spent.
// Only errors for which Retryable is true are repeated.
func Retry[T any](ctx context.Context, p RetryPolicy, op func() (T, error)) (T, error) {
	if p.MaxAttempts <= 1 {
		return op()
	}

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WithError(err).Debugf("retrying in %s", next)
		}),
	)
}

// Retryable reports whether err is a temporary fetch failure.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var fe *Error
	return errors.As(err, &fe) && fe.Temporary()
}

type retrying struct {
	Fetcher
	policy RetryPolicy
}

// WithRetry decorates f so every call follows policy.
func WithRetry(f Fetcher, policy RetryPolicy) Fetcher {
	if policy.MaxAttempts <= 1 {
		return f
	}
	return &retrying{Fetcher: f, policy: policy}
}

func (r *retrying) Fetch(ctx context.Context, url string, opts Options) (*Response, error) {
	return Retry(ctx, r.policy, func() (*Response, error) {
		return r.Fetcher.Fetch(ctx, url, opts)
	})
}

// CanRender forwards to the wrapped fetcher.
func (r *retrying) CanRender() bool {
	return CanRender(r.Fetcher)
}

// CanRender reports whether f supports render-mode fetches.
func CanRender(f Fetcher) bool {
	type renderAware interface{ CanRender() bool }
	if ra, ok := f.(renderAware); ok {
		return ra.CanRender()
	}
	return false
}
