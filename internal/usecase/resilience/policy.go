// Package resilience adds caller-side retry and throttling around model providers.
// Only errors that report Retryable() are retried.
package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Policy configures retry and throttling.
type Policy struct {
	// MaxAttempts bounds total calls, the first one included. Values below 1 mean 1.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// RequestsPerSecond throttles calls; zero disables throttling.
	RequestsPerSecond float64
}

// runner executes one operation under a policy.
type runner struct {
	policy  Policy
	limiter *rate.Limiter
	name    string
	logger  *zap.Logger
}

func newRunner(p Policy, name string, logger *zap.Logger) *runner {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	r := &runner{policy: p, name: name, logger: logger}
	if p.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(p.RequestsPerSecond), 1)
	}
	return r
}

func (r *runner) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		exp.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		exp.MaxInterval = r.policy.MaxInterval
	}
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.policy.MaxAttempts-1)), ctx)
}

// do runs op until it succeeds, fails permanently, attempts run out or ctx ends.
func (r *runner) do(ctx context.Context, op func() error) error {
	attempt := 0
	wrapped := func() error {
		attempt++
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		err := op()
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Warn("Retrying provider call",
			zap.String("call", r.name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.policy.MaxAttempts),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	return backoff.RetryNotify(wrapped, r.backOff(ctx), notify) //nolint:wrapcheck // op errors pass through unchanged
}
