package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls how many times an operation runs and how long to wait
// between attempts.
type Policy struct {
	// Service and Operation label retry log lines.
	Service   string
	Operation string

	// Attempts counts the first try. Values below 1 mean 3.
	Attempts int

	// Backoff is the first delay; each later delay doubles up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration

	// Retryable overrides IsTransient.
	Retryable func(error) bool
}

// DefaultPolicy returns the policy used for webhook and Notion calls.
func DefaultPolicy(service, operation string) Policy {
	return Policy{
		Service:    service,
		Operation:  operation,
		Attempts:   3,
		Backoff:    500 * time.Millisecond,
		MaxBackoff: 10 * time.Second,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, the
// attempts are used up, or ctx is done. The last error from fn is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for operations that return a value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !p.Retryable(err) || attempt == p.Attempts {
			break
		}

		delay := p.delay(attempt)
		zap.L().Warn("retrying operation",
			zap.String("service", p.Service),
			zap.String("operation", p.Operation),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func (p Policy) withDefaults() Policy {
	if p.Attempts < 1 {
		p.Attempts = 3
	}
	if p.Backoff <= 0 {
		p.Backoff = 500 * time.Millisecond
	}
	if p.MaxBackoff < p.Backoff {
		p.MaxBackoff = p.Backoff
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// delay returns the wait after the given 1-based attempt: exponential
// growth capped at MaxBackoff, with up to 25% jitter either way.
func (p Policy) delay(attempt int) time.Duration {
	d := p.MaxBackoff
	if shift := attempt - 1; shift < 32 {
		if b := p.Backoff << shift; b > 0 && b < d {
			d = b
		}
	}
	jitter := (rand.Float64()*0.5 - 0.25) * float64(d)
	return d + time.Duration(jitter)
}
