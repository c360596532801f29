// Package retry wraps a single remote call with bounded
// exponential-backoff-with-jitter retry.
package retry

import (
	"context"
	"math/rand"
	"time"

	"mailsort/internal/model"
)

// Policy controls how a call is retried. The zero value retries nothing:
// the retry predicate is always explicit, so a caller can never retry a
// non-transient failure by accident.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt, so a
	// call is attempted at most MaxRetries+1 times.
	MaxRetries int

	// BaseDelay is the backoff delay before the first retry; it doubles
	// on each subsequent retry.
	BaseDelay time.Duration

	// Jitter is the exclusive upper bound of the random component added
	// to every backoff delay.
	Jitter time.Duration

	// Retryable decides whether an error is worth retrying. Nil means
	// no error is retryable.
	Retryable func(error) bool

	// Sleep waits for the given duration or until the context is done.
	// Nil uses a timer; tests substitute an instant clock.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the stock policy: 3 retries, 1s base delay, up to 1s of
// jitter. This bounds worst-case latency per call to roughly 15s plus
// jitter before the last error is handed back.
func Default(retryable func(error) bool) Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Jitter:     time.Second,
		Retryable:  retryable,
	}
}

// FromConfig builds a policy from the application retry configuration.
func FromConfig(cfg model.RetryConfig, retryable func(error) bool) Policy {
	return Policy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		Jitter:     time.Duration(cfg.JitterMs) * time.Millisecond,
		Retryable:  retryable,
	}
}

// Do invokes call until it succeeds, fails non-retryably, or exhausts the
// policy's attempts. The last error is returned as-is after exhaustion;
// Do never loops forever and never invents its own error for a failed
// call. A cancelled context surfaces as ctx.Err().
func Do[T any](ctx context.Context, p Policy, call func(context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepTimer
	}

	var result T
	var err error
	for attempt := 0; ; attempt++ {
		result, err = call(ctx)
		if err == nil {
			return result, nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return result, err
		}
		if attempt >= p.MaxRetries {
			return result, err
		}

		if serr := sleep(ctx, p.backoff(attempt)); serr != nil {
			var zero T
			return zero, serr
		}
	}
}

// backoff computes BaseDelay * 2^attempt plus random jitter.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.BaseDelay * (1 << attempt)
	if p.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return d
}

func sleepTimer(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
