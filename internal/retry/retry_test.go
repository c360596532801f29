package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errRateLimited = errors.New("rate limited")

// instantPolicy returns a policy whose sleeps complete immediately while
// recording the requested durations.
func instantPolicy(maxRetries int, slept *[]time.Duration) Policy {
	return Policy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Second,
		Retryable: func(err error) bool {
			return errors.Is(err, errRateLimited)
		},
		Sleep: func(_ context.Context, d time.Duration) error {
			*slept = append(*slept, d)
			return nil
		},
	}
}

func TestDo_NoRetryOnPermanentFailure(t *testing.T) {
	var slept []time.Duration
	p := instantPolicy(3, &slept)

	calls := 0
	permanent := errors.New("bad request")
	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "", permanent
	})

	if calls != 1 {
		t.Errorf("permanent failure called %d times; want exactly 1", calls)
	}
	if !errors.Is(err, permanent) {
		t.Errorf("err = %v; want the call's own error", err)
	}
	if len(slept) != 0 {
		t.Errorf("slept %v; want no backoff", slept)
	}
}

func TestDo_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	var slept []time.Duration
	p := instantPolicy(3, &slept)

	// Rate limited on every attempt; would succeed on attempt 5, which
	// must never happen with 3 retries (4 attempts total).
	calls := 0
	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls >= 5 {
			return "late success", nil
		}
		return "", errRateLimited
	})

	if calls != 4 {
		t.Errorf("made %d attempts; want max_retries+1 = 4", calls)
	}
	if !errors.Is(err, errRateLimited) {
		t.Errorf("err = %v; want the last rate-limited error", err)
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	var slept []time.Duration
	p := instantPolicy(3, &slept)

	calls := 0
	got, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errRateLimited
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("result = %d; want 42", got)
	}
	if len(slept) != 2 {
		t.Fatalf("backed off %d times; want 2", len(slept))
	}
}

func TestDo_ExponentialBackoff(t *testing.T) {
	var slept []time.Duration
	p := instantPolicy(3, &slept)

	_, _ = Do(context.Background(), p, func(context.Context) (string, error) {
		return "", errRateLimited
	})

	// No jitter configured: delays are exactly base * 2^attempt.
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %v; want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("backoff[%d] = %v; want %v", i, slept[i], want[i])
		}
	}
}

func TestDo_JitterStaysInBounds(t *testing.T) {
	var slept []time.Duration
	p := instantPolicy(3, &slept)
	p.Jitter = time.Second

	_, _ = Do(context.Background(), p, func(context.Context) (string, error) {
		return "", errRateLimited
	})

	base := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, d := range slept {
		if d < base[i] || d >= base[i]+time.Second {
			t.Errorf("backoff[%d] = %v; want in [%v, %v)", i, d, base[i], base[i]+time.Second)
		}
	}
}

func TestDo_NilPredicateNeverRetries(t *testing.T) {
	calls := 0
	p := Policy{MaxRetries: 3, BaseDelay: time.Second}
	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "", errRateLimited
	})
	if calls != 1 {
		t.Errorf("nil predicate called %d times; want 1", calls)
	}
	if err == nil {
		t.Error("want error passed through")
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Retryable:  func(error) bool { return true },
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	_, err := Do(ctx, p, func(context.Context) (string, error) {
		return "", errRateLimited
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v; want context.Canceled", err)
	}
}
