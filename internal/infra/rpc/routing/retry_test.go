package routing

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/fathem/internal/infra/metrics"
	"github.com/vietddude/fathem/internal/infra/rpc/apierr"
)

// recorder captures waits instead of sleeping.
type recorder struct {
	waits []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func newTestRetrier(cfg RetryConfig) (*Retrier, *recorder) {
	rec := &recorder{}
	return NewRetrier("test", cfg).WithSleep(rec.sleep), rec
}

func rateLimited(secs *int) *apierr.Error {
	return &apierr.Error{Kind: apierr.KindRateLimited, Message: "slow down", Status: 429, RetryAfter: secs}
}

func intPtr(v int) *int { return &v }

func TestDo_AlwaysFailingInvokesExactlyNTimes(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		r, rec := newTestRetrier(RetryConfig{MaxAttempts: n, InitialDelay: 10 * time.Millisecond})

		calls := 0
		var last error
		_, err := Do(context.Background(), r, func(context.Context) (string, error) {
			calls++
			last = &apierr.Error{Kind: apierr.KindGeneric, Message: "boom", Status: 500 + calls}
			return "", last
		})

		assert.Equal(t, n, calls)
		assert.Same(t, last, err, "final error must be returned unchanged")
		assert.Len(t, rec.waits, n-1)
	}
}

func TestDo_SucceedsOnAttemptK(t *testing.T) {
	r, rec := newTestRetrier(RetryConfig{MaxAttempts: 5, InitialDelay: 10 * time.Millisecond})

	calls := 0
	got, err := Do(context.Background(), r, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
	assert.Len(t, rec.waits, 2)
}

func TestDo_BackoffSequence(t *testing.T) {
	r, rec := newTestRetrier(RetryConfig{
		MaxAttempts:     4,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		BackoffMultiple: 2,
	})

	_, err := Do(context.Background(), r, func(context.Context) (any, error) {
		return nil, errors.New("fail")
	})

	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, rec.waits)
}

func TestDo_MaxDelayCap(t *testing.T) {
	r, rec := newTestRetrier(RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    1 * time.Second,
		MaxDelay:        2 * time.Second,
		BackoffMultiple: 10,
	})

	_, _ = Do(context.Background(), r, func(context.Context) (any, error) {
		return nil, errors.New("fail")
	})

	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, rec.waits)
}

func TestDo_RetryAfterOverridesBackoff(t *testing.T) {
	r, rec := newTestRetrier(RetryConfig{
		MaxAttempts:     4,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		BackoffMultiple: 2,
	})

	calls := 0
	_, _ = Do(context.Background(), r, func(context.Context) (any, error) {
		calls++
		if calls == 2 {
			return nil, rateLimited(intPtr(5))
		}
		return nil, errors.New("fail")
	})

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		5 * time.Second,
		400 * time.Millisecond,
	}, rec.waits)
}

func TestDo_RateLimitScenario(t *testing.T) {
	// 429 with retry-after: 60, then 429 without a header.
	r, rec := newTestRetrier(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     2 * time.Minute,
	})

	calls := 0
	_, err := Do(context.Background(), r, func(context.Context) (any, error) {
		calls++
		header := http.Header{}
		if calls == 1 {
			header.Set("Retry-After", "60")
		}
		return nil, apierr.Classify(apierr.ResponseFailure(429, nil, header, "Too Many Requests"))
	})

	assert.True(t, apierr.IsKind(err, apierr.KindRateLimited))
	assert.Equal(t, []time.Duration{60 * time.Second, 2 * time.Second}, rec.waits)
}

func TestDo_RetryAfterCappedByMaxDelay(t *testing.T) {
	r, rec := newTestRetrier(RetryConfig{MaxAttempts: 2, InitialDelay: time.Second})

	_, _ = Do(context.Background(), r, func(context.Context) (any, error) {
		return nil, rateLimited(intPtr(3600))
	})

	assert.Equal(t, []time.Duration{30 * time.Second}, rec.waits)
}

func TestDo_RateLimitedWithoutHintUsesExponential(t *testing.T) {
	r, rec := newTestRetrier(RetryConfig{MaxAttempts: 3, InitialDelay: 250 * time.Millisecond})

	_, _ = Do(context.Background(), r, func(context.Context) (any, error) {
		return nil, rateLimited(nil)
	})

	assert.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond}, rec.waits)
}

func TestDo_OnRetry(t *testing.T) {
	type call struct {
		err     error
		attempt int
	}
	var observed []call

	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}
	r, _ := newTestRetrier(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		OnRetry: func(err error, attempt int) {
			observed = append(observed, call{err, attempt})
		},
	})

	calls := 0
	_, err := Do(context.Background(), r, func(context.Context) (any, error) {
		e := errs[calls]
		calls++
		return nil, e
	})

	assert.Same(t, errs[2], err)
	require.Len(t, observed, 2)
	assert.Same(t, errs[0], observed[0].err)
	assert.Equal(t, 1, observed[0].attempt)
	assert.Same(t, errs[1], observed[1].err)
	assert.Equal(t, 2, observed[1].attempt)
}

func TestDo_OnRetryRunsBeforeWait(t *testing.T) {
	var events []string
	r := NewRetrier("test", RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		OnRetry:      func(error, int) { events = append(events, "retry") },
	}).WithSleep(func(context.Context, time.Duration) error {
		events = append(events, "sleep")
		return nil
	})

	_, _ = Do(context.Background(), r, func(context.Context) (any, error) {
		events = append(events, "attempt")
		return nil, errors.New("fail")
	})

	assert.Equal(t, []string{"attempt", "retry", "sleep", "attempt"}, events)
}

func TestDo_SingleAttempt(t *testing.T) {
	onRetryCalled := false
	r, rec := newTestRetrier(RetryConfig{
		MaxAttempts:  1,
		InitialDelay: time.Second,
		OnRetry:      func(error, int) { onRetryCalled = true },
	})

	calls := 0
	want := errors.New("fail")
	_, err := Do(context.Background(), r, func(context.Context) (any, error) {
		calls++
		return nil, want
	})

	assert.Same(t, want, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.waits)
	assert.False(t, onRetryCalled)
}

func TestDo_CanceledFailureIsTerminal(t *testing.T) {
	r, rec := newTestRetrier(RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond})

	calls := 0
	_, err := Do(context.Background(), r, func(context.Context) (any, error) {
		calls++
		return nil, context.Canceled
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.waits)
}

func TestDo_CancelDuringWaitReturnsLastFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	want := errors.New("fail")
	waiting := make(chan struct{})
	r := NewRetrier("test", RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour}).
		WithSleep(func(ctx context.Context, d time.Duration) error {
			close(waiting)
			return timerSleep(ctx, d)
		})

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, r, func(context.Context) (any, error) {
			calls++
			return nil, want
		})
		done <- err
	}()

	<-waiting
	cancel()

	select {
	case err := <-done:
		assert.Same(t, want, err)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDo_CancellationIsNotCountedAsExhaustion(t *testing.T) {
	const name = "canceled_op"
	r := NewRetrier(name, RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond})

	_, err := Do(context.Background(), r, func(context.Context) (any, error) {
		return nil, context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	exhausted := metrics.RetryExhaustedTotal.WithLabelValues(name, apierr.KindGeneric.String())
	assert.Zero(t, testutil.ToFloat64(exhausted))

	_, _ = Do(context.Background(), NewRetrier(name, RetryConfig{MaxAttempts: 1}), func(context.Context) (any, error) {
		return nil, errors.New("fail")
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(exhausted))
}

func TestBackoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffMultiple: 3}

	tests := []struct {
		attempt int
		err     error
		want    time.Duration
	}{
		{1, errors.New("x"), 100 * time.Millisecond},
		{2, errors.New("x"), 300 * time.Millisecond},
		{3, errors.New("x"), 900 * time.Millisecond},
		{4, errors.New("x"), time.Second},
		{50, errors.New("x"), time.Second},
		{1, rateLimited(intPtr(0)), 0},
		{1, rateLimited(intPtr(1)), time.Second},
		{3, rateLimited(nil), 900 * time.Millisecond},
		{1, rateLimited(intPtr(18446744074)), time.Second},
		{1, rateLimited(intPtr(math.MaxInt)), time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempt, tt.err, cfg), "attempt %d err %v", tt.attempt, tt.err)
	}
}

func TestBackoff_ZeroInitialDelay(t *testing.T) {
	cfg := RetryConfig{BackoffMultiple: 1e300}
	assert.Equal(t, time.Duration(0), Backoff(10, errors.New("x"), cfg))
}

func TestBackoff_JitterStaysWithinBounds(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: 0.5}

	for i := 0; i < 100; i++ {
		d := Backoff(1, errors.New("x"), cfg)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestRetryConfig_Defaults(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 0, InitialDelay: -time.Second}.withDefaults()

	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.BackoffMultiple)
}

func TestCallWithRetry_IndependentCalls(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}

	results := make(chan int, 2)
	for i := 0; i < 2; i++ {
		go func() {
			calls := 0
			_, _ = CallWithRetry(context.Background(), "independent", cfg, func(context.Context) (any, error) {
				calls++
				return nil, errors.New("fail")
			})
			results <- calls
		}()
	}

	assert.Equal(t, 3, <-results)
	assert.Equal(t, 3, <-results)
}
