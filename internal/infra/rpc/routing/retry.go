package routing

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/vietddude/fathem/internal/infra/metrics"
	"github.com/vietddude/fathem/internal/infra/rpc/apierr"
)

// RetryConfig defines retry behavior for one logical call.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps every computed or server-dictated wait.
	MaxDelay time.Duration

	// BackoffMultiple grows the wait geometrically between attempts.
	BackoffMultiple float64

	// Jitter adds up to Jitter*wait of random delay to exponential waits.
	// Zero keeps backoff deterministic.
	Jitter float64

	// OnRetry is called with the failure and the attempt number that just
	// failed, before each wait. It is never called for the final failure.
	OnRetry func(err error, attempt int)
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    1 * time.Second,
	MaxDelay:        30 * time.Second,
	BackoffMultiple: 2.0,
}

const (
	defaultMaxDelay        = 30 * time.Second
	defaultBackoffMultiple = 2.0
)

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.BackoffMultiple <= 0 {
		c.BackoffMultiple = defaultBackoffMultiple
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	return c
}

// Backoff source labels.
const (
	SourceRetryAfter  = "retry_after"
	SourceExponential = "exponential"
)

// Backoff returns the wait before the attempt following the failed one.
// A rate-limit error with a retry-after hint overrides the geometric formula.
func Backoff(attempt int, err error, config RetryConfig) time.Duration {
	wait, _ := backoff(attempt, err, config.withDefaults())
	return wait
}

func backoff(attempt int, err error, config RetryConfig) (time.Duration, string) {
	if apiErr, ok := apierr.As(err); ok {
		if secs, ok := apiErr.RetryAfterHint(); ok {
			// Compare in whole seconds so huge hints cannot overflow Duration.
			if secs > int(config.MaxDelay/time.Second) {
				return config.MaxDelay, SourceRetryAfter
			}
			wait := time.Duration(secs) * time.Second
			if wait > config.MaxDelay {
				wait = config.MaxDelay
			}
			return wait, SourceRetryAfter
		}
	}

	return calculateBackoff(attempt, config), SourceExponential
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	if config.InitialDelay == 0 {
		return 0
	}

	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt-1))
	if config.Jitter > 0 {
		delay += delay * config.Jitter * rand.Float64()
	}
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}

// Operation is one attempt of a remote call.
type Operation[T any] func(ctx context.Context) (T, error)

// SleepFunc suspends for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retrier drives repeated attempts of one named operation.
// It holds no per-call state and is safe for concurrent use.
type Retrier struct {
	name   string
	config RetryConfig
	sleep  SleepFunc
}

// NewRetrier creates a retrier for the named operation.
func NewRetrier(name string, config RetryConfig) *Retrier {
	return &Retrier{
		name:   name,
		config: config.withDefaults(),
		sleep:  timerSleep,
	}
}

// WithSleep returns a copy of the retrier that waits with fn.
func (r *Retrier) WithSleep(fn SleepFunc) *Retrier {
	cp := *r
	cp.sleep = fn
	return &cp
}

type retryState int

const (
	stateAttempting retryState = iota
	stateWaiting
	stateSucceeded
	stateExhausted
	stateCanceled
)

// Do runs op until it succeeds or attempts run out. The final failure is
// returned exactly as op returned it.
//
// Cancellation is terminal: a failure observed after ctx is done, or one
// matching context.Canceled, is returned without retrying, and a wait cut
// short by ctx returns the last failure.
func Do[T any](ctx context.Context, r *Retrier, op Operation[T]) (T, error) {
	var (
		zero    T
		result  T
		lastErr error
	)

	attempt := 1
	state := stateAttempting

	for {
		switch state {
		case stateAttempting:
			metrics.RetryAttemptsTotal.WithLabelValues(r.name).Inc()

			v, err := op(ctx)
			if err == nil {
				result = v
				state = stateSucceeded
				continue
			}

			lastErr = err
			if isCancellation(ctx, err) {
				state = stateCanceled
				continue
			}
			if attempt >= r.config.MaxAttempts {
				state = stateExhausted
				continue
			}
			state = stateWaiting

		case stateWaiting:
			wait, source := backoff(attempt, lastErr, r.config)

			if r.config.OnRetry != nil {
				r.config.OnRetry(lastErr, attempt)
			}

			metrics.RetryBackoff.WithLabelValues(r.name, source).Observe(wait.Seconds())
			slog.Debug("Retrying operation",
				"operation", r.name,
				"attempt", attempt,
				"wait", wait,
				"source", source,
				"kind", apierr.KindOf(lastErr),
				"error", lastErr,
			)

			if err := r.sleep(ctx, wait); err != nil {
				state = stateCanceled
				continue
			}

			attempt++
			state = stateAttempting

		case stateSucceeded:
			return result, nil

		case stateExhausted:
			kind := apierr.KindOf(lastErr)
			metrics.RetryExhaustedTotal.WithLabelValues(r.name, kind.String()).Inc()
			slog.Warn("Operation failed",
				"operation", r.name,
				"attempts", attempt,
				"kind", kind,
				"error", lastErr,
			)
			return zero, lastErr

		case stateCanceled:
			slog.Debug("Operation canceled",
				"operation", r.name,
				"attempts", attempt,
				"error", lastErr,
			)
			return zero, lastErr
		}
	}
}

// CallWithRetry executes op with exponential backoff using a fresh retrier.
func CallWithRetry[T any](ctx context.Context, name string, config RetryConfig, op Operation[T]) (T, error) {
	return Do(ctx, NewRetrier(name, config), op)
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
