package modeladapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// RetryOpts configures a RetryPolicy.
type RetryOpts struct {
	MaxAttempts int              // Total attempts including the first (default 3).
	BaseDelay   time.Duration    // Initial backoff delay (default 500ms).
	MaxDelay    time.Duration    // Backoff ceiling (default 30s).
	Retryable   func(error) bool // Predicate for transient errors (default IsRetryable).
	Logger      *slog.Logger     // Receives a warning per retry (default: discard).
}

// RetryPolicy retries transient failures with exponential backoff and jitter.
// Server-provided retry hints (Retry-After, X-RateLimit-Reset) are honoured
// when they exceed the computed backoff, up to MaxDelay.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	retryable   func(error) bool
	log         *slog.Logger

	// sleepFunc is used for testing; defaults to a context-aware sleep.
	sleepFunc func(ctx context.Context, d time.Duration) error
	// randFunc returns a random float64 in [0,1); used for jitter. Defaults to rand.Float64.
	randFunc func() float64
}

// NewRetryPolicy creates a RetryPolicy, filling zero options with defaults.
func NewRetryPolicy(opts RetryOpts) *RetryPolicy {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Retryable == nil {
		opts.Retryable = IsRetryable
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &RetryPolicy{
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		maxDelay:    opts.MaxDelay,
		retryable:   opts.Retryable,
		log:         opts.Logger,
		sleepFunc:   contextSleep,
		randFunc:    rand.Float64,
	}
}

// MaxAttempts returns the attempt ceiling.
func (p *RetryPolicy) MaxAttempts() int { return p.maxAttempts }

// SetSleepFunc overrides the sleep function (for testing).
func (p *RetryPolicy) SetSleepFunc(fn func(ctx context.Context, d time.Duration) error) {
	p.sleepFunc = fn
}

// SetRandFunc overrides the random number generator (for testing).
func (p *RetryPolicy) SetRandFunc(fn func() float64) { p.randFunc = fn }

// RetryError is returned when every attempt failed with a transient error.
// It unwraps to the last observed cause.
type RetryError struct {
	Attempts int
	Last     error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryError) Unwrap() error { return e.Last }

// IsRetryable reports whether err belongs to the transient class: network
// failures, 408, 429 and 5xx responses. Cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var tmp interface{ Temporary() bool }
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}

	return false
}

// contextSleep sleeps for d or until ctx is cancelled.
func contextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// jitter applies ±25% random jitter to a duration.
func (p *RetryPolicy) jitter(d time.Duration) time.Duration {
	// Scale factor in [0.75, 1.25).
	factor := 0.75 + p.randFunc()*0.5 //nolint:mnd // jitter range: ±25%
	return time.Duration(float64(d) * factor)
}

// Backoff returns the wait before the retry that follows the given zero-based
// attempt, before jitter: baseDelay * 2^attempt, raised to the server hint
// carried by err and capped at maxDelay.
func (p *RetryPolicy) Backoff(attempt int, err error) time.Duration {
	d := p.baseDelay * time.Duration(math.Pow(2, float64(attempt))) //nolint:mnd // exponential backoff formula

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > d {
		d = apiErr.RetryAfter
	}

	return min(d, p.maxDelay)
}

// Do calls fn until it succeeds, fails with a non-retryable error, the
// attempt ceiling is reached, or ctx is done. Cancellation of ctx stops both
// the backoff sleep and further attempts.
func (p *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := range p.maxAttempts {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !p.retryable(err) {
			return err
		}

		lastErr = err

		if attempt == p.maxAttempts-1 {
			break
		}

		delay := p.jitter(p.Backoff(attempt, err))
		p.log.WarnContext(ctx, "retrying upstream request",
			"attempt", attempt+1,
			"max_attempts", p.maxAttempts,
			"delay", delay,
			"error", err,
		)

		if err := p.sleepFunc(ctx, delay); err != nil {
			return err
		}
	}

	return &RetryError{Attempts: p.maxAttempts, Last: lastErr}
}
