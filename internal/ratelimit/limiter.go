// Package ratelimit provides the shared discipline for every outbound
// call: a per-source token bucket plus retry with exponential backoff
// and jitter.
//
// One Limiter guards one upstream source, identified by its source key.
// Every adapter talking to that source shares the same instance, so the
// bucket is the single piece of state coordinating concurrent callers.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/logger"
)

const (
	// DefaultRate is the token refill rate in tokens per second.
	DefaultRate = 4.0

	// DefaultBurst is the bucket capacity.
	DefaultBurst = 4

	// DefaultMaxAttempts is the attempt budget per operation.
	DefaultMaxAttempts = 5

	// DefaultBaseDelay is the backoff delay after the first failed attempt.
	DefaultBaseDelay = 500 * time.Millisecond

	// DefaultMaxDelay caps exponential backoff growth.
	DefaultMaxDelay = 8 * time.Second

	// DefaultAttemptTimeout bounds one attempt at the composition root
	// when no ratelimit.<key>.timeout is configured. Wide enough for the
	// slowest adapter HTTP client. New does not apply it: a zero
	// Config.Timeout keeps the deadline off, which fake-clock tests and
	// adapter-owned timeouts rely on.
	DefaultAttemptTimeout = 2 * time.Minute
)

// Clock abstracts time so retry schedules are testable without
// wall-clock delays.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for d or until the context is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }

// HTTPStatusError is implemented by adapter errors that carry the
// HTTP-equivalent status of an upstream rejection. The limiter uses it
// to classify a failure as transient (429 and 5xx) or permanent.
type HTTPStatusError interface {
	error
	HTTPStatus() int
}

// Config tunes a Limiter. Zero-valued fields fall back to the package
// defaults above.
type Config struct {
	// SourceKey names the upstream this limiter guards. It appears in
	// logs and in surfaced ExternalCallError values.
	SourceKey string

	// Rate is the token refill rate in tokens per second.
	Rate float64

	// Burst is the bucket capacity.
	Burst int

	// MaxAttempts caps how many times one operation is tried.
	MaxAttempts int

	// BaseDelay is the backoff delay after the first failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps exponential backoff growth.
	MaxDelay time.Duration

	// Timeout bounds each individual attempt. Zero disables the
	// per-attempt deadline.
	Timeout time.Duration

	// Clock supplies time. Nil means the system clock.
	Clock Clock

	// Jitter perturbs a backoff delay. Nil means uniform jitter over
	// [d/2, d]. Tests inject the identity function for exact schedules.
	Jitter func(d time.Duration) time.Duration
}

// Limiter paces and retries calls to one upstream source.
type Limiter struct {
	sourceKey   string
	bucket      *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	timeout     time.Duration
	clock       Clock
	jitter      func(time.Duration) time.Duration
}

// New builds a Limiter for one source key.
func New(cfg Config) *Limiter {
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.Jitter == nil {
		cfg.Jitter = halfJitter
	}
	return &Limiter{
		sourceKey:   cfg.SourceKey,
		bucket:      rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
		timeout:     cfg.Timeout,
		clock:       cfg.Clock,
		jitter:      cfg.Jitter,
	}
}

// SourceKey returns the upstream key this limiter guards.
func (l *Limiter) SourceKey() string { return l.sourceKey }

// AttemptTimeout returns the per-attempt deadline, zero when disabled.
func (l *Limiter) AttemptTimeout() time.Duration { return l.timeout }

// Retry states. Spelling the loop out as a state machine keeps the
// schedule inspectable under a fake clock.
type retryState int

const (
	stateAttempting retryState = iota
	stateBackingOff
	stateSucceeded
	stateExhausted
)

// Do acquires a token, runs op, and retries transient failures with
// exponential backoff and jitter up to the attempt budget. Permanent
// failures and exhausted budgets surface domain.ExternalCallError with
// the final cause preserved. Cancellation of ctx is returned unchanged.
func (l *Limiter) Do(ctx context.Context, op func(context.Context) error) error {
	var (
		state    = stateAttempting
		attempts int
		lastErr  error
		delay    = l.baseDelay
	)

	for {
		switch state {
		case stateAttempting:
			if err := l.acquire(ctx); err != nil {
				return err
			}
			attempts++
			lastErr = l.attempt(ctx, op)
			switch {
			case lastErr == nil:
				state = stateSucceeded
			case ctx.Err() != nil:
				return ctx.Err()
			case !transient(lastErr):
				logger.Debug("%s: permanent failure on attempt %d: %v", l.sourceKey, attempts, lastErr)
				state = stateExhausted
			case attempts >= l.maxAttempts:
				logger.Warn("%s: retries exhausted after %d attempts: %v", l.sourceKey, attempts, lastErr)
				state = stateExhausted
			default:
				state = stateBackingOff
			}

		case stateBackingOff:
			wait := l.jitter(delay)
			logger.Debug("%s: attempt %d/%d failed, backing off %s: %v",
				l.sourceKey, attempts, l.maxAttempts, wait, lastErr)
			if err := l.clock.Sleep(ctx, wait); err != nil {
				return err
			}
			delay = min(delay*2, l.maxDelay)
			state = stateAttempting

		case stateSucceeded:
			return nil

		case stateExhausted:
			return &domain.ExternalCallError{
				SourceKey: l.sourceKey,
				Attempts:  attempts,
				LastCause: lastErr,
			}
		}
	}
}

// acquire takes one token, waiting for refill when the bucket is empty.
// Reservation-based so the wait runs on the injected clock.
func (l *Limiter) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := l.clock.Now()
	res := l.bucket.ReserveN(now, 1)
	if !res.OK() {
		return fmt.Errorf("%s: token bucket cannot satisfy reservation", l.sourceKey)
	}
	wait := res.DelayFrom(now)
	if wait <= 0 {
		return nil
	}
	if err := l.clock.Sleep(ctx, wait); err != nil {
		res.CancelAt(l.clock.Now())
		return err
	}
	return nil
}

// attempt runs op once under the per-attempt timeout. The deadline uses
// the real clock; tests disable it and inject failures directly.
func (l *Limiter) attempt(ctx context.Context, op func(context.Context) error) error {
	if l.timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return op(attemptCtx)
}

// transient reports whether err is worth retrying. Timeouts, connection
// resets and 429/5xx upstream responses are transient; every other
// upstream rejection is permanent.
func transient(err error) bool {
	var statusErr HTTPStatusError
	if errors.As(err, &statusErr) {
		status := statusErr.HTTPStatus()
		return status == http.StatusTooManyRequests || status >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// halfJitter spreads a delay uniformly over [d/2, d].
func halfJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
