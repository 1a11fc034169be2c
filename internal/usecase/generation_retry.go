package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultMaxAttempts    = 3
	defaultAttemptTimeout = 30 * time.Second
)

// GenerationError is returned after every generation attempt has failed.
// The last attempt's error is reachable through Unwrap.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// GenerateFunc runs a single generation attempt under the supplied context.
type GenerateFunc func(ctx context.Context) (string, error)

// GenerationRetrier wraps generation calls with a fixed per-attempt timeout
// and exponential backoff between attempts (2s, 4s, 8s, ...). It never
// retries past maxAttempts; on exhaustion the last error is propagated as a
// GenerationError and the caller decides how to degrade.
type GenerationRetrier struct {
	maxAttempts    int
	attemptTimeout time.Duration
	backoffUnit    time.Duration
	logger         *slog.Logger
}

// NewGenerationRetrier creates a retrier with production defaults
// (3 attempts, 30s per attempt).
func NewGenerationRetrier(maxAttempts int, attemptTimeout time.Duration, logger *slog.Logger) *GenerationRetrier {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	return &GenerationRetrier{
		maxAttempts:    maxAttempts,
		attemptTimeout: attemptTimeout,
		backoffUnit:    time.Second,
		logger:         logger,
	}
}

// CallWithRetry runs generate until it succeeds or attempts are exhausted.
// Backoff sleeps are timer-based selects honoring ctx cancellation; they
// never block other requests.
func (r *GenerationRetrier) CallWithRetry(ctx context.Context, generate GenerateFunc) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
		text, err := generate(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 1 {
				r.logger.Info("generation_recovered",
					slog.Int("attempt", attempt))
			}
			return text, nil
		}
		lastErr = err

		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		r.logger.Warn("generation_attempt_failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", r.maxAttempts),
			slog.String("reason", reason),
			slog.String("error", err.Error()))

		if attempt == r.maxAttempts {
			break
		}

		wait := time.Duration(1<<uint(attempt)) * r.backoffUnit
		r.logger.Info("generation_retry_backoff",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	return "", &GenerationError{Attempts: r.maxAttempts, Err: lastErr}
}
