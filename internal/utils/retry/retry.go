package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/open-builders/giveaway-bot/internal/common/logger"
)

// Policy bounds a retried operation.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as a connection-timeout class failure so DoValue retries it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is a connection-timeout class failure.
// A cancelled or expired caller context is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// DoValue runs op up to p.Attempts times. Only transient failures are
// retried, waiting p.BaseDelay * 2^attempt between attempts. The last error
// is returned unchanged, or the context error once ctx is done.
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	return backoff.RetryNotifyWithData(
		func() (T, error) {
			attempt++
			out, err := op(ctx)
			if err != nil && !IsTransient(err) {
				return out, backoff.Permanent(err)
			}
			return out, err
		},
		backoff.WithContext(p.backOff(), ctx),
		func(err error, delay time.Duration) {
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Transient failure, retrying")
		},
	)
}

func (p Policy) backOff() backoff.BackOff {
	if p.Attempts <= 1 {
		return &backoff.StopBackOff{}
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = time.Duration(math.MaxInt64)
	exp.MaxElapsedTime = 0
	return backoff.WithMaxRetries(exp, uint64(p.Attempts-1))
}
