// Package retry wraps store calls in a bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Policy bounds how often and how long an operation is retried.
type Policy struct {
	// Attempts counts calls to fn including the first. Values below 1 mean one call.
	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy suits single-key store writes on the request path.
func DefaultPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, InitialInterval: 50 * time.Millisecond, MaxInterval: 500 * time.Millisecond}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn until it succeeds, returns a permanent error, the attempts are
// exhausted, or ctx is done. The last error is returned unwrapped.
func Do(ctx context.Context, logger *zap.Logger, name string, policy Policy, fn func(context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}
	b.MaxElapsedTime = 0

	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	err := backoff.RetryNotify(
		func() error {
			err := fn(ctx)
			var perm *permanentError
			if errors.As(err, &perm) {
				return backoff.Permanent(perm.err)
			}
			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx),
		func(err error, next time.Duration) {
			logger.Warn("retrying store operation", zap.String("operation", name), zap.Duration("next", next), zap.Error(err))
		},
	)
	return err
}
