package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often a conflicting transaction is re-run.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// OnConflict is called after each conflicting attempt, before the wait.
	OnConflict func(attempt int, err error)
}

// DefaultRetryPolicy allows five attempts with a short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
	}
}

// RunWithRetry runs fn in a transaction and re-runs the whole function when
// the commit reports ErrConflict. Any other error is returned immediately.
// When attempts are exhausted the last conflict is returned, still matching
// ErrConflict.
func RunWithRetry(ctx context.Context, s Store, p RetryPolicy, fn TxFunc) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		err := s.RunTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, _ time.Duration) {
		if p.OnConflict != nil {
			p.OnConflict(attempt, err)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1)), ctx)
	err := backoff.RetryNotify(op, policy, notify)
	if err != nil && errors.Is(err, ErrConflict) {
		return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
	}
	return err
}
