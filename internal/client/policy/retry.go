// internal/client/policy/retry.go

package policy

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Retry re-runs a failing operation with exponential backoff
type Retry struct {
	Attempts   int
	BaseDelay  time.Duration
	Multiplier float64
	Log        zerolog.Logger
}

// Do runs op up to Attempts times. The last error is returned when every
// attempt failed. Cancelling ctx stops further attempts.
func (r Retry) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.BaseDelay
	b.Multiplier = r.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 0
	b.Reset()

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		r.Log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("retrying request")
	}

	return backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx),
		notify,
	)
}
