package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// withRetry calls connect until it succeeds, attempts run out or ctx ends.
// The delay doubles after each failure.
func withRetry(ctx context.Context, attempts int, delay time.Duration, log zerolog.Logger, target string, connect func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = delay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = delay << 10
	exp.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		return connect(ctx)
	}
	notify := func(err error, next time.Duration) {
		log.Warn().
			Err(err).
			Str("target", target).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("Connection failed, retrying")
	}

	return backoff.RetryNotify(operation, b, notify)
}
