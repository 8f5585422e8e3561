package report

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// Backoff bounds the retries of one scheduled run.
type Backoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Delay doubles BaseDelay per attempt up to MaxDelay and applies 50-100%
// jitter to the upper quarter.
func (b Backoff) Delay(attempt int) time.Duration {
	delay := b.BaseDelay
	for i := 0; i < attempt && delay < b.MaxDelay; i++ {
		delay *= 2
	}
	if delay > b.MaxDelay {
		delay = b.MaxDelay
	}
	jitter := time.Duration(float64(delay) * 0.25 * (0.5 + rand.Float64()*0.5))
	return time.Duration(float64(delay)*0.75) + jitter
}

// Retry calls fn until it succeeds, MaxRetries retries are spent, or ctx ends.
func Retry(ctx context.Context, b Backoff, logger zerolog.Logger, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= b.MaxRetries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		logger.Warn().Err(err).Int("attempt", attempt+1).Msg("report run failed")
		if attempt == b.MaxRetries {
			break
		}
		select {
		case <-time.After(b.Delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("report failed after %d attempts: %w", b.MaxRetries+1, err)
}

// Every runs fn immediately and then on each tick, each run wrapped in Retry.
// Exhausted runs are logged at error level and the schedule continues. It
// returns when ctx is cancelled.
func Every(ctx context.Context, interval time.Duration, b Backoff, logger zerolog.Logger, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := Retry(ctx, b, logger, fn); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error().Err(err).Msg("scheduled report gave up")
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			logger.Info().Msg("report schedule stopping")
			return nil
		}
	}
}
