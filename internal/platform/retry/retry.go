package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
)

// Do runs fn until it succeeds, attempts are exhausted or ctx is done,
// sleeping with jittered exponential backoff in between.
func Do(ctx context.Context, log zerolog.Logger, what string, attempts int, fn func(ctx context.Context) error) error {
	b := &backoff.Backoff{
		Min:    200 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		wait := b.Duration()
		log.Warn().Err(err).Str("target", what).Int("attempt", i+1).Dur("retry_in", wait).Msg("Connection attempt failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", what, attempts, err)
}
