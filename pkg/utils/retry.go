package utils

import (
	"context"
	"math/rand"
	"time"

	"github.com/avast/retry-go/v5"
)

// RetryConfig bounds the retry loop applied at the data-access boundary.
// Defaults are deliberately small: three attempts, capped exponential delay.
type RetryConfig struct {
	Attempts  uint
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	out := c
	if out.Attempts == 0 {
		out.Attempts = 3
	}
	if out.BaseDelay <= 0 {
		out.BaseDelay = 100 * time.Millisecond
	}
	if out.MaxDelay <= 0 {
		out.MaxDelay = 2 * time.Second
	}
	return out
}

// RetryRead runs fn with bounded exponential backoff plus jitter.
//
// Only idempotent operations (reads) may go through this helper. Writes are
// never retried blindly; operations needing retry safety must carry their own
// idempotency check (see trash recovery's uniqueness check).
//
// Retries stop early when ctx is canceled or when fn reports a permanent
// error via Unrecoverable.
func RetryRead(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(cfg.Attempts),
		retry.Delay(cfg.BaseDelay),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			d := retry.BackOffDelay(n, err, config)
			if d > cfg.MaxDelay {
				d = cfg.MaxDelay
			}
			// Full delays synchronize retry storms; add up to one base delay of jitter.
			return d + time.Duration(rand.Int63n(int64(cfg.BaseDelay)+1))
		}),
		retry.LastErrorOnly(true),
	)

	return r.Do(func() error { return fn(ctx) })
}

// Unrecoverable marks an error as permanent so RetryRead stops immediately.
// Use it for classification results (not found, invalid argument) that a
// retry can never fix.
func Unrecoverable(err error) error {
	return retry.Unrecoverable(err)
}
