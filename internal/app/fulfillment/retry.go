package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"cloud-restaurant/internal/domain"
)

// RetryPolicy bounds the attempts of an Invoke step.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
	}
}

func normalizeRetryPolicy(p RetryPolicy) RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialInterval == 0 {
		p.InitialInterval = 500 * time.Millisecond
	}
	if p.MaxInterval == 0 {
		p.MaxInterval = 5 * time.Second
	}
	if p.Multiplier == 0 {
		p.Multiplier = 2
	}
	return p
}

// doWithRetry runs fn up to MaxAttempts times with exponential backoff.
// Permanent failures and context cancellation stop the retries early.
func doWithRetry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	p = normalizeRetryPolicy(p)

	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.InitialInterval = p.InitialInterval
	backoffCfg.MaxInterval = p.MaxInterval
	backoffCfg.Multiplier = p.Multiplier
	backoffCfg.MaxElapsedTime = 0

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, domain.ErrPaymentDeclined) {
			return err
		}
		if attempt >= p.MaxAttempts {
			return err
		}

		wait := backoffCfg.NextBackOff()
		if wait == backoff.Stop {
			return err
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return ctx.Err()
		case <-timer.C:
		}
	}
}
