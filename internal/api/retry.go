package api

import (
	"context"
	"fmt"
	"time"

	apierrors "github.com/diogo/chatpanel/internal/errors"
	"github.com/diogo/chatpanel/internal/models"
)

// RetryPolicy bounds the send loop. Attempt n (0-based) that fails with a
// retryable error is followed by a wait of BaseDelay*(n+1).
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy returns 3 retries with a 1s linear backoff base
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: models.DefaultMaxRetries,
		BaseDelay:  models.DefaultRetryDelayMs * time.Millisecond,
	}
}

// Delay returns the wait after the given failed attempt
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt+1)
}

// MaxAttempts returns the total number of requests a send may issue
func (p RetryPolicy) MaxAttempts() int {
	return p.MaxRetries + 1
}

// Sleeper waits between attempts
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// ContextSleeper waits on a timer and returns early if ctx is done
type ContextSleeper struct{}

// Sleep waits for d or until ctx is done
func (ContextSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Send posts message and retries retryable failures sequentially.
// Only one attempt is outstanding at a time. A rate limit is returned
// immediately; when retries run out the last error is returned.
func (c *Client) Send(ctx context.Context, message string) (*models.ChatResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.post(ctx, message, attempt)
		if err == nil {
			return resp, nil
		}

		if !apierrors.IsRetryable(err) || ctx.Err() != nil {
			c.log.Info().Err(err).Int("attempt", attempt).Msg("chat request failed permanently")
			return nil, err
		}

		if attempt >= c.policy.MaxRetries {
			c.log.Warn().Err(err).Int("attempts", attempt+1).Msg("chat request retries exhausted")
			return nil, err
		}

		delay := c.policy.Delay(attempt)
		c.log.Warn().Err(err).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("chat request failed, retrying")

		if sleepErr := c.sleeper.Sleep(ctx, delay); sleepErr != nil {
			return nil, fmt.Errorf("retry aborted after attempt %d: %w", attempt+1, sleepErr)
		}
	}
}
