package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedCompleter paces calls to another Completer with a token bucket
type RateLimitedCompleter struct {
	next    Completer
	limiter *rate.Limiter
}

// NewRateLimitedCompleter allows one request per interval with a burst of one.
// A non-positive interval disables pacing.
func NewRateLimitedCompleter(next Completer, interval time.Duration) *RateLimitedCompleter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimitedCompleter{next: next, limiter: rate.NewLimiter(limit, 1)}
}

// Complete implements Completer
func (c *RateLimitedCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, req)
}
