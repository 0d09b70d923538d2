// Package ratelimit enforces the fixed inter-call delay that keeps the
// aggregate TMDB request rate under the provider ceiling.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Governor is a fixed-interval throttle: burst is pinned to 1 so calls are
// spaced at least 1/rps apart with no burst allowance. A 429 cooldown in
// the fetcher supersedes this delay for that one call.
type Governor struct {
	limiter *rate.Limiter
}

// New builds a Governor targeting rps requests per second. A non-positive
// rps disables throttling.
func New(rps float64) *Governor {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Governor{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the inter-call interval has elapsed since the previous
// call, or the context ends.
func (g *Governor) Wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
