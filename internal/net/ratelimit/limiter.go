// Package ratelimit provides per-endpoint token-bucket limiting for the
// exchange REST client.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per endpoint so a hot path (klines)
// cannot starve the occasional one (exchange info, funding).
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewLimiter builds a limiter with the given per-endpoint rate and burst.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (l *Limiter) get(endpoint string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[endpoint]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[endpoint]; ok {
		return lim
	}
	lim = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[endpoint] = lim
	return lim
}

// Wait blocks until a request to the endpoint is allowed or the context
// is cancelled.
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	return l.get(endpoint).Wait(ctx)
}

// Allow reports whether a request to the endpoint may proceed right now.
func (l *Limiter) Allow(endpoint string) bool {
	return l.get(endpoint).Allow()
}

// Tokens returns the tokens currently available for an endpoint, for
// diagnostics.
func (l *Limiter) Tokens(endpoint string) float64 {
	return l.get(endpoint).Tokens()
}
