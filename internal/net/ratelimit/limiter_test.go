package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterBurstExhaustion(t *testing.T) {
	l := NewLimiter(1, 2)

	assert.True(t, l.Allow("klines"))
	assert.True(t, l.Allow("klines"))
	assert.False(t, l.Allow("klines"))
}

func TestLimiterIsolatesEndpoints(t *testing.T) {
	l := NewLimiter(1, 1)

	assert.True(t, l.Allow("klines"))
	assert.False(t, l.Allow("klines"))
	// A different endpoint has its own bucket.
	assert.True(t, l.Allow("exchangeInfo"))
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	require.NoError(t, l.Wait(context.Background(), "klines"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "klines"))
}

func TestLimiterTokens(t *testing.T) {
	l := NewLimiter(5, 10)
	assert.InDelta(t, 10.0, l.Tokens("klines"), 0.1)
	l.Allow("klines")
	assert.Less(t, l.Tokens("klines"), 10.0)
}
