package data

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheBars() []Bar {
	return []Bar{{
		Symbol:    "BTCUSDT",
		Timeframe: "1d",
		OpenTime:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Open:      100,
		High:      101,
		Low:       99,
		Close:     100.5,
		Volume:    1234,
	}}
}

func TestBarCacheMissThenPut(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewBarCache(db, time.Minute)
	key := barKey("BTCUSDT", "1d", 200)

	mock.ExpectGet(key).RedisNil()
	_, ok := cache.GetBars(context.Background(), "BTCUSDT", "1d", 200)
	assert.False(t, ok)

	raw, err := json.Marshal(cacheBars())
	require.NoError(t, err)
	mock.ExpectSet(key, raw, time.Minute).SetVal("OK")
	require.NoError(t, cache.PutBars(context.Background(), "BTCUSDT", "1d", 200, cacheBars()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBarCacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewBarCache(db, time.Minute)
	key := barKey("BTCUSDT", "1d", 200)

	raw, err := json.Marshal(cacheBars())
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(raw))

	bars, ok := cache.GetBars(context.Background(), "BTCUSDT", "1d", 200)
	require.True(t, ok)
	require.Len(t, bars, 1)
	assert.Equal(t, "BTCUSDT", bars[0].Symbol)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBarCacheErrorsAreMisses(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewBarCache(db, time.Minute)
	key := barKey("BTCUSDT", "1d", 200)

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	_, ok := cache.GetBars(context.Background(), "BTCUSDT", "1d", 200)
	assert.False(t, ok)

	mock.ExpectGet(key).SetVal("{not json")
	_, ok = cache.GetBars(context.Background(), "BTCUSDT", "1d", 200)
	assert.False(t, ok)
}

func TestBarCacheDefaultTTL(t *testing.T) {
	db, _ := redismock.NewClientMock()
	cache := NewBarCache(db, 0)
	assert.Equal(t, 5*time.Minute, cache.ttl)
}
