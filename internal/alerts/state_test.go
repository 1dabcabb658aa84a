package alerts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	state, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Empty(t, state.Symbols)
	assert.Empty(t, state.GlobalRegime)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	state, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Empty(t, state.Symbols)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStore(path)

	state := NewState()
	state.GlobalRegime = "bull"
	state.RecordAlert("BTCUSDT", 72.5, time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(state))

	// The temp file must not survive the rename.
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "bull", loaded.GlobalRegime)

	rec, ok := loaded.LastAlert("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 72.5, rec.LastCS)
	assert.Equal(t, "2026-08-24T12:00:00Z", rec.LastTS)
}

func TestFilterWithStateCooldown(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	state := NewState()
	// Alerted 30 minutes ago; cooldown blocks even a big improvement.
	state.RecordAlert("BTCUSDT", 60.0, now.Add(-30*time.Minute))

	events := []Event{NewEvent("BTCUSDT", ReasonHighConfluence, "m", 90.0, nil, "bull", now)}
	kept, suppressed := FilterWithState(events, state, time.Hour, 3.0, now)
	assert.Empty(t, kept)
	assert.Equal(t, 1, suppressed)

	// The suppressed event must not refresh the dedup record.
	rec, _ := state.LastAlert("BTCUSDT")
	assert.Equal(t, 60.0, rec.LastCS)
}

func TestFilterWithStateDelta(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	state := NewState()
	state.RecordAlert("BTCUSDT", 60.0, now.Add(-2*time.Hour))

	// Cooldown has passed but the score only improved by 2.9.
	tooSmall := []Event{NewEvent("BTCUSDT", ReasonHighConfluence, "m", 62.9, nil, "bull", now)}
	kept, suppressed := FilterWithState(tooSmall, state, time.Hour, 3.0, now)
	assert.Empty(t, kept)
	assert.Equal(t, 1, suppressed)

	passing := []Event{NewEvent("BTCUSDT", ReasonHighConfluence, "m", 63.0, nil, "bull", now)}
	kept, suppressed = FilterWithState(passing, state, time.Hour, 3.0, now)
	require.Len(t, kept, 1)
	assert.Zero(t, suppressed)

	rec, _ := state.LastAlert("BTCUSDT")
	assert.Equal(t, 63.0, rec.LastCS)
	assert.Equal(t, now.Format(TimestampLayout), rec.LastTS)
}

func TestFilterWithStateFirstAlertPasses(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	state := NewState()

	events := []Event{NewEvent("ETHUSDT", ReasonVolumeSpike, "m", 55.0, nil, "sideways", now)}
	kept, suppressed := FilterWithState(events, state, time.Hour, 3.0, now)
	require.Len(t, kept, 1)
	assert.Zero(t, suppressed)

	// A second event for the same symbol in the same batch hits the
	// freshly recorded state.
	again, suppressed := FilterWithState(events, state, time.Hour, 3.0, now)
	assert.Empty(t, again)
	assert.Equal(t, 1, suppressed)
}

func TestFilterWithStateGlobalPassthrough(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	state := NewState()
	state.RecordAlert(GlobalSymbol, 0.0, now.Add(-time.Minute))

	evt := NewEvent(GlobalSymbol, ReasonRegimeChange, "m", 0.0, nil, "bear", now)
	kept, suppressed := FilterWithState([]Event{evt}, state, time.Hour, 3.0, now)
	require.Len(t, kept, 1)
	assert.Zero(t, suppressed)
	assert.True(t, kept[0].IsGlobal())
}

func TestDivergenceReason(t *testing.T) {
	assert.Equal(t, "RSI_BULLISH_DIVERGENCE_4h", DivergenceReason("bullish", "4h"))
	assert.Equal(t, "RSI_BEARISH_DIVERGENCE_1d", DivergenceReason("bearish", "1d"))
}
