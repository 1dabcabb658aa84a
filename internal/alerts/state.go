package alerts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// TimestampLayout is the on-disk timestamp format, always UTC.
const TimestampLayout = "2006-01-02T15:04:05Z"

// SymbolState is the per-symbol dedup record.
type SymbolState struct {
	LastCS float64 `json:"last_cs"`
	LastTS string  `json:"last_ts"`
}

// State is the full persisted alert state: per-symbol dedup records plus
// the last observed global regime.
type State struct {
	Symbols      map[string]SymbolState `json:"symbols"`
	GlobalRegime string                 `json:"global_regime,omitempty"`
}

// NewState returns an empty state ready for use.
func NewState() *State {
	return &State{Symbols: make(map[string]SymbolState)}
}

// LastAlert returns the dedup record for a symbol.
func (s *State) LastAlert(symbol string) (SymbolState, bool) {
	rec, ok := s.Symbols[symbol]
	return rec, ok
}

// RecordAlert updates the dedup record after an event passed the filters.
func (s *State) RecordAlert(symbol string, cs float64, at time.Time) {
	if s.Symbols == nil {
		s.Symbols = make(map[string]SymbolState)
	}
	s.Symbols[symbol] = SymbolState{
		LastCS: cs,
		LastTS: at.UTC().Format(TimestampLayout),
	}
}

// Store loads and persists alert state. The state is loaded once per
// scan, mutated in place while events pass the filters, and saved once
// at the end.
type Store interface {
	Load() (*State, error)
	Save(*State) error
}

// FileStore keeps the alert state in a single JSON file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the state file. A missing or corrupt file yields a fresh
// empty state, never an error: losing dedup history is acceptable,
// blocking the scan is not.
func (fs *FileStore) Load() (*State, error) {
	raw, err := os.ReadFile(fs.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", fs.Path).Msg("alert state unreadable, starting fresh")
		}
		return NewState(), nil
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		log.Warn().Err(err).Str("path", fs.Path).Msg("alert state corrupt, starting fresh")
		return NewState(), nil
	}
	if state.Symbols == nil {
		state.Symbols = make(map[string]SymbolState)
	}
	return &state, nil
}

// Save writes the state atomically: marshal to a sibling temp file, then
// rename over the real path.
func (fs *FileStore) Save(state *State) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(fs.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := fs.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, fs.Path)
}

// FilterWithState drops symbol-level events that are still on cooldown
// or whose confluence score has not improved enough since the last alert
// for that symbol, and records the survivors in the state. Global events
// pass through untouched. The second return is the number of events
// suppressed, for the metrics layer.
func FilterWithState(events []Event, state *State, cooldown time.Duration, minCSDelta float64, now time.Time) ([]Event, int) {
	kept := make([]Event, 0, len(events))
	suppressed := 0
	for _, evt := range events {
		if evt.IsGlobal() {
			kept = append(kept, evt)
			continue
		}

		prev, hasPrev := state.LastAlert(evt.Symbol)
		if hasPrev {
			if lastTS, err := time.Parse(TimestampLayout, prev.LastTS); err == nil {
				if now.Sub(lastTS) < cooldown {
					log.Debug().
						Str("symbol", evt.Symbol).
						Str("reason", evt.Reason).
						Msg("alert suppressed: cooldown active")
					suppressed++
					continue
				}
			}
			if evt.ConfluenceScore < prev.LastCS+minCSDelta {
				log.Debug().
					Str("symbol", evt.Symbol).
					Str("reason", evt.Reason).
					Float64("last_cs", prev.LastCS).
					Float64("cs", evt.ConfluenceScore).
					Msg("alert suppressed: confluence not improved enough")
				suppressed++
				continue
			}
		}

		kept = append(kept, evt)
		state.RecordAlert(evt.Symbol, evt.ConfluenceScore, now)
	}
	return kept, suppressed
}
