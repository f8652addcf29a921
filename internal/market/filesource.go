package market

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// SnapshotRecord pairs a feature snapshot with its optional options chain
// in the snapshot file format.
type SnapshotRecord struct {
	Snapshot FeatureSnapshot       `json:"snapshot"`
	Chain    *OptionsChainSnapshot `json:"chain,omitempty"`
}

// FileSource serves snapshots loaded from a JSON file. It backs the scan
// loop when no live feed is wired and the replay tool.
type FileSource struct {
	mu      sync.RWMutex
	records map[string]SnapshotRecord
	order   []string
}

// LoadSnapshotFile parses a JSON array of snapshot records
func LoadSnapshotFile(path string) ([]SnapshotRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot file %s: %w", path, err)
	}
	var records []SnapshotRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("error parsing snapshot file %s: %w", path, err)
	}
	return records, nil
}

// NewFileSource creates a source from a snapshot file. Later records for
// the same symbol replace earlier ones.
func NewFileSource(path string) (*FileSource, error) {
	records, err := LoadSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	fs := &FileSource{records: make(map[string]SnapshotRecord)}
	for _, rec := range records {
		if _, seen := fs.records[rec.Snapshot.Symbol]; !seen {
			fs.order = append(fs.order, rec.Snapshot.Symbol)
		}
		fs.records[rec.Snapshot.Symbol] = rec
	}
	return fs, nil
}

// Symbols returns the loaded symbol universe in file order
func (f *FileSource) Symbols(ctx context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out, nil
}

// Snapshot returns the current record for a symbol
func (f *FileSource) Snapshot(ctx context.Context, symbol string) (*FeatureSnapshot, *OptionsChainSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	rec, ok := f.records[symbol]
	if !ok {
		return nil, nil, fmt.Errorf("no snapshot loaded for %s", symbol)
	}
	snap := rec.Snapshot
	return &snap, rec.Chain, nil
}

// Update replaces the record for a symbol, for feeds that push into the
// source between cycles.
func (f *FileSource) Update(rec SnapshotRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.records[rec.Snapshot.Symbol]; !seen {
		f.order = append(f.order, rec.Snapshot.Symbol)
	}
	f.records[rec.Snapshot.Symbol] = rec
}
