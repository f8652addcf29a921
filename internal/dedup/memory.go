package dedup

import (
	"context"
	"sync"
	"time"
)

type historyEntry struct {
	opportunityType string
	barTimeKey      string
	timestamp       time.Time
}

type symbolHistory struct {
	mu      sync.Mutex
	entries []historyEntry
	keys    map[string]struct{}
}

// MemoryStore is the in-process history store. State lives for the
// process lifetime and is pruned on a rolling window as candidates
// arrive.
type MemoryStore struct {
	mu      sync.Mutex
	cfg     Config
	symbols map[string]*symbolHistory
}

// NewMemoryStore creates an in-memory history store
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		cfg:     cfg,
		symbols: make(map[string]*symbolHistory),
	}
}

func (m *MemoryStore) symbol(symbol string) *symbolHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.symbols[symbol]
	if !ok {
		h = &symbolHistory{keys: make(map[string]struct{})}
		m.symbols[symbol] = h
	}
	return h
}

// CheckAndRecord runs the three dedup checks under the symbol's lock and
// appends the candidate only if all of them pass.
func (m *MemoryStore) CheckAndRecord(_ context.Context, cand Candidate) (Outcome, error) {
	h := m.symbol(cand.Symbol)
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pruneLocked(cand.Timestamp, m.cfg.Retention)

	// Exact idempotency
	if _, seen := h.keys[cand.BarTimeKey]; seen {
		return Duplicate, nil
	}

	// Cooldown: same symbol and same opportunity type within the window
	// of the candidate's timestamp
	for i := len(h.entries) - 1; i >= 0; i-- {
		e := h.entries[i]
		if e.opportunityType != cand.OpportunityType {
			continue
		}
		if absDuration(cand.Timestamp.Sub(e.timestamp)) < m.cfg.Cooldown {
			return Cooldown, nil
		}
	}

	// Trailing-hour rate limit for the symbol
	windowStart := cand.Timestamp.Add(-time.Hour)
	count := 0
	for _, e := range h.entries {
		if e.timestamp.After(windowStart) && !e.timestamp.After(cand.Timestamp) {
			count++
		}
	}
	if count >= m.cfg.MaxPerHour {
		return RateLimited, nil
	}

	// Acceptance records as a side effect, never before
	h.entries = append(h.entries, historyEntry{
		opportunityType: cand.OpportunityType,
		barTimeKey:      cand.BarTimeKey,
		timestamp:       cand.Timestamp,
	})
	h.keys[cand.BarTimeKey] = struct{}{}
	return Accepted, nil
}

// Count returns the number of retained history entries for a symbol
func (m *MemoryStore) Count(_ context.Context, symbol string) (int, error) {
	h := m.symbol(symbol)
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries), nil
}

// pruneLocked drops entries older than the retention window relative to
// the reference timestamp. Caller holds the symbol lock.
func (h *symbolHistory) pruneLocked(ref time.Time, retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := ref.Add(-retention)
	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.timestamp.After(cutoff) {
			kept = append(kept, e)
		} else {
			delete(h.keys, e.barTimeKey)
		}
	}
	h.entries = kept
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
