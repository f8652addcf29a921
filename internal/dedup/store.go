package dedup

import (
	"context"
	"time"
)

// Outcome is the result of an atomic check-and-record attempt
type Outcome string

const (
	Accepted    Outcome = "accepted"
	Duplicate   Outcome = "duplicate"
	Cooldown    Outcome = "cooldown"
	RateLimited Outcome = "rate_limited"
)

// Candidate identifies a signal attempting to enter history
type Candidate struct {
	Symbol          string
	OpportunityType string
	BarTimeKey      string
	Timestamp       time.Time
}

// Config holds the dedup window parameters
type Config struct {
	Cooldown   time.Duration // min spacing between same symbol+type
	MaxPerHour int           // per-symbol trailing-hour cap
	Retention  time.Duration // how long history entries are kept
}

// DefaultConfig returns the standard dedup windows
func DefaultConfig() Config {
	return Config{
		Cooldown:   15 * time.Minute,
		MaxPerHour: 3,
		Retention:  2 * time.Hour,
	}
}

// HistoryStore tracks recently emitted signals per symbol. CheckAndRecord
// is atomic per symbol: two concurrent evaluations for the same symbol
// cannot both pass the cooldown check. All windows are measured against
// the candidate's own timestamp, not wall clock, so historical replays
// behave deterministically.
type HistoryStore interface {
	CheckAndRecord(ctx context.Context, cand Candidate) (Outcome, error)
	Count(ctx context.Context, symbol string) (int, error)
}
