package dedup

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

var base = time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)

func candidate(symbol, oppType string, ts time.Time) Candidate {
	return Candidate{
		Symbol:          symbol,
		OpportunityType: oppType,
		BarTimeKey:      fmt.Sprintf("%d-%s-%s", ts.Truncate(time.Minute).Unix(), symbol, oppType),
		Timestamp:       ts,
	}
}

func TestDuplicateBarTimeKey(t *testing.T) {
	s := NewMemoryStore(DefaultConfig())
	ctx := context.Background()

	out, err := s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base))
	if err != nil || out != Accepted {
		t.Fatalf("first = %s, %v; want accepted", out, err)
	}

	// Same bar, same symbol, same type: exact duplicate
	out, _ = s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base.Add(20*time.Second)))
	if out != Duplicate {
		t.Errorf("same-bar resubmit = %s, want duplicate", out)
	}
}

func TestCooldownWindow(t *testing.T) {
	s := NewMemoryStore(DefaultConfig())
	ctx := context.Background()

	if out, _ := s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base)); out != Accepted {
		t.Fatalf("seed = %s, want accepted", out)
	}

	// Next bar, still inside the 15 minute cooldown
	out, _ := s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base.Add(5*time.Minute)))
	if out != Cooldown {
		t.Errorf("T+5m same type = %s, want cooldown", out)
	}

	// Different type is not subject to the cooldown
	out, _ = s.CheckAndRecord(ctx, candidate("AAPL", "vwap_reclaim", base.Add(5*time.Minute)))
	if out != Accepted {
		t.Errorf("T+5m different type = %s, want accepted", out)
	}

	// Past the window the same type is fine again
	out, _ = s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base.Add(16*time.Minute)))
	if out != Accepted {
		t.Errorf("T+16m same type = %s, want accepted", out)
	}
}

func TestCooldownIsSymmetric(t *testing.T) {
	s := NewMemoryStore(DefaultConfig())
	ctx := context.Background()

	if out, _ := s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base)); out != Accepted {
		t.Fatal("seed not accepted")
	}

	// Replays may evaluate bars out of order; an earlier candidate inside
	// the window still cools down
	out, _ := s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base.Add(-5*time.Minute)))
	if out != Cooldown {
		t.Errorf("T-5m same type = %s, want cooldown", out)
	}
}

func TestTrailingHourRateLimit(t *testing.T) {
	s := NewMemoryStore(DefaultConfig())
	ctx := context.Background()

	types := []string{"momentum_breakout", "vwap_reclaim", "trend_pullback", "gamma_squeeze"}
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * 16 * time.Minute)
		if out, _ := s.CheckAndRecord(ctx, candidate("AAPL", types[i], ts)); out != Accepted {
			t.Fatalf("signal %d not accepted: %s", i, out)
		}
	}

	// Fourth within the trailing hour trips the limit
	out, _ := s.CheckAndRecord(ctx, candidate("AAPL", types[3], base.Add(48*time.Minute)))
	if out != RateLimited {
		t.Errorf("fourth in hour = %s, want rate_limited", out)
	}

	// Other symbols are independent
	out, _ = s.CheckAndRecord(ctx, candidate("TSLA", types[3], base.Add(48*time.Minute)))
	if out != Accepted {
		t.Errorf("other symbol = %s, want accepted", out)
	}

	// Once the earliest entry ages out of the trailing hour, room opens up
	out, _ = s.CheckAndRecord(ctx, candidate("AAPL", types[3], base.Add(70*time.Minute)))
	if out != Accepted {
		t.Errorf("after window slide = %s, want accepted", out)
	}
}

func TestRejectionDoesNotRecord(t *testing.T) {
	s := NewMemoryStore(DefaultConfig())
	ctx := context.Background()

	s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base))
	// Cooldown rejections must not count toward the rate limit
	for i := 0; i < 10; i++ {
		s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base.Add(time.Duration(i+1)*time.Minute)))
	}

	n, err := s.Count(ctx, "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("history holds %d entries, want 1: rejections must not record", n)
	}
}

func TestRetentionPrunes(t *testing.T) {
	s := NewMemoryStore(Config{Cooldown: 15 * time.Minute, MaxPerHour: 3, Retention: 2 * time.Hour})
	ctx := context.Background()

	s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base))

	// Far in the future the old entry is pruned; the same barTimeKey can
	// then recur, matching the retention contract
	out, _ := s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", base.Add(3*time.Hour)))
	if out != Accepted {
		t.Fatalf("post-retention = %s, want accepted", out)
	}
	n, _ := s.Count(ctx, "AAPL")
	if n != 1 {
		t.Errorf("history holds %d entries, want 1 after pruning", n)
	}
}

func TestConcurrentSameSymbolOnlyOneWins(t *testing.T) {
	s := NewMemoryStore(DefaultConfig())
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	outcomes := make([]Outcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Distinct bars inside one cooldown window
			ts := base.Add(time.Duration(i) * time.Minute)
			out, _ := s.CheckAndRecord(ctx, candidate("AAPL", "momentum_breakout", ts))
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, out := range outcomes {
		if out == Accepted {
			accepted++
		}
	}
	// 32 minutes of bars under a 15 minute cooldown admits at most 3
	if accepted < 1 || accepted > 3 {
		t.Errorf("%d accepted, want between 1 and 3", accepted)
	}
}
