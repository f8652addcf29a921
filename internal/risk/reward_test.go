package risk

import (
	"math"
	"testing"
	"time"

	"trading-signal-scanner/internal/market"
	"trading-signal-scanner/internal/scoring"
)

func snapshotWithATR() *market.FeatureSnapshot {
	return &market.FeatureSnapshot{
		Symbol:    "AAPL",
		Timestamp: time.Date(2025, 3, 4, 14, 55, 0, 0, time.UTC),
		Price:     100.8,
		Timeframes: map[string]market.IndicatorBundle{
			"1m":  {ATR: 0.15},
			"5m":  {ATR: 0.5},
			"15m": {ATR: 0.9},
			"1h":  {ATR: 1.4},
		},
	}
}

func TestScalpLongLevels(t *testing.T) {
	c := NewCalculator()
	levels, err := c.Compute(snapshotWithATR(), market.DirectionLong, scoring.StyleScalp)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// 1m ATR 0.15, stop at 0.5 ATR, targets at 0.75/1.5/2.25 ATR
	wantStop := 100.8 - 0.075
	if !almost(levels.Stop, wantStop) {
		t.Errorf("stop = %.4f, want %.4f", levels.Stop, wantStop)
	}
	wantT2 := 100.8 + 0.225
	if !almost(levels.Targets[1], wantT2) {
		t.Errorf("target2 = %.4f, want %.4f", levels.Targets[1], wantT2)
	}
	// Reward measured at the second target: 1.5 ATR / 0.5 ATR
	if !almost(levels.RiskReward, 3.0) {
		t.Errorf("risk/reward = %.4f, want 3.0", levels.RiskReward)
	}
	if levels.Timeframe != "1m" {
		t.Errorf("timeframe = %s, want 1m", levels.Timeframe)
	}
}

func TestShortDirectionMirrors(t *testing.T) {
	c := NewCalculator()
	long, _ := c.Compute(snapshotWithATR(), market.DirectionLong, scoring.StyleDay)
	short, err := c.Compute(snapshotWithATR(), market.DirectionShort, scoring.StyleDay)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if short.Stop <= short.Entry {
		t.Errorf("short stop %.4f must sit above entry %.4f", short.Stop, short.Entry)
	}
	for i := range short.Targets {
		if short.Targets[i] >= short.Entry {
			t.Errorf("short target%d %.4f must sit below entry %.4f", i+1, short.Targets[i], short.Entry)
		}
	}
	if !almost(short.RiskReward, long.RiskReward) {
		t.Errorf("short rr %.4f differs from long rr %.4f", short.RiskReward, long.RiskReward)
	}
}

func TestATRFloorGuardsRatio(t *testing.T) {
	c := NewCalculator()
	snap := snapshotWithATR()
	snap.Timeframes["1m"] = market.IndicatorBundle{ATR: 0.001} // near-zero

	levels, err := c.Compute(snap, market.DirectionLong, scoring.StyleScalp)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// Scalp floor is 0.05% of price
	wantATR := 100.8 * 0.0005
	if !almost(levels.ATRUsed, wantATR) {
		t.Errorf("ATRUsed = %.5f, want floor %.5f", levels.ATRUsed, wantATR)
	}
	if levels.RiskReward <= 0 || math.IsInf(levels.RiskReward, 0) || math.IsNaN(levels.RiskReward) {
		t.Errorf("risk/reward = %v, want finite positive", levels.RiskReward)
	}
}

func TestMissingATRIsError(t *testing.T) {
	c := NewCalculator()
	snap := &market.FeatureSnapshot{
		Symbol:     "AAPL",
		Price:      100.8,
		Timeframes: map[string]market.IndicatorBundle{},
	}
	if _, err := c.Compute(snap, market.DirectionLong, scoring.StyleSwing); err == nil {
		t.Error("expected error when no ATR exists on primary or fallback timeframe")
	}
}

func TestSwingFallsBackTo15m(t *testing.T) {
	c := NewCalculator()
	snap := snapshotWithATR()
	delete(snap.Timeframes, "1h")

	levels, err := c.Compute(snap, market.DirectionLong, scoring.StyleSwing)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !almost(levels.ATRUsed, 0.9) {
		t.Errorf("ATRUsed = %.4f, want 15m fallback 0.9", levels.ATRUsed)
	}
	if levels.Timeframe != "15m" {
		t.Errorf("timeframe = %s, want the 15m fallback reported, not the primary", levels.Timeframe)
	}
}

func TestProfileRiskRewardAtTargetTwo(t *testing.T) {
	// Every profile prices target two at 3x the stop distance
	for _, style := range []scoring.Style{scoring.StyleScalp, scoring.StyleDay, scoring.StyleSwing} {
		p := DefaultProfile(style)
		ratio := p.TargetATRMultiple[1] / p.StopATRMultiple
		if !almost(ratio, 3.0) {
			t.Errorf("%s target2/stop = %.2f, want 3.0", style, ratio)
		}
	}
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
