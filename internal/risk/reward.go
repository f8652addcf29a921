package risk

import (
	"fmt"
	"math"

	"trading-signal-scanner/internal/market"
	"trading-signal-scanner/internal/scoring"
)

// Levels is the derived entry/stop/target set for a candidate signal.
// RiskReward is measured against the second target as the representative
// reward, strictly positive for any emitted signal.
type Levels struct {
	Entry      float64    `json:"entry"`
	Stop       float64    `json:"stop"`
	Targets    [3]float64 `json:"targets"`
	RiskReward float64    `json:"risk_reward"`
	ATRUsed    float64    `json:"atr_used"`
	Timeframe  string     `json:"timeframe"`
}

// Calculator derives stop/target levels from direction, ATR, and the
// style risk profile.
type Calculator struct{}

// NewCalculator creates a risk/reward calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute builds the level set for an entry at the snapshot price. The
// ATR comes from the style's primary timeframe, falling back to the
// faster one; both absent is a hard error since the confidence gate
// should have filtered such snapshots already.
func (c *Calculator) Compute(snap *market.FeatureSnapshot, direction market.Direction, style scoring.Style) (Levels, error) {
	profile := DefaultProfile(style)

	bundle, timeframe, ok := snap.Indicators(profile.PrimaryTimeframe, profile.FallbackTimeframe)
	if !ok {
		return Levels{}, fmt.Errorf("no ATR available for %s on %s or %s",
			snap.Symbol, profile.PrimaryTimeframe, profile.FallbackTimeframe)
	}

	entry := snap.Price
	atr := bundle.ATR

	// ATR floor guards the ratio against near-zero risk denominators
	floor := entry * profile.ATRFloorPct / 100
	if atr < floor {
		atr = floor
	}

	sign := 1.0
	if direction == market.DirectionShort {
		sign = -1.0
	}

	levels := Levels{
		Entry:     entry,
		Stop:      entry - sign*atr*profile.StopATRMultiple,
		ATRUsed:   atr,
		Timeframe: timeframe,
	}
	for i, mult := range profile.TargetATRMultiple {
		levels.Targets[i] = entry + sign*atr*mult
	}

	riskAmount := math.Abs(entry - levels.Stop)
	rewardAmount := math.Abs(levels.Targets[1] - entry)
	if riskAmount <= 0 {
		return Levels{}, fmt.Errorf("degenerate risk amount for %s at %.4f", snap.Symbol, entry)
	}
	levels.RiskReward = rewardAmount / riskAmount

	return levels, nil
}
