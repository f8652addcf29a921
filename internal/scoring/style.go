package scoring

import (
	"fmt"

	"trading-signal-scanner/internal/market"
)

// Style is a holding-horizon profile with its own risk parameters and
// score weighting.
type Style string

const (
	StyleScalp Style = "scalp"
	StyleDay   Style = "day"
	StyleSwing Style = "swing"
)

// AllStyles returns the styles in their fixed tie-break order
func AllStyles() []Style {
	return []Style{StyleScalp, StyleDay, StyleSwing}
}

const (
	multiplierFloor = 0.5
	multiplierCeil  = 1.5
)

// StyleResult carries the per-style multipliers, the scores they produce
// from a base score, and the reasons each rule contributed.
type StyleResult struct {
	Window      market.TimeOfDay   `json:"window"`
	Multipliers map[Style]float64  `json:"multipliers"`
	Scores      map[Style]float64  `json:"scores"`
	Recommended Style              `json:"recommended"`
	Reasons     map[Style][]string `json:"reasons"`
}

// StyleModifierConfig holds the tunable inputs of the style tables
type StyleModifierConfig struct {
	VolumeSpikeMultiple  float64 // relative volume treated as a spike
	KeyLevelTolerancePct float64 // proximity to VWAP/ORB counted as "near"
	HighMTFAlignment     float64 // alignment score treated as strong
	LowMTFAlignment      float64 // alignment score treated as weak
}

// DefaultStyleModifierConfig returns the standard table inputs
func DefaultStyleModifierConfig() StyleModifierConfig {
	return StyleModifierConfig{
		VolumeSpikeMultiple:  2.0,
		KeyLevelTolerancePct: 0.25,
		HighMTFAlignment:     70,
		LowMTFAlignment:      30,
	}
}

// StyleModifier computes the three style multipliers from temporal and
// volatility context, independent of which detector fired.
type StyleModifier struct {
	cfg StyleModifierConfig
}

// NewStyleModifier creates a style modifier
func NewStyleModifier(cfg StyleModifierConfig) *StyleModifier {
	return &StyleModifier{cfg: cfg}
}

type styleDelta struct {
	scalp, day, swing float64
	reason            string
}

// windowDeltas are the fixed time-of-day adjustments
var windowDeltas = map[market.TimeOfDay]styleDelta{
	market.WindowOpeningDrive: {0.25, 0.10, -0.10, "opening drive favors fast entries"},
	market.WindowMidMorning:   {0.05, 0.10, 0.05, "mid-morning trend window"},
	market.WindowLunchChop:    {-0.30, -0.15, 0.00, "lunch chop punishes scalps"},
	market.WindowAfternoon:    {0.00, 0.05, 0.05, "afternoon continuation window"},
	market.WindowPowerHour:    {0.20, 0.05, -0.05, "power hour momentum"},
}

// regimeDeltas are the market-regime adjustments
var regimeDeltas = map[market.Regime]styleDelta{
	market.RegimeTrending: {0.00, 0.05, 0.10, "trending regime rewards holding"},
	market.RegimeRanging:  {0.05, 0.00, -0.05, "ranging regime favors quick rotations"},
	market.RegimeChoppy:   {-0.20, -0.15, -0.10, "choppy regime penalizes everything"},
	market.RegimeVolatile: {0.10, 0.00, -0.05, "volatile regime suits short holds"},
}

// Compute derives the style multipliers and applies them to the base
// score. Each multiplier starts at 1.0, accumulates additive deltas, and
// is clamped to [0.5, 1.5] before scoring.
func (m *StyleModifier) Compute(baseScore float64, snap *market.FeatureSnapshot) StyleResult {
	window := snap.Window()
	mult := map[Style]float64{StyleScalp: 1.0, StyleDay: 1.0, StyleSwing: 1.0}
	reasons := map[Style][]string{}

	apply := func(d styleDelta) {
		perStyle := map[Style]float64{StyleScalp: d.scalp, StyleDay: d.day, StyleSwing: d.swing}
		for _, s := range AllStyles() {
			delta := perStyle[s]
			if delta == 0 {
				continue
			}
			mult[s] += delta
			reasons[s] = append(reasons[s], fmt.Sprintf("%s (%+.2f)", d.reason, delta))
		}
	}

	if d, ok := windowDeltas[window]; ok {
		apply(d)
	}

	atrPct := snap.ATRPercent("5m")
	if atrPct >= 1.5 {
		apply(styleDelta{0.10, 0.05, 0.00, "expanded ATR gives scalps room"})
	} else if atrPct > 0 && atrPct < 0.3 {
		apply(styleDelta{-0.10, -0.05, 0.00, "compressed ATR starves scalps"})
	}

	if snap.VolumeSpike(m.cfg.VolumeSpikeMultiple) {
		apply(styleDelta{0.15, 0.10, 0.00, "relative volume spike"})
	}

	if snap.NearKeyLevel(m.cfg.KeyLevelTolerancePct) {
		apply(styleDelta{0.10, 0.07, 0.05, "price at key level"})
	}

	if snap.RSIExtreme("5m") {
		apply(styleDelta{0.05, 0.00, -0.05, "RSI extreme, quick resolution likely"})
	}

	if snap.MTFAlignment >= m.cfg.HighMTFAlignment {
		apply(styleDelta{0.00, 0.08, 0.15, "strong multi-timeframe alignment"})
	} else if snap.MTFAlignment <= m.cfg.LowMTFAlignment {
		apply(styleDelta{0.00, -0.10, -0.20, "weak multi-timeframe alignment"})
	}

	if d, ok := regimeDeltas[snap.Regime]; ok {
		apply(d)
	}

	// Off-session caps: everything pinned near the floor
	var sessionCap float64
	switch window {
	case market.WindowWeekend:
		sessionCap = 0.55
	case market.WindowAfterHours:
		sessionCap = 0.60
	}

	scores := map[Style]float64{}
	for _, s := range AllStyles() {
		v := mult[s]
		if v < multiplierFloor {
			v = multiplierFloor
		}
		if v > multiplierCeil {
			v = multiplierCeil
		}
		if sessionCap > 0 && v > sessionCap {
			v = sessionCap
			reasons[s] = append(reasons[s], fmt.Sprintf("off-session cap %.2f", sessionCap))
		}
		mult[s] = v
		scores[s] = clamp100(baseScore * v)
	}

	return StyleResult{
		Window:      window,
		Multipliers: mult,
		Scores:      scores,
		Recommended: Recommend(scores),
		Reasons:     reasons,
	}
}

// Recommend picks the argmax style with the fixed tie-break order
// scalp, day, swing.
func Recommend(scores map[Style]float64) Style {
	best := StyleScalp
	bestScore := scores[StyleScalp]
	for _, s := range []Style{StyleDay, StyleSwing} {
		if scores[s] > bestScore {
			best = s
			bestScore = scores[s]
		}
	}
	return best
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
