package thresholds

import (
	"fmt"

	"trading-signal-scanner/internal/detectors"
	"trading-signal-scanner/internal/market"
)

// Result carries the minimums a candidate signal must clear for the
// current time window, volatility level, and regime, plus whether the
// fired strategy category is enabled at all.
type Result struct {
	Window          market.TimeOfDay `json:"window"`
	MinBaseScore    float64          `json:"min_base_score"`
	MinStyleScore   float64          `json:"min_style_score"`
	MinRiskReward   float64          `json:"min_risk_reward"`
	SizeMultiplier  float64          `json:"size_multiplier"`
	StrategyEnabled bool             `json:"strategy_enabled"`
	Breakdown       []string         `json:"breakdown"`
}

type baseline struct {
	minBase, minStyle, minRR, size float64
}

// windowBaselines are the per-window starting points before volatility
// and regime adjustments.
var windowBaselines = map[market.TimeOfDay]baseline{
	market.WindowOpeningDrive: {65, 60, 1.5, 1.0},
	market.WindowMidMorning:   {62, 58, 1.5, 1.0},
	market.WindowLunchChop:    {75, 70, 2.0, 0.5},
	market.WindowAfternoon:    {65, 60, 1.6, 0.9},
	market.WindowPowerHour:    {68, 62, 1.5, 0.8},
	// After-hours signals carry zero size, same as weekends: outside
	// regular hours everything is informational only
	market.WindowAfterHours: {80, 75, 2.0, 0},
}

// weekendBaseline is the fixed conservative profile: permissive scores so
// setups still surface for review, but zero size: weekend signals are
// informational only.
var weekendBaseline = baseline{50, 45, 1.2, 0}

type adjustment struct {
	minBase, minStyle, minRR float64
	sizeMult                 float64 // multiplicative
	label                    string
}

var vixAdjustments = map[market.VolatilityLevel]adjustment{
	market.VolLow:     {-2, -2, 0, 1.1, "low VIX"},
	market.VolMedium:  {0, 0, 0, 1.0, "medium VIX"},
	market.VolHigh:    {5, 5, 0.3, 0.7, "high VIX"},
	market.VolExtreme: {12, 10, 0.5, 0.4, "extreme VIX"},
}

var regimeAdjustments = map[market.Regime]adjustment{
	market.RegimeTrending: {-3, -3, 0, 1.1, "trending regime"},
	market.RegimeRanging:  {0, 0, 0.1, 0.9, "ranging regime"},
	market.RegimeChoppy:   {8, 8, 0.4, 0.6, "choppy regime"},
	market.RegimeVolatile: {5, 4, 0.2, 0.7, "volatile regime"},
}

// categoryCompat states which strategy categories may trade in which
// regime. A disabled category rejects the evaluation regardless of score.
var categoryCompat = map[detectors.Category]map[market.Regime]bool{
	detectors.CategoryBreakout: {
		market.RegimeTrending: true, market.RegimeRanging: false,
		market.RegimeChoppy: false, market.RegimeVolatile: true,
	},
	detectors.CategoryMeanReversion: {
		market.RegimeTrending: false, market.RegimeRanging: true,
		market.RegimeChoppy: true, market.RegimeVolatile: false,
	},
	detectors.CategoryTrendContinuation: {
		market.RegimeTrending: true, market.RegimeRanging: false,
		market.RegimeChoppy: false, market.RegimeVolatile: true,
	},
	detectors.CategoryGamma: {
		market.RegimeTrending: true, market.RegimeRanging: false,
		market.RegimeChoppy: false, market.RegimeVolatile: true,
	},
	detectors.CategoryReversal: {
		market.RegimeTrending: false, market.RegimeRanging: true,
		market.RegimeChoppy: false, market.RegimeVolatile: true,
	},
}

// favoredCategories get a small minimum-score concession in the regime
// where the setup has edge (mean reversion inside a range, etc.).
var favoredCategories = map[detectors.Category]market.Regime{
	detectors.CategoryMeanReversion:     market.RegimeRanging,
	detectors.CategoryBreakout:          market.RegimeTrending,
	detectors.CategoryTrendContinuation: market.RegimeTrending,
	detectors.CategoryReversal:          market.RegimeVolatile,
}

// Calculator derives adaptive thresholds. It is a pure function of its
// inputs and holds no state.
type Calculator struct{}

// NewCalculator creates a threshold calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute derives the thresholds for one candidate evaluation
func (c *Calculator) Compute(snap *market.FeatureSnapshot, category detectors.Category) Result {
	window := snap.Window()

	var b baseline
	var breakdown []string
	if window == market.WindowWeekend {
		// Weekend short-circuits: fixed conservative profile, no sizing
		b = weekendBaseline
		breakdown = append(breakdown, "weekend profile: informational only, zero size")
		return Result{
			Window:          window,
			MinBaseScore:    b.minBase,
			MinStyleScore:   b.minStyle,
			MinRiskReward:   b.minRR,
			SizeMultiplier:  0,
			StrategyEnabled: true,
			Breakdown:       breakdown,
		}
	}

	b, ok := windowBaselines[window]
	if !ok {
		b = windowBaselines[market.WindowAfternoon]
	}
	breakdown = append(breakdown, fmt.Sprintf("window %s: base=%.0f style=%.0f rr=%.1f size=%.2f",
		window, b.minBase, b.minStyle, b.minRR, b.size))

	vol := snap.VolLevel
	if vol == "" {
		vol = market.ClassifyVIX(snap.VIX)
	}
	if adj, ok := vixAdjustments[vol]; ok {
		b = applyAdjustment(b, adj, &breakdown)
	}

	if adj, ok := regimeAdjustments[snap.Regime]; ok {
		b = applyAdjustment(b, adj, &breakdown)
	}

	enabled := true
	if compat, ok := categoryCompat[category]; ok {
		if allowed, ok := compat[snap.Regime]; ok && !allowed {
			enabled = false
			breakdown = append(breakdown, fmt.Sprintf("category %s disabled in %s regime", category, snap.Regime))
		}
	}

	if enabled {
		if favored, ok := favoredCategories[category]; ok && favored == snap.Regime {
			b.minBase -= 3
			b.minStyle -= 3
			breakdown = append(breakdown, fmt.Sprintf("category %s favored in %s regime (-3)", category, snap.Regime))
		}
	}

	if b.size < 0 {
		b.size = 0
	}

	return Result{
		Window:          window,
		MinBaseScore:    b.minBase,
		MinStyleScore:   b.minStyle,
		MinRiskReward:   b.minRR,
		SizeMultiplier:  b.size,
		StrategyEnabled: enabled,
		Breakdown:       breakdown,
	}
}

func applyAdjustment(b baseline, adj adjustment, breakdown *[]string) baseline {
	b.minBase += adj.minBase
	b.minStyle += adj.minStyle
	b.minRR += adj.minRR
	b.size *= adj.sizeMult
	*breakdown = append(*breakdown, fmt.Sprintf("%s: base%+.0f style%+.0f rr%+.1f size×%.2f",
		adj.label, adj.minBase, adj.minStyle, adj.minRR, adj.sizeMult))
	return b
}
