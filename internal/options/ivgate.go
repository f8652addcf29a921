package options

import (
	"trading-signal-scanner/internal/detectors"
	"trading-signal-scanner/internal/market"
)

// StrategyClass splits strategies by how they pay for volatility
type StrategyClass string

const (
	ClassDebit  StrategyClass = "debit"  // premium buying: directional entries
	ClassCredit StrategyClass = "credit" // premium selling
)

// IVRegime tags where implied volatility sits in its historical range
type IVRegime string

const (
	IVLow      IVRegime = "low"
	IVNormal   IVRegime = "normal"
	IVElevated IVRegime = "elevated"
	IVExtreme  IVRegime = "extreme"
)

// Analysis is the IV read for one symbol. Sufficient=false means the
// chain was too thin to trust, and the gate silently stands down.
type Analysis struct {
	Percentile float64  `json:"percentile"`
	Regime     IVRegime `json:"regime"`
	Sufficient bool     `json:"sufficient"`
}

// Gate classifies a fired strategy and decides whether the current IV
// regime should block it or just nudge its score.
type Gate struct {
	minDataPoints int
}

// NewGate creates an IV gate. minDataPoints below 1 uses the default of 20.
func NewGate(minDataPoints int) *Gate {
	if minDataPoints < 1 {
		minDataPoints = 20
	}
	return &Gate{minDataPoints: minDataPoints}
}

// Classify buckets the opportunity type as premium buying or selling.
// Every directional setup in the registry buys premium; credit is kept
// for the selling strategies a chain-driven registry can add.
func Classify(t detectors.OpportunityType) StrategyClass {
	switch detectors.CategoryOf(t) {
	case detectors.CategoryBreakout, detectors.CategoryTrendContinuation,
		detectors.CategoryReversal, detectors.CategoryGamma, detectors.CategoryMeanReversion:
		return ClassDebit
	default:
		return ClassDebit
	}
}

// Analyze derives the IV analysis from a chain snapshot. A nil or thin
// chain yields an insufficient analysis.
func (g *Gate) Analyze(chain *market.OptionsChainSnapshot) Analysis {
	if !chain.Sufficient(g.minDataPoints) {
		return Analysis{Regime: IVNormal, Sufficient: false}
	}
	return Analysis{
		Percentile: chain.IVPercentile,
		Regime:     classifyPercentile(chain.IVPercentile),
		Sufficient: true,
	}
}

func classifyPercentile(p float64) IVRegime {
	switch {
	case p < 20:
		return IVLow
	case p < 60:
		return IVNormal
	case p < 85:
		return IVElevated
	default:
		return IVExtreme
	}
}

// ScoreModifier returns the multiplicative base-score adjustment for the
// strategy class under the analyzed IV regime. Applied unconditionally;
// an insufficient analysis is neutral.
func (g *Gate) ScoreModifier(class StrategyClass, a Analysis) float64 {
	if !a.Sufficient {
		return 1.0
	}
	if class == ClassDebit {
		// Buying premium: cheap vol helps, rich vol hurts
		switch a.Regime {
		case IVLow:
			return 1.10
		case IVNormal:
			return 1.0
		case IVElevated:
			return 0.92
		default:
			return 0.80
		}
	}
	// Selling premium: the mirror image
	switch a.Regime {
	case IVLow:
		return 0.80
	case IVNormal:
		return 0.95
	case IVElevated:
		return 1.05
	default:
		return 1.10
	}
}

// Blocks reports whether the IV regime hard-blocks this strategy class.
// Only enforced when the analysis is sufficient: missing IV data degrades
// to "no gate", never to a rejection.
func (g *Gate) Blocks(class StrategyClass, a Analysis) bool {
	if !a.Sufficient {
		return false
	}
	if class == ClassDebit {
		return a.Regime == IVExtreme
	}
	return a.Regime == IVLow
}
