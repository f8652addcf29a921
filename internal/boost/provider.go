package boost

import (
	"context"

	"trading-signal-scanner/internal/market"
)

// ContextProvider exposes the five best-effort lookups that nudge
// per-style scores. Implementations live outside the core; any lookup may
// fail or time out, and a failure only costs that one boost.
type ContextProvider interface {
	IVPercentile(ctx context.Context, symbol string) (float64, error)
	GammaExposure(ctx context.Context, symbol string) (float64, error)
	MTFAlignment(ctx context.Context, symbol string) (float64, error)
	FlowSentiment(ctx context.Context, symbol string) (float64, error)
	MarketRegime(ctx context.Context, symbol string) (market.Regime, error)
}

// ContextData is the gathered lookup results. A nil field means that
// source was unavailable and contributes no adjustment.
type ContextData struct {
	IVPercentile  *float64       `json:"iv_percentile,omitempty"`
	GammaExposure *float64       `json:"gamma_exposure,omitempty"`
	MTFAlignment  *float64       `json:"mtf_alignment,omitempty"`
	FlowSentiment *float64       `json:"flow_sentiment,omitempty"`
	Regime        *market.Regime `json:"regime,omitempty"`
}

// Magnitudes holds the boost sizes, overridable by the external
// optimizer's parameter bundle.
type Magnitudes struct {
	IVBoost     float64 `json:"iv_boost" default:"4"`
	GammaBoost  float64 `json:"gamma_boost" default:"5"`
	MTFBoost    float64 `json:"mtf_boost" default:"6"`
	FlowBoost   float64 `json:"flow_boost" default:"5"`
	RegimeBoost float64 `json:"regime_boost" default:"3"`
}

// DefaultMagnitudes returns the standard boost sizes
func DefaultMagnitudes() Magnitudes {
	return Magnitudes{IVBoost: 4, GammaBoost: 5, MTFBoost: 6, FlowBoost: 5, RegimeBoost: 3}
}
