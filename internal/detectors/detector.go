package detectors

import (
	"github.com/rs/zerolog"

	"trading-signal-scanner/internal/market"
)

// OpportunityType identifies the setup a detector looks for
type OpportunityType string

const (
	OpeningRangeBreakout OpportunityType = "opening_range_breakout"
	MomentumBreakout     OpportunityType = "momentum_breakout"
	BreakdownShort       OpportunityType = "breakdown_short"
	VWAPReclaim          OpportunityType = "vwap_reclaim"
	RSIExhaustion        OpportunityType = "rsi_exhaustion_reversal"
	TrendPullback        OpportunityType = "trend_pullback"
	GammaSqueeze         OpportunityType = "gamma_squeeze"
)

// Category buckets opportunity types into strategy families for regime gating
type Category string

const (
	CategoryBreakout          Category = "breakout"
	CategoryMeanReversion     Category = "mean_reversion"
	CategoryTrendContinuation Category = "trend_continuation"
	CategoryGamma             Category = "gamma"
	CategoryReversal          Category = "reversal"
)

// CategoryOf maps an opportunity type to its strategy category
func CategoryOf(t OpportunityType) Category {
	switch t {
	case OpeningRangeBreakout, MomentumBreakout, BreakdownShort:
		return CategoryBreakout
	case VWAPReclaim:
		return CategoryMeanReversion
	case RSIExhaustion:
		return CategoryReversal
	case TrendPullback:
		return CategoryTrendContinuation
	case GammaSqueeze:
		return CategoryGamma
	default:
		return CategoryBreakout
	}
}

// Detector inspects one feature snapshot and either abstains or reports a
// match with a scored confluence breakdown. Detectors hold no state
// between calls.
type Detector interface {
	Type() OpportunityType
	Direction() market.Direction
	AssetClasses() []market.AssetClass
	RequiresOptionsData() bool
	Detect(snap *market.FeatureSnapshot, chain *market.OptionsChainSnapshot) bool
	Score(snap *market.FeatureSnapshot, chain *market.OptionsChainSnapshot) (float64, map[string]float64)
}

// Match is one detector firing with its scored breakdown
type Match struct {
	Detector  Detector
	BaseScore float64
	Factors   map[string]float64
}

// Registry holds the closed set of detectors in registration order
type Registry struct {
	detectors []Detector
	logger    zerolog.Logger
}

// NewRegistry creates a registry with the default detector set
func NewRegistry(logger zerolog.Logger) *Registry {
	r := &Registry{logger: logger.With().Str("component", "DetectorRegistry").Logger()}
	r.Register(&openingRangeBreakout{})
	r.Register(&momentumBreakout{})
	r.Register(&breakdownShort{})
	r.Register(&vwapReclaim{})
	r.Register(&rsiExhaustion{})
	r.Register(&trendPullback{})
	r.Register(&gammaSqueeze{})
	return r
}

// NewEmptyRegistry creates a registry with no detectors registered
func NewEmptyRegistry(logger zerolog.Logger) *Registry {
	return &Registry{logger: logger.With().Str("component", "DetectorRegistry").Logger()}
}

// Register appends a detector. Iteration order is registration order,
// which also fixes the tie-break order during selection.
func (r *Registry) Register(d Detector) {
	r.detectors = append(r.detectors, d)
}

// Detectors returns the registered detectors in order
func (r *Registry) Detectors() []Detector {
	return r.detectors
}

// DetectAll runs every applicable detector against the snapshot and
// returns the matches in registration order. A detector panic is
// recovered, logged, and treated as a non-match; it never aborts the scan.
func (r *Registry) DetectAll(snap *market.FeatureSnapshot, chain *market.OptionsChainSnapshot) []Match {
	var matches []Match
	for _, d := range r.detectors {
		if !applicable(d, snap, chain) {
			continue
		}
		if m, ok := r.runDetector(d, snap, chain); ok {
			matches = append(matches, m)
		}
	}
	return matches
}

func (r *Registry) runDetector(d Detector, snap *market.FeatureSnapshot, chain *market.OptionsChainSnapshot) (m Match, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("detector", string(d.Type())).
				Str("symbol", snap.Symbol).
				Interface("panic", rec).
				Msg("detector panicked, treating as no match")
			ok = false
		}
	}()

	if !d.Detect(snap, chain) {
		return Match{}, false
	}
	base, factors := d.Score(snap, chain)
	return Match{Detector: d, BaseScore: clampScore(base), Factors: factors}, true
}

// applicable checks asset-class membership and options-data availability
func applicable(d Detector, snap *market.FeatureSnapshot, chain *market.OptionsChainSnapshot) bool {
	if d.RequiresOptionsData() && chain == nil {
		return false
	}
	for _, ac := range d.AssetClasses() {
		if ac == snap.AssetClass {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
