package scoring

import (
	"trading-signal-scanner/internal/market"
)

// ConfidenceResult rates how complete the input snapshot is and the
// dampening factor applied to downstream scores.
type ConfidenceResult struct {
	Score         float64  `json:"score"`  // 0-100
	Factor        float64  `json:"factor"` // multiplicative dampening, 1.0 at full confidence
	Passed        bool     `json:"passed"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// ConfidenceScorer measures the fraction of expected snapshot fields that
// are actually populated. It runs before detection so a thin snapshot
// fails fast instead of producing scores nobody should trust.
type ConfidenceScorer struct {
	minScore float64
}

// NewConfidenceScorer creates a scorer with the given filter threshold
// (0 uses the default of 40).
func NewConfidenceScorer(minScore float64) *ConfidenceScorer {
	if minScore <= 0 {
		minScore = 40
	}
	return &ConfidenceScorer{minScore: minScore}
}

type fieldCheck struct {
	name    string
	weight  float64
	present func(*market.FeatureSnapshot) bool
	weekend bool // still expected on weekends
}

var confidenceFields = []fieldCheck{
	{"price", 2, func(s *market.FeatureSnapshot) bool { return s.Price > 0 }, true},
	{"volume", 1.5, func(s *market.FeatureSnapshot) bool { return s.Volume > 0 }, true},
	{"avg_volume", 1, func(s *market.FeatureSnapshot) bool { return s.AvgVolume > 0 }, true},
	{"vwap", 1.5, func(s *market.FeatureSnapshot) bool { return s.VWAP > 0 }, false},
	{"orb_range", 1, func(s *market.FeatureSnapshot) bool { return s.ORBHigh > 0 && s.ORBLow > 0 }, false},
	{"day_range", 1, func(s *market.FeatureSnapshot) bool { return s.DayHigh > 0 && s.DayLow > 0 }, true},
	{"prev_close", 0.5, func(s *market.FeatureSnapshot) bool { return s.PrevClose > 0 }, true},
	{"tf_5m", 2, func(s *market.FeatureSnapshot) bool { b, ok := s.Timeframes["5m"]; return ok && b.ATR > 0 }, true},
	{"tf_15m", 1.5, func(s *market.FeatureSnapshot) bool { b, ok := s.Timeframes["15m"]; return ok && b.ATR > 0 }, true},
	{"tf_1d", 1, func(s *market.FeatureSnapshot) bool { b, ok := s.Timeframes["1d"]; return ok && b.ATR > 0 }, false},
	{"rsi", 1, func(s *market.FeatureSnapshot) bool { b, ok := s.Timeframes["5m"]; return ok && b.RSI > 0 }, true},
	{"mtf_alignment", 1, func(s *market.FeatureSnapshot) bool { return s.MTFAlignment > 0 }, false},
	{"regime", 1, func(s *market.FeatureSnapshot) bool { return s.Regime != "" }, true},
	{"vix", 0.5, func(s *market.FeatureSnapshot) bool { return s.VIX > 0 }, false},
}

// Score rates snapshot completeness 0-100. Weekends use the reduced
// expected-field set since session-bound fields legitimately go dark.
func (c *ConfidenceScorer) Score(snap *market.FeatureSnapshot) ConfidenceResult {
	weekend := snap.Weekend()

	var total, got float64
	var missing []string
	for _, f := range confidenceFields {
		if weekend && !f.weekend {
			continue
		}
		total += f.weight
		if f.present(snap) {
			got += f.weight
		} else {
			missing = append(missing, f.name)
		}
	}

	score := 0.0
	if total > 0 {
		score = got / total * 100
	}

	return ConfidenceResult{
		Score:         score,
		Factor:        dampening(score),
		Passed:        score >= c.minScore,
		MissingFields: missing,
	}
}

// dampening maps confidence to a monotonic score multiplier: 1.0 at full
// confidence, shrinking linearly to 0.6 at zero confidence.
func dampening(confidence float64) float64 {
	return 0.6 + 0.4*(confidence/100)
}
