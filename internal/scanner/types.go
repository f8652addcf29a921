package scanner

import (
	"fmt"
	"time"

	"trading-signal-scanner/internal/boost"
	"trading-signal-scanner/internal/detectors"
	"trading-signal-scanner/internal/market"
	"trading-signal-scanner/internal/options"
	"trading-signal-scanner/internal/risk"
	"trading-signal-scanner/internal/scoring"
	"trading-signal-scanner/internal/thresholds"
)

// SignalStatus is the lifecycle state of an emitted signal. The scanner
// only ever creates ACTIVE; terminal transitions belong to the trade
// management layer.
type SignalStatus string

const (
	StatusActive    SignalStatus = "ACTIVE"
	StatusFilled    SignalStatus = "FILLED"
	StatusExpired   SignalStatus = "EXPIRED"
	StatusDismissed SignalStatus = "DISMISSED"
	StatusStopped   SignalStatus = "STOPPED"
	StatusTargetHit SignalStatus = "TARGET_HIT"
)

// Filter reasons. The first segment is machine-checkable; details follow
// after a colon.
const (
	ReasonInvalidSnapshot    = "invalid_snapshot"
	ReasonLowConfidence      = "low_confidence"
	ReasonNoDetection        = "no_detection"
	ReasonCategoryDisabled   = "category_disabled"
	ReasonIVGateBlocked      = "iv_gate_blocked"
	ReasonRiskUnavailable    = "risk_unavailable"
	ReasonBelowMinBaseScore  = "below_min_base_score"
	ReasonBelowMinStyleScore = "below_min_style_score"
	ReasonBelowMinRiskReward = "below_min_risk_reward"
	ReasonDuplicateSignal    = "duplicate_signal"
	ReasonCooldownActive     = "cooldown_active"
	ReasonRateLimited        = "rate_limit_exceeded"
)

// CompositeSignal is the emitted trade-setup decision
type CompositeSignal struct {
	ID              string                    `json:"id"`
	Symbol          string                    `json:"symbol"`
	OpportunityType detectors.OpportunityType `json:"opportunity_type"`
	Category        detectors.Category        `json:"category"`
	Direction       market.Direction          `json:"direction"`
	AssetClass      market.AssetClass         `json:"asset_class"`

	BaseScore             float64                   `json:"base_score"`
	StyleScores           map[scoring.Style]float64 `json:"style_scores"`
	RecommendedStyle      scoring.Style             `json:"recommended_style"`
	RecommendedStyleScore float64                   `json:"recommended_style_score"`
	Confluence            map[string]float64        `json:"confluence"`
	Reasons               []string                  `json:"reasons,omitempty"`

	Entry          float64    `json:"entry"`
	Stop           float64    `json:"stop"`
	Targets        [3]float64 `json:"targets"`
	RiskReward     float64    `json:"risk_reward"`
	SizeMultiplier float64    `json:"size_multiplier"`

	Status     SignalStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
	BarTimeKey string       `json:"bar_time_key"`
}

// Transition moves the signal from ACTIVE to a terminal state. A signal
// transitions exactly once; any further attempt is an error.
func (s *CompositeSignal) Transition(to SignalStatus) error {
	if to == StatusActive {
		return fmt.Errorf("cannot transition signal %s back to ACTIVE", s.ID)
	}
	if s.Status != StatusActive {
		return fmt.Errorf("signal %s already terminal (%s)", s.ID, s.Status)
	}
	switch to {
	case StatusFilled, StatusExpired, StatusDismissed, StatusStopped, StatusTargetHit:
		s.Status = to
		return nil
	default:
		return fmt.Errorf("unknown signal status %q", to)
	}
}

// BarTimeKey derives the deterministic idempotency key from the
// minute-truncated timestamp, symbol, and opportunity type.
func BarTimeKey(ts time.Time, symbol string, oppType detectors.OpportunityType) string {
	return fmt.Sprintf("%d-%s-%s", ts.Truncate(time.Minute).Unix(), symbol, oppType)
}

// DetectedOpportunity is the scan-local working record for one detector
// match. It is discarded once a signal is built or the scan is filtered.
type DetectedOpportunity struct {
	Match       detectors.Match
	BaseScore   float64 // after confidence dampening
	StyleResult scoring.StyleResult
	StyleScores map[scoring.Style]float64 // after context boosts
	Recommended scoring.Style
	Reasons     []string
}

// Diagnostics is the optional audit bundle attached to a ScanResult. It
// exists for display and postmortems, never for control flow.
type Diagnostics struct {
	Confidence scoring.ConfidenceResult `json:"confidence"`
	Thresholds *thresholds.Result       `json:"thresholds,omitempty"`
	IVAnalysis *options.Analysis        `json:"iv_analysis,omitempty"`
	Context    *boost.ContextData       `json:"context,omitempty"`
	Levels     *risk.Levels             `json:"levels,omitempty"`
}

// ScanResult is the outcome of one symbol evaluation: either a validated
// signal or a filtered result with a specific reason.
type ScanResult struct {
	Symbol         string           `json:"symbol"`
	Signal         *CompositeSignal `json:"signal,omitempty"`
	Filtered       bool             `json:"filtered"`
	FilterReason   string           `json:"filter_reason,omitempty"`
	DetectionCount int              `json:"detection_count"`
	Duration       time.Duration    `json:"duration"`
	Diagnostics    *Diagnostics     `json:"diagnostics,omitempty"`
}

// FilterReasonCode returns the machine-checkable first segment of the
// filter reason.
func (r *ScanResult) FilterReasonCode() string {
	for i := 0; i < len(r.FilterReason); i++ {
		if r.FilterReason[i] == ':' {
			return r.FilterReason[:i]
		}
	}
	return r.FilterReason
}
