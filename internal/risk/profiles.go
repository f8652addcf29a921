package risk

import "trading-signal-scanner/internal/scoring"

// StyleProfile holds the per-style risk parameters used to derive stop
// and target levels from ATR.
type StyleProfile struct {
	Style             scoring.Style `json:"style"`
	StopATRMultiple   float64       `json:"stop_atr_multiple"`
	TargetATRMultiple [3]float64    `json:"target_atr_multiples"`
	ATRFloorPct       float64       `json:"atr_floor_pct"` // min ATR as % of price
	PrimaryTimeframe  string        `json:"primary_timeframe"`
	FallbackTimeframe string        `json:"fallback_timeframe"`
}

// DefaultProfile returns the standard risk profile for a style
func DefaultProfile(style scoring.Style) StyleProfile {
	switch style {
	case scoring.StyleScalp:
		return StyleProfile{
			Style:             style,
			StopATRMultiple:   0.5,
			TargetATRMultiple: [3]float64{0.75, 1.5, 2.25},
			ATRFloorPct:       0.05,
			PrimaryTimeframe:  "1m",
			FallbackTimeframe: "5m",
		}
	case scoring.StyleDay:
		return StyleProfile{
			Style:             style,
			StopATRMultiple:   1.0,
			TargetATRMultiple: [3]float64{1.5, 3.0, 4.5},
			ATRFloorPct:       0.10,
			PrimaryTimeframe:  "5m",
			FallbackTimeframe: "15m",
		}
	default: // swing
		return StyleProfile{
			Style:             scoring.StyleSwing,
			StopATRMultiple:   1.5,
			TargetATRMultiple: [3]float64{2.25, 4.5, 6.75},
			ATRFloorPct:       0.25,
			PrimaryTimeframe:  "1h",
			FallbackTimeframe: "15m",
		}
	}
}
