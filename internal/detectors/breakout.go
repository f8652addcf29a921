package detectors

import (
	"trading-signal-scanner/internal/market"
)

// openingRangeBreakout fires when price clears the opening range high on
// expanding volume early in the session.
type openingRangeBreakout struct{}

func (d *openingRangeBreakout) Type() OpportunityType       { return OpeningRangeBreakout }
func (d *openingRangeBreakout) Direction() market.Direction { return market.DirectionLong }
func (d *openingRangeBreakout) RequiresOptionsData() bool   { return false }

func (d *openingRangeBreakout) AssetClasses() []market.AssetClass {
	return []market.AssetClass{market.AssetEquity, market.AssetETF, market.AssetIndex}
}

func (d *openingRangeBreakout) Detect(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) bool {
	if snap.ORBHigh <= 0 {
		return false
	}
	// Breakout must happen while the opening range still matters
	if snap.MinutesSinceOpen > 120 {
		return false
	}
	if snap.Price <= snap.ORBHigh {
		return false
	}
	// Require at least some volume expansion behind the break
	return snap.RelativeVolume() >= 1.2
}

func (d *openingRangeBreakout) Score(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) (float64, map[string]float64) {
	factors := map[string]float64{}

	// Breakout extension: how far above the range, scaled by ATR
	extension := snap.Price - snap.ORBHigh
	atrPct := snap.ATRPercent("5m")
	extScore := 50.0
	if atrPct > 0 && snap.Price > 0 {
		extPct := extension / snap.Price * 100
		extScore = clampScore(40 + extPct/atrPct*60)
	}
	factors["breakout_extension"] = extScore

	// Volume confirmation
	rv := snap.RelativeVolume()
	factors["volume"] = clampScore((rv - 1.0) * 40)

	// VWAP side: breaking out above VWAP is the clean setup
	vwapScore := 40.0
	if snap.VWAP > 0 && snap.Price > snap.VWAP {
		vwapScore = 85
	}
	factors["vwap_position"] = vwapScore

	// Higher-timeframe alignment
	factors["mtf_alignment"] = clampScore(snap.MTFAlignment)

	base := 0.35*extScore + 0.30*factors["volume"] + 0.15*vwapScore + 0.20*factors["mtf_alignment"]
	return base, factors
}

// momentumBreakout fires on a fresh high-of-day break with strong relative
// volume and a stacked EMA structure. It is not tied to the opening range.
type momentumBreakout struct{}

func (d *momentumBreakout) Type() OpportunityType       { return MomentumBreakout }
func (d *momentumBreakout) Direction() market.Direction { return market.DirectionLong }
func (d *momentumBreakout) RequiresOptionsData() bool   { return false }

func (d *momentumBreakout) AssetClasses() []market.AssetClass {
	return []market.AssetClass{market.AssetEquity, market.AssetETF, market.AssetCrypto}
}

func (d *momentumBreakout) Detect(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) bool {
	if snap.DayHigh <= 0 || snap.Price < snap.DayHigh*0.999 {
		return false
	}
	if snap.RelativeVolume() < 1.5 {
		return false
	}
	b, ok := snap.Timeframes["5m"]
	if !ok {
		return false
	}
	// EMAs stacked bullish on the working timeframe
	return b.EMA9 > b.EMA21 && b.EMA21 > b.EMA50 && b.EMA50 > 0
}

func (d *momentumBreakout) Score(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) (float64, map[string]float64) {
	factors := map[string]float64{}

	rv := snap.RelativeVolume()
	factors["volume"] = clampScore((rv - 1.0) * 35)

	b := snap.Timeframes["5m"]
	// EMA spread as a trend-strength proxy
	spreadScore := 50.0
	if b.EMA50 > 0 {
		spreadPct := (b.EMA9 - b.EMA50) / b.EMA50 * 100
		spreadScore = clampScore(40 + spreadPct*30)
	}
	factors["trend_structure"] = spreadScore

	// RSI has room before exhaustion
	rsiScore := 50.0
	if b.RSI > 0 {
		switch {
		case b.RSI >= 55 && b.RSI <= 70:
			rsiScore = 85
		case b.RSI > 70:
			rsiScore = 35 // already stretched
		case b.RSI >= 45:
			rsiScore = 60
		default:
			rsiScore = 30
		}
	}
	factors["rsi_room"] = rsiScore

	factors["mtf_alignment"] = clampScore(snap.MTFAlignment)

	base := 0.35*factors["volume"] + 0.25*spreadScore + 0.15*rsiScore + 0.25*factors["mtf_alignment"]
	return base, factors
}

// breakdownShort is the bearish mirror: a low-of-day break below VWAP on
// heavy volume.
type breakdownShort struct{}

func (d *breakdownShort) Type() OpportunityType       { return BreakdownShort }
func (d *breakdownShort) Direction() market.Direction { return market.DirectionShort }
func (d *breakdownShort) RequiresOptionsData() bool   { return false }

func (d *breakdownShort) AssetClasses() []market.AssetClass {
	return []market.AssetClass{market.AssetEquity, market.AssetETF, market.AssetIndex}
}

func (d *breakdownShort) Detect(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) bool {
	if snap.DayLow <= 0 || snap.Price > snap.DayLow*1.001 {
		return false
	}
	if snap.VWAP > 0 && snap.Price >= snap.VWAP {
		return false
	}
	return snap.RelativeVolume() >= 1.5
}

func (d *breakdownShort) Score(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) (float64, map[string]float64) {
	factors := map[string]float64{}

	rv := snap.RelativeVolume()
	factors["volume"] = clampScore((rv - 1.0) * 35)

	// Distance below VWAP, scaled by ATR
	vwapScore := 50.0
	atrPct := snap.ATRPercent("5m")
	if snap.VWAP > 0 && atrPct > 0 && snap.Price > 0 {
		distPct := (snap.VWAP - snap.Price) / snap.Price * 100
		vwapScore = clampScore(40 + distPct/atrPct*50)
	}
	factors["vwap_distance"] = vwapScore

	// Weak bounce structure: EMA9 under EMA21 confirms sellers in control
	structScore := 45.0
	if b, ok := snap.Timeframes["5m"]; ok && b.EMA21 > 0 && b.EMA9 < b.EMA21 {
		structScore = 80
	}
	factors["trend_structure"] = structScore

	// Inverted alignment: a short wants LOW multi-timeframe bullishness
	factors["mtf_alignment"] = clampScore(100 - snap.MTFAlignment)

	base := 0.35*factors["volume"] + 0.25*vwapScore + 0.20*structScore + 0.20*factors["mtf_alignment"]
	return base, factors
}
