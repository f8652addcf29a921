package detectors

import (
	"math"

	"trading-signal-scanner/internal/market"
)

// trendPullback fires when an established uptrend pulls back into the
// rising EMA cluster and holds, offering a continuation entry.
type trendPullback struct{}

func (d *trendPullback) Type() OpportunityType       { return TrendPullback }
func (d *trendPullback) Direction() market.Direction { return market.DirectionLong }
func (d *trendPullback) RequiresOptionsData() bool   { return false }

func (d *trendPullback) AssetClasses() []market.AssetClass {
	return []market.AssetClass{market.AssetEquity, market.AssetETF, market.AssetIndex, market.AssetCrypto}
}

func (d *trendPullback) Detect(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) bool {
	b, ok := snap.Timeframes["15m"]
	if !ok {
		return false
	}
	// Uptrend structure intact
	if !(b.EMA9 > b.EMA21 && b.EMA21 > b.EMA50 && b.EMA50 > 0) {
		return false
	}
	// Price pulled back into the EMA9–EMA21 band (with a small tolerance)
	upper := b.EMA9 * 1.002
	lower := b.EMA21 * 0.998
	if snap.Price > upper || snap.Price < lower {
		return false
	}
	// Pullbacks on light volume are the healthy ones
	return snap.RelativeVolume() <= 1.3
}

func (d *trendPullback) Score(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) (float64, map[string]float64) {
	factors := map[string]float64{}

	b := snap.Timeframes["15m"]

	// Trend strength from EMA separation
	trendScore := 50.0
	if b.EMA50 > 0 {
		spreadPct := (b.EMA9 - b.EMA50) / b.EMA50 * 100
		trendScore = clampScore(40 + spreadPct*25)
	}
	factors["trend_strength"] = trendScore

	// Pullback quality: closer to EMA21 without losing it scores higher
	pbScore := 50.0
	if b.EMA21 > 0 {
		distPct := math.Abs(snap.Price-b.EMA21) / b.EMA21 * 100
		pbScore = clampScore(90 - distPct*60)
	}
	factors["pullback_quality"] = pbScore

	// Quiet volume on the dip
	rv := snap.RelativeVolume()
	volScore := clampScore(90 - rv*40)
	factors["volume_contraction"] = volScore

	factors["mtf_alignment"] = clampScore(snap.MTFAlignment)

	base := 0.30*trendScore + 0.25*pbScore + 0.15*volScore + 0.30*factors["mtf_alignment"]
	return base, factors
}
