package detectors

import (
	"math"

	"trading-signal-scanner/internal/market"
)

// vwapReclaim fires when price has washed out below VWAP, stabilized, and
// is reclaiming it from below, a fade back to fair value.
type vwapReclaim struct{}

func (d *vwapReclaim) Type() OpportunityType       { return VWAPReclaim }
func (d *vwapReclaim) Direction() market.Direction { return market.DirectionLong }
func (d *vwapReclaim) RequiresOptionsData() bool   { return false }

func (d *vwapReclaim) AssetClasses() []market.AssetClass {
	return []market.AssetClass{market.AssetEquity, market.AssetETF, market.AssetIndex, market.AssetCrypto}
}

func (d *vwapReclaim) Detect(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) bool {
	if snap.VWAP <= 0 || snap.Price <= 0 {
		return false
	}
	// Price within reach of VWAP from below
	distPct := (snap.VWAP - snap.Price) / snap.Price * 100
	if distPct < -0.1 || distPct > 0.5 {
		return false
	}
	// The day must have stretched meaningfully below VWAP at some point
	if snap.DayLow <= 0 || (snap.VWAP-snap.DayLow)/snap.VWAP*100 < 0.75 {
		return false
	}
	b, ok := snap.Timeframes["5m"]
	if !ok {
		return false
	}
	// RSI recovering out of oversold, not already overbought
	return b.RSI >= 35 && b.RSI <= 60
}

func (d *vwapReclaim) Score(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) (float64, map[string]float64) {
	factors := map[string]float64{}

	// Proximity to VWAP: tighter is better for the reclaim entry
	distPct := math.Abs(snap.VWAP-snap.Price) / snap.Price * 100
	factors["vwap_proximity"] = clampScore(100 - distPct*150)

	// Washout depth: a deeper flush means a stronger snap-back
	depthPct := (snap.VWAP - snap.DayLow) / snap.VWAP * 100
	factors["washout_depth"] = clampScore(depthPct * 35)

	b := snap.Timeframes["5m"]
	// RSI recovery slope proxy: midway out of oversold scores best
	rsiScore := clampScore(100 - math.Abs(b.RSI-47)*4)
	factors["rsi_recovery"] = rsiScore

	rv := snap.RelativeVolume()
	factors["volume"] = clampScore(rv * 30)

	base := 0.30*factors["vwap_proximity"] + 0.25*factors["washout_depth"] + 0.25*rsiScore + 0.20*factors["volume"]
	return base, factors
}
