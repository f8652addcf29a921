package detectors

import (
	"trading-signal-scanner/internal/market"
)

// rsiExhaustion fires a short against a vertical move that has pushed RSI
// deep into overbought while extending far above VWAP.
type rsiExhaustion struct{}

func (d *rsiExhaustion) Type() OpportunityType       { return RSIExhaustion }
func (d *rsiExhaustion) Direction() market.Direction { return market.DirectionShort }
func (d *rsiExhaustion) RequiresOptionsData() bool   { return false }

func (d *rsiExhaustion) AssetClasses() []market.AssetClass {
	return []market.AssetClass{market.AssetEquity, market.AssetETF, market.AssetCrypto}
}

func (d *rsiExhaustion) Detect(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) bool {
	b, ok := snap.Timeframes["5m"]
	if !ok {
		return false
	}
	if b.RSI < 78 {
		return false
	}
	// Extension above VWAP of at least 1.5 ATRs
	if snap.VWAP <= 0 || b.ATR <= 0 {
		return false
	}
	return snap.Price-snap.VWAP >= b.ATR*1.5
}

func (d *rsiExhaustion) Score(snap *market.FeatureSnapshot, _ *market.OptionsChainSnapshot) (float64, map[string]float64) {
	factors := map[string]float64{}

	b := snap.Timeframes["5m"]
	// RSI severity: 78 scores 50, 90+ scores 100
	factors["rsi_severity"] = clampScore(50 + (b.RSI-78)*4.2)

	// Extension in ATRs above VWAP
	ext := (snap.Price - snap.VWAP) / b.ATR
	factors["vwap_extension"] = clampScore(ext * 30)

	// Fading volume on the push suggests the move is running out of buyers
	rv := snap.RelativeVolume()
	volScore := 40.0
	if rv < 1.0 {
		volScore = 80
	} else if rv < 1.5 {
		volScore = 60
	}
	factors["volume_fade"] = volScore

	// A short wants higher timeframes NOT confirming the vertical move
	factors["mtf_divergence"] = clampScore(100 - snap.MTFAlignment)

	base := 0.35*factors["rsi_severity"] + 0.30*factors["vwap_extension"] + 0.15*volScore + 0.20*factors["mtf_divergence"]
	return base, factors
}
