package detectors

import (
	"trading-signal-scanner/internal/market"
)

// gammaSqueeze fires when dealers are short gamma, call flow dominates,
// and price is pressing highs, conditions where dealer hedging chases
// the move. Requires an options chain snapshot.
type gammaSqueeze struct{}

func (d *gammaSqueeze) Type() OpportunityType       { return GammaSqueeze }
func (d *gammaSqueeze) Direction() market.Direction { return market.DirectionLong }
func (d *gammaSqueeze) RequiresOptionsData() bool   { return true }

func (d *gammaSqueeze) AssetClasses() []market.AssetClass {
	return []market.AssetClass{market.AssetEquity, market.AssetETF}
}

func (d *gammaSqueeze) Detect(snap *market.FeatureSnapshot, chain *market.OptionsChainSnapshot) bool {
	if chain == nil {
		return false
	}
	// Dealers short gamma: hedging amplifies moves instead of damping them
	if chain.NetGamma >= 0 {
		return false
	}
	// Call-dominated tape
	if chain.PutCallRatio <= 0 || chain.PutCallRatio > 0.7 {
		return false
	}
	// Price pressing the highs with participation
	if snap.DayHigh <= 0 || snap.Price < snap.DayHigh*0.995 {
		return false
	}
	return snap.RelativeVolume() >= 1.3
}

func (d *gammaSqueeze) Score(snap *market.FeatureSnapshot, chain *market.OptionsChainSnapshot) (float64, map[string]float64) {
	factors := map[string]float64{}

	// Short-gamma magnitude, normalized against call volume as a rough
	// proxy for the hedge flow the move can force
	gammaScore := 50.0
	if chain.CallVolume > 0 {
		ratio := -chain.NetGamma / chain.CallVolume
		gammaScore = clampScore(40 + ratio*200)
	}
	factors["dealer_gamma"] = gammaScore

	// Call dominance: lower put/call is more fuel
	factors["call_flow"] = clampScore((0.8 - chain.PutCallRatio) * 140)

	rv := snap.RelativeVolume()
	factors["volume"] = clampScore((rv - 1.0) * 35)

	factors["mtf_alignment"] = clampScore(snap.MTFAlignment)

	base := 0.35*gammaScore + 0.30*factors["call_flow"] + 0.20*factors["volume"] + 0.15*factors["mtf_alignment"]
	return base, factors
}
