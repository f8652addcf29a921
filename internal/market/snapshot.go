package market

import (
	"fmt"
	"math"
	"time"
)

// Weekend reports whether the snapshot falls on a Saturday or Sunday
func (s *FeatureSnapshot) Weekend() bool {
	wd := s.Timestamp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Indicators returns the bundle for a timeframe, falling back to a faster
// timeframe when the primary one is absent. The returned string names the
// timeframe that actually served the bundle.
func (s *FeatureSnapshot) Indicators(primary, fallback string) (IndicatorBundle, string, bool) {
	if b, ok := s.Timeframes[primary]; ok && b.ATR > 0 {
		return b, primary, true
	}
	if b, ok := s.Timeframes[fallback]; ok && b.ATR > 0 {
		return b, fallback, true
	}
	return IndicatorBundle{}, "", false
}

// ATRPercent returns ATR as a percentage of price for the given timeframe
func (s *FeatureSnapshot) ATRPercent(timeframe string) float64 {
	b, ok := s.Timeframes[timeframe]
	if !ok || s.Price <= 0 {
		return 0
	}
	return (b.ATR / s.Price) * 100
}

// RelativeVolume returns current volume as a multiple of average volume
func (s *FeatureSnapshot) RelativeVolume() float64 {
	if s.AvgVolume <= 0 {
		return 0
	}
	return s.Volume / s.AvgVolume
}

// VolumeSpike reports whether relative volume meets the spike multiple
func (s *FeatureSnapshot) VolumeSpike(multiple float64) bool {
	return s.RelativeVolume() >= multiple
}

// NearKeyLevel reports whether price sits within tolerancePct of the VWAP
// or either opening-range boundary.
func (s *FeatureSnapshot) NearKeyLevel(tolerancePct float64) bool {
	if s.Price <= 0 {
		return false
	}
	for _, level := range []float64{s.VWAP, s.ORBHigh, s.ORBLow} {
		if level <= 0 {
			continue
		}
		if math.Abs(s.Price-level)/s.Price*100 <= tolerancePct {
			return true
		}
	}
	return false
}

// RSIExtreme reports whether the given timeframe's RSI is overbought or oversold
func (s *FeatureSnapshot) RSIExtreme(timeframe string) bool {
	b, ok := s.Timeframes[timeframe]
	if !ok {
		return false
	}
	return b.RSI >= 70 || (b.RSI > 0 && b.RSI <= 30)
}

// Validate performs the universal pre-filter sanity checks
func (s *FeatureSnapshot) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("snapshot missing symbol")
	}
	if s.Price <= 0 {
		return fmt.Errorf("snapshot for %s has non-positive price %.4f", s.Symbol, s.Price)
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("snapshot for %s has zero timestamp", s.Symbol)
	}
	return nil
}

// Sufficient reports whether the chain has enough strikes behind it for
// the IV analysis to be trusted.
func (c *OptionsChainSnapshot) Sufficient(minDataPoints int) bool {
	return c != nil && c.DataPoints >= minDataPoints
}
