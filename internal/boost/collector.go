package boost

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trading-signal-scanner/internal/market"
	"trading-signal-scanner/internal/scoring"
)

// Collector fans out the five context lookups concurrently and gathers
// whatever came back in time. Partial availability is normal: a failed or
// slow lookup just leaves its field nil.
type Collector struct {
	provider ContextProvider
	timeout  time.Duration
	mags     Magnitudes
	logger   zerolog.Logger
}

// NewCollector creates a collector. A nil provider is valid and yields
// snapshot-sourced context only.
func NewCollector(provider ContextProvider, timeout time.Duration, mags Magnitudes, logger zerolog.Logger) *Collector {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Collector{
		provider: provider,
		timeout:  timeout,
		mags:     mags,
		logger:   logger.With().Str("component", "ContextCollector").Logger(),
	}
}

// Collect gathers context for one symbol. Provider lookups win; fields
// the provider could not serve fall back to the snapshot's own optional
// context fields, which are part of the documented snapshot contract.
func (c *Collector) Collect(ctx context.Context, snap *market.FeatureSnapshot) ContextData {
	var data ContextData

	if c.provider != nil {
		lctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var wg sync.WaitGroup
		var mu sync.Mutex

		fetch := func(name string, fn func() error) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := fn(); err != nil {
					c.logger.Debug().
						Str("symbol", snap.Symbol).
						Str("lookup", name).
						Err(err).
						Msg("context lookup unavailable")
				}
			}()
		}

		fetch("iv_percentile", func() error {
			v, err := c.provider.IVPercentile(lctx, snap.Symbol)
			if err != nil {
				return err
			}
			mu.Lock()
			data.IVPercentile = &v
			mu.Unlock()
			return nil
		})
		fetch("gamma_exposure", func() error {
			v, err := c.provider.GammaExposure(lctx, snap.Symbol)
			if err != nil {
				return err
			}
			mu.Lock()
			data.GammaExposure = &v
			mu.Unlock()
			return nil
		})
		fetch("mtf_alignment", func() error {
			v, err := c.provider.MTFAlignment(lctx, snap.Symbol)
			if err != nil {
				return err
			}
			mu.Lock()
			data.MTFAlignment = &v
			mu.Unlock()
			return nil
		})
		fetch("flow_sentiment", func() error {
			v, err := c.provider.FlowSentiment(lctx, snap.Symbol)
			if err != nil {
				return err
			}
			mu.Lock()
			data.FlowSentiment = &v
			mu.Unlock()
			return nil
		})
		fetch("market_regime", func() error {
			v, err := c.provider.MarketRegime(lctx, snap.Symbol)
			if err != nil {
				return err
			}
			mu.Lock()
			data.Regime = &v
			mu.Unlock()
			return nil
		})

		wg.Wait()
	}

	// Snapshot fallbacks for fields the provider did not serve
	if data.IVPercentile == nil && snap.IVPercentile != nil {
		data.IVPercentile = snap.IVPercentile
	}
	if data.GammaExposure == nil && snap.GammaExposure != nil {
		data.GammaExposure = snap.GammaExposure
	}
	if data.FlowSentiment == nil && snap.FlowAlignment != nil {
		data.FlowSentiment = snap.FlowAlignment
	}
	if data.MTFAlignment == nil && snap.MTFAlignment > 0 {
		v := snap.MTFAlignment
		data.MTFAlignment = &v
	}

	return data
}

// Apply nudges the per-style scores with whatever context came back and
// returns the adjusted scores plus the reasons for each nudge. Missing
// sources contribute nothing. regime is the snapshot's own regime
// classification, compared against the provider's independent reading.
func (c *Collector) Apply(scores map[scoring.Style]float64, direction market.Direction, regime market.Regime, data ContextData) (map[scoring.Style]float64, []string) {
	adjusted := map[scoring.Style]float64{}
	for k, v := range scores {
		adjusted[k] = v
	}
	var reasons []string

	bump := func(style scoring.Style, delta float64) {
		adjusted[style] = clamp100(adjusted[style] + delta)
	}

	if data.IVPercentile != nil {
		// Cheap vol helps directional entries across all styles
		if *data.IVPercentile < 30 {
			for _, s := range scoring.AllStyles() {
				bump(s, c.mags.IVBoost)
			}
			reasons = append(reasons, "low IV percentile boost")
		} else if *data.IVPercentile > 80 {
			for _, s := range scoring.AllStyles() {
				bump(s, -c.mags.IVBoost)
			}
			reasons = append(reasons, "elevated IV percentile penalty")
		}
	}

	if data.GammaExposure != nil {
		// Short dealer gamma amplifies intraday moves
		if *data.GammaExposure < 0 {
			bump(scoring.StyleScalp, c.mags.GammaBoost)
			bump(scoring.StyleDay, c.mags.GammaBoost/2)
			reasons = append(reasons, "negative gamma exposure boost")
		}
	}

	if data.MTFAlignment != nil {
		if *data.MTFAlignment >= 70 {
			bump(scoring.StyleSwing, c.mags.MTFBoost)
			bump(scoring.StyleDay, c.mags.MTFBoost/2)
			reasons = append(reasons, "multi-timeframe alignment boost")
		} else if *data.MTFAlignment <= 30 {
			bump(scoring.StyleSwing, -c.mags.MTFBoost)
			reasons = append(reasons, "multi-timeframe misalignment penalty")
		}
	}

	if data.Regime != nil && regime != "" {
		// A second opinion on the regime read: agreement firms up every
		// style, contradiction says one of the two reads is wrong
		if *data.Regime == regime {
			for _, s := range scoring.AllStyles() {
				bump(s, c.mags.RegimeBoost)
			}
			reasons = append(reasons, "regime reading confirmed")
		} else {
			for _, s := range scoring.AllStyles() {
				bump(s, -c.mags.RegimeBoost)
			}
			reasons = append(reasons, "regime reading contradicted")
		}
	}

	if data.FlowSentiment != nil {
		// Sentiment in [-1, 1]; reward flow agreeing with the direction
		aligned := (*data.FlowSentiment > 0.2 && direction == market.DirectionLong) ||
			(*data.FlowSentiment < -0.2 && direction == market.DirectionShort)
		opposed := (*data.FlowSentiment < -0.2 && direction == market.DirectionLong) ||
			(*data.FlowSentiment > 0.2 && direction == market.DirectionShort)
		if aligned {
			for _, s := range scoring.AllStyles() {
				bump(s, c.mags.FlowBoost)
			}
			reasons = append(reasons, "order flow aligned")
		} else if opposed {
			for _, s := range scoring.AllStyles() {
				bump(s, -c.mags.FlowBoost)
			}
			reasons = append(reasons, "order flow opposed")
		}
	}

	return adjusted, reasons
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
