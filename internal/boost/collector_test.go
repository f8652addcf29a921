package boost

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trading-signal-scanner/internal/market"
	"trading-signal-scanner/internal/scoring"
)

type fakeProvider struct {
	iv, gamma, mtf, flow float64
	regime               market.Regime
	failIV               bool
}

func (p *fakeProvider) IVPercentile(context.Context, string) (float64, error) {
	if p.failIV {
		return 0, errors.New("provider down")
	}
	return p.iv, nil
}
func (p *fakeProvider) GammaExposure(context.Context, string) (float64, error) { return p.gamma, nil }
func (p *fakeProvider) MTFAlignment(context.Context, string) (float64, error)  { return p.mtf, nil }
func (p *fakeProvider) FlowSentiment(context.Context, string) (float64, error) { return p.flow, nil }
func (p *fakeProvider) MarketRegime(context.Context, string) (market.Regime, error) {
	return p.regime, nil
}

func TestCollectProviderWins(t *testing.T) {
	provider := &fakeProvider{iv: 25, gamma: -1e9, mtf: 80, flow: 0.5, regime: market.RegimeTrending}
	c := NewCollector(provider, time.Second, DefaultMagnitudes(), zerolog.Nop())

	snapIV := 90.0
	snap := &market.FeatureSnapshot{Symbol: "AAPL", IVPercentile: &snapIV, MTFAlignment: 10}

	data := c.Collect(context.Background(), snap)
	if data.IVPercentile == nil || *data.IVPercentile != 25 {
		t.Errorf("IVPercentile = %v, want provider value 25", data.IVPercentile)
	}
	if data.MTFAlignment == nil || *data.MTFAlignment != 80 {
		t.Errorf("MTFAlignment = %v, want provider value 80", data.MTFAlignment)
	}
	if data.GammaExposure == nil || *data.GammaExposure != -1e9 {
		t.Errorf("GammaExposure = %v, want provider value", data.GammaExposure)
	}
}

func TestCollectFailedLookupFallsBack(t *testing.T) {
	provider := &fakeProvider{failIV: true, mtf: 80}
	c := NewCollector(provider, time.Second, DefaultMagnitudes(), zerolog.Nop())

	snapIV := 90.0
	snap := &market.FeatureSnapshot{Symbol: "AAPL", IVPercentile: &snapIV}

	data := c.Collect(context.Background(), snap)
	// One failed lookup never poisons the rest
	if data.MTFAlignment == nil || *data.MTFAlignment != 80 {
		t.Errorf("MTFAlignment = %v, want 80 despite IV failure", data.MTFAlignment)
	}
	if data.IVPercentile == nil || *data.IVPercentile != 90 {
		t.Errorf("IVPercentile = %v, want snapshot fallback 90", data.IVPercentile)
	}
}

func TestCollectNilProviderUsesSnapshot(t *testing.T) {
	c := NewCollector(nil, time.Second, DefaultMagnitudes(), zerolog.Nop())

	gamma := -5e8
	snap := &market.FeatureSnapshot{Symbol: "AAPL", GammaExposure: &gamma, MTFAlignment: 60}

	data := c.Collect(context.Background(), snap)
	if data.GammaExposure == nil || *data.GammaExposure != gamma {
		t.Errorf("GammaExposure = %v, want snapshot value", data.GammaExposure)
	}
	if data.MTFAlignment == nil || *data.MTFAlignment != 60 {
		t.Errorf("MTFAlignment = %v, want snapshot value 60", data.MTFAlignment)
	}
	if data.IVPercentile != nil {
		t.Errorf("IVPercentile = %v, want nil when nothing served it", data.IVPercentile)
	}
}

func TestApplyBoosts(t *testing.T) {
	c := NewCollector(nil, time.Second, DefaultMagnitudes(), zerolog.Nop())
	base := map[scoring.Style]float64{
		scoring.StyleScalp: 70,
		scoring.StyleDay:   70,
		scoring.StyleSwing: 70,
	}

	lowIV := 20.0
	negGamma := -1e9
	strongMTF := 80.0
	data := ContextData{IVPercentile: &lowIV, GammaExposure: &negGamma, MTFAlignment: &strongMTF}

	adjusted, reasons := c.Apply(base, market.DirectionLong, market.RegimeTrending, data)

	// low IV +4 all, negative gamma +5 scalp (+2.5 day), MTF +6 swing (+3 day)
	if got := adjusted[scoring.StyleScalp]; got != 79 {
		t.Errorf("scalp = %.1f, want 79", got)
	}
	if got := adjusted[scoring.StyleDay]; got != 79.5 {
		t.Errorf("day = %.1f, want 79.5", got)
	}
	if got := adjusted[scoring.StyleSwing]; got != 80 {
		t.Errorf("swing = %.1f, want 80", got)
	}
	if len(reasons) != 3 {
		t.Errorf("reasons = %v, want 3 entries", reasons)
	}
	// Input map untouched
	if base[scoring.StyleScalp] != 70 {
		t.Error("Apply mutated the input scores")
	}
}

func TestApplyFlowDirectionality(t *testing.T) {
	c := NewCollector(nil, time.Second, DefaultMagnitudes(), zerolog.Nop())
	base := map[scoring.Style]float64{scoring.StyleScalp: 50, scoring.StyleDay: 50, scoring.StyleSwing: 50}

	bullFlow := 0.6
	data := ContextData{FlowSentiment: &bullFlow}

	up, _ := c.Apply(base, market.DirectionLong, market.RegimeTrending, data)
	if up[scoring.StyleScalp] != 55 {
		t.Errorf("aligned flow scalp = %.1f, want 55", up[scoring.StyleScalp])
	}
	down, _ := c.Apply(base, market.DirectionShort, market.RegimeTrending, data)
	if down[scoring.StyleScalp] != 45 {
		t.Errorf("opposed flow scalp = %.1f, want 45", down[scoring.StyleScalp])
	}
}

func TestApplyRegimeConfirmation(t *testing.T) {
	c := NewCollector(nil, time.Second, DefaultMagnitudes(), zerolog.Nop())
	base := map[scoring.Style]float64{scoring.StyleScalp: 50, scoring.StyleDay: 50, scoring.StyleSwing: 50}

	trending := market.RegimeTrending
	data := ContextData{Regime: &trending}

	up, reasons := c.Apply(base, market.DirectionLong, market.RegimeTrending, data)
	for _, s := range scoring.AllStyles() {
		if up[s] != 53 {
			t.Errorf("confirmed regime %s = %.1f, want 53", s, up[s])
		}
	}
	if len(reasons) != 1 {
		t.Errorf("reasons = %v, want the confirmation entry only", reasons)
	}

	down, _ := c.Apply(base, market.DirectionLong, market.RegimeChoppy, data)
	for _, s := range scoring.AllStyles() {
		if down[s] != 47 {
			t.Errorf("contradicted regime %s = %.1f, want 47", s, down[s])
		}
	}

	// Unknown snapshot regime: nothing to agree or disagree with
	flat, reasons := c.Apply(base, market.DirectionLong, "", data)
	if flat[scoring.StyleScalp] != 50 || len(reasons) != 0 {
		t.Errorf("unclassified snapshot adjusted scores: %v %v", flat, reasons)
	}
}

func TestApplyClampsAt100(t *testing.T) {
	c := NewCollector(nil, time.Second, DefaultMagnitudes(), zerolog.Nop())
	base := map[scoring.Style]float64{scoring.StyleScalp: 99, scoring.StyleDay: 99, scoring.StyleSwing: 99}

	lowIV := 10.0
	data := ContextData{IVPercentile: &lowIV}
	adjusted, _ := c.Apply(base, market.DirectionLong, market.RegimeTrending, data)
	for s, v := range adjusted {
		if v > 100 {
			t.Errorf("%s = %.1f escaped the 100 ceiling", s, v)
		}
	}
}
