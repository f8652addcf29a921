package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trading-signal-scanner/internal/boost"
	"trading-signal-scanner/internal/dedup"
	"trading-signal-scanner/internal/detectors"
	"trading-signal-scanner/internal/market"
	"trading-signal-scanner/internal/risk"
	"trading-signal-scanner/internal/scoring"
	"trading-signal-scanner/internal/thresholds"
)

func newTestScanner() *CompositeScanner {
	return newTestScannerWith(Config{MinConfidence: 40, DiagnosticsEnabled: true, IVMinDataPoints: 20})
}

func newTestScannerWith(cfg Config) *CompositeScanner {
	logger := zerolog.Nop()
	return NewCompositeScanner(
		cfg,
		detectors.NewRegistry(logger),
		scoring.NewStyleModifier(scoring.DefaultStyleModifierConfig()),
		thresholds.NewCalculator(),
		risk.NewCalculator(),
		boost.NewCollector(nil, time.Second, boost.DefaultMagnitudes(), logger),
		dedup.NewMemoryStore(dedup.DefaultConfig()),
		nil,
		logger,
	)
}

// breakoutSnapshot is a complete trending opening-drive snapshot that
// clears every stage of the pipeline.
func breakoutSnapshot() *market.FeatureSnapshot {
	return &market.FeatureSnapshot{
		Symbol:           "AAPL",
		AssetClass:       market.AssetEquity,
		Timestamp:        time.Date(2025, 3, 4, 14, 55, 0, 0, time.UTC), // Tuesday
		Price:            100.8,
		Volume:           2_000_000,
		AvgVolume:        1_000_000,
		VWAP:             100.3,
		ORBHigh:          100.5,
		ORBLow:           100.0,
		DayHigh:          100.8,
		DayLow:           99.8,
		PrevClose:        100.0,
		MinutesSinceOpen: 25,
		MinutesToClose:   365,
		RegularHours:     true,
		Timeframes: map[string]market.IndicatorBundle{
			"1m":  {ATR: 0.15, RSI: 62},
			"5m":  {ATR: 0.5, RSI: 62, EMA9: 100.4, EMA21: 100.2, EMA50: 100.0},
			"15m": {ATR: 0.9, RSI: 60},
			"1h":  {ATR: 1.4, RSI: 58},
			"1d":  {ATR: 2.5, RSI: 58},
		},
		MTFAlignment: 75,
		Regime:       market.RegimeTrending,
		VolLevel:     market.VolMedium,
		VIX:          18,
	}
}

func TestScanSymbolEmitsBreakoutSignal(t *testing.T) {
	cs := newTestScanner()
	result := cs.ScanSymbol(context.Background(), breakoutSnapshot(), nil)

	if result.Filtered {
		t.Fatalf("evaluation filtered: %s", result.FilterReason)
	}
	sig := result.Signal
	if sig == nil {
		t.Fatal("no signal emitted")
	}

	if sig.OpportunityType != detectors.OpeningRangeBreakout {
		t.Errorf("type = %s, want opening_range_breakout", sig.OpportunityType)
	}
	if sig.Direction != market.DirectionLong {
		t.Errorf("direction = %s, want LONG", sig.Direction)
	}
	if sig.RecommendedStyle != scoring.StyleScalp {
		t.Errorf("style = %s, want scalp in the opening drive", sig.RecommendedStyle)
	}
	if sig.Status != StatusActive {
		t.Errorf("status = %s, want ACTIVE", sig.Status)
	}
	if sig.RiskReward < 1.5 {
		t.Errorf("risk/reward = %.2f, want >= 1.5", sig.RiskReward)
	}
	if sig.SizeMultiplier <= 0 {
		t.Errorf("size multiplier = %.2f, want positive on a weekday", sig.SizeMultiplier)
	}
	if sig.Entry != 100.8 {
		t.Errorf("entry = %.2f, want snapshot price", sig.Entry)
	}
	if sig.ExpiresAt != sig.CreatedAt.Add(30*time.Minute) {
		t.Errorf("scalp expiry = %s, want created+30m", sig.ExpiresAt)
	}
	if result.DetectionCount < 2 {
		t.Errorf("detection count = %d, want ORB and momentum both firing", result.DetectionCount)
	}
	if result.Diagnostics == nil || result.Diagnostics.Thresholds == nil {
		t.Error("diagnostics bundle missing with diagnostics enabled")
	}
}

func TestScanSymbolIsDeterministicUpToID(t *testing.T) {
	a := newTestScanner().ScanSymbol(context.Background(), breakoutSnapshot(), nil)
	b := newTestScanner().ScanSymbol(context.Background(), breakoutSnapshot(), nil)

	if a.Signal == nil || b.Signal == nil {
		t.Fatal("expected signals from both runs")
	}
	if a.Signal.BaseScore != b.Signal.BaseScore {
		t.Errorf("base scores differ: %.4f vs %.4f", a.Signal.BaseScore, b.Signal.BaseScore)
	}
	if a.Signal.RecommendedStyleScore != b.Signal.RecommendedStyleScore {
		t.Errorf("style scores differ: %.4f vs %.4f", a.Signal.RecommendedStyleScore, b.Signal.RecommendedStyleScore)
	}
	if a.Signal.BarTimeKey != b.Signal.BarTimeKey {
		t.Errorf("bar time keys differ: %s vs %s", a.Signal.BarTimeKey, b.Signal.BarTimeKey)
	}
}

func TestSameBarResubmitIsDuplicate(t *testing.T) {
	cs := newTestScanner()
	ctx := context.Background()

	first := cs.ScanSymbol(ctx, breakoutSnapshot(), nil)
	if first.Signal == nil {
		t.Fatalf("first scan filtered: %s", first.FilterReason)
	}

	// Same bar re-evaluated (e.g. two ticks inside one minute)
	snap := breakoutSnapshot()
	snap.Timestamp = snap.Timestamp.Add(20 * time.Second)
	second := cs.ScanSymbol(ctx, snap, nil)
	if !second.Filtered {
		t.Fatal("same-bar resubmit must be filtered")
	}
	if second.FilterReasonCode() != ReasonDuplicateSignal {
		t.Errorf("reason = %s, want %s", second.FilterReasonCode(), ReasonDuplicateSignal)
	}
}

func TestNextBarInsideCooldown(t *testing.T) {
	cs := newTestScanner()
	ctx := context.Background()

	if res := cs.ScanSymbol(ctx, breakoutSnapshot(), nil); res.Signal == nil {
		t.Fatalf("seed scan filtered: %s", res.FilterReason)
	}

	snap := breakoutSnapshot()
	snap.Timestamp = snap.Timestamp.Add(5 * time.Minute)
	res := cs.ScanSymbol(ctx, snap, nil)
	if res.FilterReasonCode() != ReasonCooldownActive {
		t.Errorf("reason = %s, want %s", res.FilterReasonCode(), ReasonCooldownActive)
	}
}

func TestInvalidSnapshotRejected(t *testing.T) {
	cs := newTestScanner()
	snap := breakoutSnapshot()
	snap.Price = 0

	res := cs.ScanSymbol(context.Background(), snap, nil)
	if res.FilterReasonCode() != ReasonInvalidSnapshot {
		t.Errorf("reason = %s, want %s", res.FilterReasonCode(), ReasonInvalidSnapshot)
	}
}

func TestThinSnapshotFailsConfidence(t *testing.T) {
	cs := newTestScanner()
	snap := &market.FeatureSnapshot{
		Symbol:    "AAPL",
		Price:     100.8,
		Timestamp: time.Date(2025, 3, 4, 14, 55, 0, 0, time.UTC),
	}

	res := cs.ScanSymbol(context.Background(), snap, nil)
	if res.FilterReasonCode() != ReasonLowConfidence {
		t.Errorf("reason = %s, want %s", res.FilterReasonCode(), ReasonLowConfidence)
	}
}

func TestQuietTapeHasNoDetection(t *testing.T) {
	cs := newTestScanner()
	snap := breakoutSnapshot()
	snap.Price = 100.2 // inside the range, off the highs
	snap.DayHigh = 100.8
	snap.Volume = 900_000 // below average

	res := cs.ScanSymbol(context.Background(), snap, nil)
	if res.FilterReasonCode() != ReasonNoDetection {
		t.Errorf("reason = %s, want %s", res.FilterReasonCode(), ReasonNoDetection)
	}
}

func TestChoppyRegimeDisablesCategory(t *testing.T) {
	cs := newTestScanner()
	snap := breakoutSnapshot()
	snap.Regime = market.RegimeChoppy

	res := cs.ScanSymbol(context.Background(), snap, nil)
	if res.FilterReasonCode() != ReasonCategoryDisabled {
		t.Errorf("reason = %s, want %s", res.FilterReasonCode(), ReasonCategoryDisabled)
	}
}

func TestExtremeIVBlocksDebitEntry(t *testing.T) {
	cs := newTestScanner()
	chain := &market.OptionsChainSnapshot{
		Symbol:       "AAPL",
		IVPercentile: 95,
		DataPoints:   60,
	}

	res := cs.ScanSymbol(context.Background(), breakoutSnapshot(), chain)
	if res.FilterReasonCode() != ReasonIVGateBlocked {
		t.Errorf("reason = %s, want %s", res.FilterReasonCode(), ReasonIVGateBlocked)
	}
}

func TestThinChainDoesNotGate(t *testing.T) {
	cs := newTestScanner()
	chain := &market.OptionsChainSnapshot{
		Symbol:       "AAPL",
		IVPercentile: 95,
		DataPoints:   5, // below the sufficiency threshold
	}

	res := cs.ScanSymbol(context.Background(), breakoutSnapshot(), chain)
	if res.Signal == nil {
		t.Errorf("thin chain must not gate; filtered with %s", res.FilterReason)
	}
}

func TestMinConfidenceComesFromConfig(t *testing.T) {
	cs := newTestScannerWith(Config{MinConfidence: 95, IVMinDataPoints: 20})
	snap := breakoutSnapshot()
	snap.VIX = 0
	snap.MTFAlignment = 0

	res := cs.ScanSymbol(context.Background(), snap, nil)
	if res.FilterReasonCode() != ReasonLowConfidence {
		t.Errorf("reason = %s, want %s under a raised confidence bar", res.FilterReasonCode(), ReasonLowConfidence)
	}

	// The same snapshot clears the default bar
	if res := newTestScanner().ScanSymbol(context.Background(), snap, nil); res.FilterReasonCode() == ReasonLowConfidence {
		t.Errorf("default confidence bar rejected a near-complete snapshot: %s", res.FilterReason)
	}
}

func TestIVSufficiencyComesFromConfig(t *testing.T) {
	cs := newTestScannerWith(Config{MinConfidence: 40, IVMinDataPoints: 100})
	chain := &market.OptionsChainSnapshot{
		Symbol:       "AAPL",
		IVPercentile: 95,
		DataPoints:   60, // sufficient by default, thin under the raised bar
	}

	res := cs.ScanSymbol(context.Background(), breakoutSnapshot(), chain)
	if res.Signal == nil {
		t.Errorf("chain below the configured sufficiency bar must not gate; filtered with %s", res.FilterReason)
	}
}

func TestWeekendSignalHasZeroSize(t *testing.T) {
	cs := newTestScanner()
	snap := breakoutSnapshot()
	snap.Timestamp = time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC) // Saturday
	// Strong enough to clear the weekend style-score bar despite the
	// 0.55 off-session multiplier cap
	snap.Price = 101.0
	snap.DayHigh = 101.0
	snap.Volume = 3_000_000

	res := cs.ScanSymbol(context.Background(), snap, nil)
	if res.Signal == nil {
		t.Fatalf("weekend setup filtered: %s", res.FilterReason)
	}
	if res.Signal.SizeMultiplier != 0 {
		t.Errorf("weekend size multiplier = %.2f, want 0", res.Signal.SizeMultiplier)
	}
}

func TestBarTimeKeyTruncatesToMinute(t *testing.T) {
	ts := time.Date(2025, 3, 4, 14, 55, 42, 0, time.UTC)
	a := BarTimeKey(ts, "AAPL", detectors.OpeningRangeBreakout)
	b := BarTimeKey(ts.Add(10*time.Second), "AAPL", detectors.OpeningRangeBreakout)
	c := BarTimeKey(ts.Add(time.Minute), "AAPL", detectors.OpeningRangeBreakout)

	if a != b {
		t.Errorf("keys within one minute differ: %s vs %s", a, b)
	}
	if a == c {
		t.Error("keys across minutes must differ")
	}
}

func TestTransitionOnce(t *testing.T) {
	sig := &CompositeSignal{ID: "x", Status: StatusActive}

	if err := sig.Transition(StatusFilled); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if err := sig.Transition(StatusExpired); err == nil {
		t.Error("second transition must fail")
	}
	if sig.Status != StatusFilled {
		t.Errorf("status = %s, want FILLED preserved", sig.Status)
	}

	fresh := &CompositeSignal{ID: "y", Status: StatusActive}
	if err := fresh.Transition(StatusActive); err == nil {
		t.Error("transition back to ACTIVE must fail")
	}
	if err := fresh.Transition(SignalStatus("bogus")); err == nil {
		t.Error("unknown status must fail")
	}
}
