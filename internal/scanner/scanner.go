package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trading-signal-scanner/internal/boost"
	"trading-signal-scanner/internal/dedup"
	"trading-signal-scanner/internal/detectors"
	"trading-signal-scanner/internal/market"
	"trading-signal-scanner/internal/metrics"
	"trading-signal-scanner/internal/options"
	"trading-signal-scanner/internal/risk"
	"trading-signal-scanner/internal/scoring"
	"trading-signal-scanner/internal/thresholds"
)

// ReasonDedupError marks a history-store infrastructure failure. It is a
// filtered outcome, not a crash: a broken store must never let a
// possibly-duplicate signal through.
const ReasonDedupError = "dedup_error"

// signalExpiry is the per-style lifetime of an accepted signal
var signalExpiry = map[scoring.Style]time.Duration{
	scoring.StyleScalp: 30 * time.Minute,
	scoring.StyleDay:   4 * time.Hour,
	scoring.StyleSwing: 48 * time.Hour,
}

// Config holds the composite scanner's own knobs
type Config struct {
	MinConfidence      float64 // confidence filter threshold
	DiagnosticsEnabled bool
	IVMinDataPoints    int
}

// CompositeScanner sequences detection, scoring, context boosts, adaptive
// thresholds, the IV gate, risk computation, validation, and dedup into
// one evaluation per (symbol, snapshot).
type CompositeScanner struct {
	cfg        Config
	registry   *detectors.Registry
	styles     *scoring.StyleModifier
	confidence *scoring.ConfidenceScorer
	thresholds *thresholds.Calculator
	ivGate     *options.Gate
	riskCalc   *risk.Calculator
	collector  *boost.Collector
	history    dedup.HistoryStore
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewCompositeScanner wires the pipeline. The confidence scorer and IV
// gate are derived from cfg so their thresholds cannot drift apart from
// the scanner's own view of them. metrics may be nil.
func NewCompositeScanner(
	cfg Config,
	registry *detectors.Registry,
	styles *scoring.StyleModifier,
	thresholdCalc *thresholds.Calculator,
	riskCalc *risk.Calculator,
	collector *boost.Collector,
	history dedup.HistoryStore,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *CompositeScanner {
	return &CompositeScanner{
		cfg:        cfg,
		registry:   registry,
		styles:     styles,
		confidence: scoring.NewConfidenceScorer(cfg.MinConfidence),
		thresholds: thresholdCalc,
		ivGate:     options.NewGate(cfg.IVMinDataPoints),
		riskCalc:   riskCalc,
		collector:  collector,
		history:    history,
		metrics:    m,
		logger:     logger.With().Str("component", "CompositeScanner").Logger(),
	}
}

// ScanSymbol evaluates one snapshot and returns either a validated signal
// or a filtered result with a specific reason. Every rejection names the
// stage that produced it.
func (cs *CompositeScanner) ScanSymbol(ctx context.Context, snap *market.FeatureSnapshot, chain *market.OptionsChainSnapshot) (result ScanResult) {
	start := time.Now()
	result.Symbol = snap.Symbol
	diag := &Diagnostics{}

	defer func() {
		result.Duration = time.Since(start)
		if cs.cfg.DiagnosticsEnabled {
			result.Diagnostics = diag
		}
		cs.record(&result)
	}()

	// 1. Universal pre-filter
	if err := snap.Validate(); err != nil {
		return cs.filtered(&result, fmt.Sprintf("%s: %v", ReasonInvalidSnapshot, err))
	}

	// 2. Confidence gate, before anything expensive
	conf := cs.confidence.Score(snap)
	diag.Confidence = conf
	if !conf.Passed {
		return cs.filtered(&result, fmt.Sprintf("%s: %.0f below threshold", ReasonLowConfidence, conf.Score))
	}

	// 3. Detection across applicable detectors
	matches := cs.registry.DetectAll(snap, chain)
	result.DetectionCount = len(matches)
	if len(matches) == 0 {
		return cs.filtered(&result, ReasonNoDetection)
	}

	// 4. Score every detected opportunity independently
	opps := make([]DetectedOpportunity, 0, len(matches))
	for _, m := range matches {
		dampened := clamp100(m.BaseScore * conf.Factor)
		styleRes := cs.styles.Compute(dampened, snap)
		opps = append(opps, DetectedOpportunity{
			Match:       m,
			BaseScore:   dampened,
			StyleResult: styleRes,
			StyleScores: styleRes.Scores,
			Recommended: styleRes.Recommended,
		})
	}

	// 5. Best-effort context boosts, recomputing the recommendation
	ctxData := cs.collector.Collect(ctx, snap)
	diag.Context = &ctxData
	for i := range opps {
		boosted, reasons := cs.collector.Apply(opps[i].StyleScores, opps[i].Match.Detector.Direction(), snap.Regime, ctxData)
		opps[i].StyleScores = boosted
		opps[i].Recommended = scoring.Recommend(boosted)
		opps[i].Reasons = append(styleReasons(opps[i]), reasons...)
	}

	// 6. Select the single best opportunity; first registered wins ties
	best := &opps[0]
	for i := 1; i < len(opps); i++ {
		if opps[i].StyleScores[opps[i].Recommended] > best.StyleScores[best.Recommended] {
			best = &opps[i]
		}
	}
	oppType := best.Match.Detector.Type()
	category := detectors.CategoryOf(oppType)
	direction := best.Match.Detector.Direction()

	// 7. Adaptive thresholds; a disabled category rejects outright
	th := cs.thresholds.Compute(snap, category)
	diag.Thresholds = &th
	if !th.StrategyEnabled {
		return cs.filtered(&result, fmt.Sprintf("%s: %s in %s regime", ReasonCategoryDisabled, category, snap.Regime))
	}

	// 8. IV score modifier and gate
	ivAnalysis := cs.ivGate.Analyze(chain)
	diag.IVAnalysis = &ivAnalysis
	class := options.Classify(oppType)
	baseScore := clamp100(best.BaseScore * cs.ivGate.ScoreModifier(class, ivAnalysis))
	if cs.ivGate.Blocks(class, ivAnalysis) {
		return cs.filtered(&result, fmt.Sprintf("%s: %s strategy in %s IV regime", ReasonIVGateBlocked, class, ivAnalysis.Regime))
	}

	// 9. Risk levels and candidate construction
	levels, err := cs.riskCalc.Compute(snap, direction, best.Recommended)
	if err != nil {
		return cs.filtered(&result, fmt.Sprintf("%s: %v", ReasonRiskUnavailable, err))
	}
	diag.Levels = &levels
	signal := cs.buildSignal(snap, best, oppType, category, direction, baseScore, levels, th)

	// 10. Threshold validation, naming the failing threshold
	recScore := best.StyleScores[best.Recommended]
	switch {
	case baseScore < th.MinBaseScore:
		return cs.filtered(&result, fmt.Sprintf("%s: %.1f < %.1f", ReasonBelowMinBaseScore, baseScore, th.MinBaseScore))
	case recScore < th.MinStyleScore:
		return cs.filtered(&result, fmt.Sprintf("%s: %.1f < %.1f", ReasonBelowMinStyleScore, recScore, th.MinStyleScore))
	case levels.RiskReward < th.MinRiskReward:
		return cs.filtered(&result, fmt.Sprintf("%s: %.2f < %.2f", ReasonBelowMinRiskReward, levels.RiskReward, th.MinRiskReward))
	}

	// 11. Dedup: acceptance records into history atomically
	outcome, err := cs.history.CheckAndRecord(ctx, dedup.Candidate{
		Symbol:          snap.Symbol,
		OpportunityType: string(oppType),
		BarTimeKey:      signal.BarTimeKey,
		Timestamp:       snap.Timestamp,
	})
	if err != nil {
		cs.logger.Error().Err(err).Str("symbol", snap.Symbol).Msg("history store failed")
		return cs.filtered(&result, fmt.Sprintf("%s: %v", ReasonDedupError, err))
	}
	switch outcome {
	case dedup.Duplicate:
		return cs.filtered(&result, fmt.Sprintf("%s: %s", ReasonDuplicateSignal, signal.BarTimeKey))
	case dedup.Cooldown:
		return cs.filtered(&result, fmt.Sprintf("%s: %s %s", ReasonCooldownActive, snap.Symbol, oppType))
	case dedup.RateLimited:
		return cs.filtered(&result, fmt.Sprintf("%s: %s", ReasonRateLimited, snap.Symbol))
	}

	// 12. Accept
	result.Signal = signal
	cs.logger.Info().
		Str("symbol", snap.Symbol).
		Str("type", string(oppType)).
		Str("style", string(signal.RecommendedStyle)).
		Float64("base_score", signal.BaseScore).
		Float64("risk_reward", signal.RiskReward).
		Msg("signal emitted")
	return result
}

func (cs *CompositeScanner) buildSignal(
	snap *market.FeatureSnapshot,
	best *DetectedOpportunity,
	oppType detectors.OpportunityType,
	category detectors.Category,
	direction market.Direction,
	baseScore float64,
	levels risk.Levels,
	th thresholds.Result,
) *CompositeSignal {
	return &CompositeSignal{
		ID:                    uuid.NewString(),
		Symbol:                snap.Symbol,
		OpportunityType:       oppType,
		Category:              category,
		Direction:             direction,
		AssetClass:            snap.AssetClass,
		BaseScore:             baseScore,
		StyleScores:           best.StyleScores,
		RecommendedStyle:      best.Recommended,
		RecommendedStyleScore: best.StyleScores[best.Recommended],
		Confluence:            best.Match.Factors,
		Reasons:               best.Reasons,
		Entry:                 levels.Entry,
		Stop:                  levels.Stop,
		Targets:               levels.Targets,
		RiskReward:            levels.RiskReward,
		SizeMultiplier:        th.SizeMultiplier,
		Status:                StatusActive,
		CreatedAt:             snap.Timestamp,
		ExpiresAt:             snap.Timestamp.Add(signalExpiry[best.Recommended]),
		BarTimeKey:            BarTimeKey(snap.Timestamp, snap.Symbol, oppType),
	}
}

func (cs *CompositeScanner) filtered(result *ScanResult, reason string) ScanResult {
	result.Filtered = true
	result.FilterReason = reason
	cs.logger.Debug().
		Str("symbol", result.Symbol).
		Str("reason", reason).
		Msg("evaluation filtered")
	return *result
}

func (cs *CompositeScanner) record(result *ScanResult) {
	if cs.metrics == nil {
		return
	}
	cs.metrics.ScansTotal.Inc()
	cs.metrics.DetectionsPerScan.Observe(float64(result.DetectionCount))
	cs.metrics.EvalDuration.Observe(result.Duration.Seconds())
	if result.Filtered {
		cs.metrics.FilteredTotal.WithLabelValues(result.FilterReasonCode()).Inc()
	} else if result.Signal != nil {
		cs.metrics.SignalsEmitted.WithLabelValues(string(result.Signal.OpportunityType)).Inc()
	}
}

// styleReasons flattens the per-style reason strings of the recommended
// style into the opportunity's reason list.
func styleReasons(opp DetectedOpportunity) []string {
	return opp.StyleResult.Reasons[opp.Recommended]
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
