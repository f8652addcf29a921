package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"trading-signal-scanner/internal/boost"
	"trading-signal-scanner/internal/dedup"
	"trading-signal-scanner/internal/detectors"
	"trading-signal-scanner/internal/market"
	"trading-signal-scanner/internal/risk"
	"trading-signal-scanner/internal/scanner"
	"trading-signal-scanner/internal/scoring"
	"trading-signal-scanner/internal/thresholds"
)

// Replays a snapshot file through the full pipeline in file order.
// Dedup state carries across records, so the output is exactly what a
// live scanner would have emitted for the same sequence.
func main() {
	var (
		file          = flag.String("file", "snapshots.json", "JSON snapshot file to replay")
		minConfidence = flag.Float64("min-confidence", 40, "confidence filter threshold")
		verbose       = flag.Bool("v", false, "print filtered evaluations too")
	)
	flag.Parse()

	records, err := market.LoadSnapshotFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	cs := scanner.NewCompositeScanner(
		scanner.Config{MinConfidence: *minConfidence, DiagnosticsEnabled: true, IVMinDataPoints: 20},
		detectors.NewRegistry(logger),
		scoring.NewStyleModifier(scoring.DefaultStyleModifierConfig()),
		thresholds.NewCalculator(),
		risk.NewCalculator(),
		boost.NewCollector(nil, 2*time.Second, boost.DefaultMagnitudes(), logger),
		dedup.NewMemoryStore(dedup.Config{
			Cooldown:   15 * time.Minute,
			MaxPerHour: 3,
			Retention:  2 * time.Hour,
		}),
		nil,
		logger,
	)

	ctx := context.Background()
	accepted, filtered := 0, 0

	fmt.Printf("Replaying %d snapshots from %s\n\n", len(records), *file)

	for _, rec := range records {
		snap := rec.Snapshot
		result := cs.ScanSymbol(ctx, &snap, rec.Chain)

		if result.Signal != nil {
			accepted++
			sig := result.Signal
			fmt.Printf("SIGNAL  %-8s %-24s %-5s %s  base=%.1f style=%.1f rr=%.2f entry=%.2f stop=%.2f\n",
				sig.Symbol, sig.OpportunityType, sig.Direction, sig.RecommendedStyle,
				sig.BaseScore, sig.RecommendedStyleScore, sig.RiskReward, sig.Entry, sig.Stop)
			continue
		}

		filtered++
		if *verbose {
			fmt.Printf("FILTER  %-8s %s\n", result.Symbol, result.FilterReason)
		}
	}

	fmt.Printf("\n%d accepted, %d filtered\n", accepted, filtered)
}
