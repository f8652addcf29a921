package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trading-signal-scanner/internal/market"
)

// SnapshotSource supplies the symbols to evaluate and their feature
// snapshots. Market-data acquisition lives entirely behind this
// interface; the scanner never fetches anything itself.
type SnapshotSource interface {
	Symbols(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, symbol string) (*market.FeatureSnapshot, *market.OptionsChainSnapshot, error)
}

// LoopConfig holds the scan loop settings
type LoopConfig struct {
	Enabled       bool
	ScanInterval  time.Duration
	WorkerCount   int
	MaxSignals    int // recent-signal ring size
	ScanTimeout   time.Duration
}

// CycleResult aggregates one full pass over the symbol universe
type CycleResult struct {
	ScanID         string        `json:"scan_id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	SymbolsScanned int           `json:"symbols_scanned"`
	SignalsEmitted int           `json:"signals_emitted"`
	Results        []ScanResult  `json:"results"`
}

// Loop drives repeated scan cycles across the symbol universe with a
// worker pool, retaining the last cycle and a ring of recent signals.
type Loop struct {
	scanner  *CompositeScanner
	source   SnapshotSource
	cfg      LoopConfig
	onSignal func(*CompositeSignal)
	logger   zerolog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup

	mu         sync.RWMutex
	lastCycle  *CycleResult
	recent     []*CompositeSignal
	diagnostic map[string]ScanResult
}

// NewLoop creates a scan loop. onSignal may be nil.
func NewLoop(scanner *CompositeScanner, source SnapshotSource, cfg LoopConfig, onSignal func(*CompositeSignal), logger zerolog.Logger) *Loop {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 8
	}
	if cfg.MaxSignals <= 0 {
		cfg.MaxSignals = 100
	}
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = 2 * time.Minute
	}
	return &Loop{
		scanner:    scanner,
		source:     source,
		cfg:        cfg,
		onSignal:   onSignal,
		logger:     logger.With().Str("component", "ScanLoop").Logger(),
		stopChan:   make(chan struct{}),
		diagnostic: make(map[string]ScanResult),
	}
}

// Start begins the background scan loop
func (l *Loop) Start() {
	if !l.cfg.Enabled {
		l.logger.Info().Msg("scan loop disabled")
		return
	}
	l.wg.Add(1)
	go l.run()
	l.logger.Info().Dur("interval", l.cfg.ScanInterval).Msg("scan loop started")
}

// Stop gracefully shuts down the loop
func (l *Loop) Stop() {
	close(l.stopChan)
	l.wg.Wait()
	l.logger.Info().Msg("scan loop stopped")
}

func (l *Loop) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.ScanInterval)
	defer ticker.Stop()

	// Run immediately, then on the interval
	l.RunCycle()

	for {
		select {
		case <-ticker.C:
			l.RunCycle()
		case <-l.stopChan:
			return
		}
	}
}

// RunCycle executes one full pass over the symbol universe
func (l *Loop) RunCycle() *CycleResult {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.ScanTimeout)
	defer cancel()

	start := time.Now()
	cycle := &CycleResult{
		ScanID:    uuid.NewString(),
		StartTime: start,
	}

	symbols, err := l.source.Symbols(ctx)
	if err != nil {
		l.logger.Error().Err(err).Msg("symbol universe unavailable, skipping cycle")
		return cycle
	}

	symbolChan := make(chan string, len(symbols))
	resultChan := make(chan ScanResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < l.cfg.WorkerCount; i++ {
		wg.Add(1)
		go l.worker(ctx, symbolChan, resultChan, &wg)
	}

	for _, s := range symbols {
		symbolChan <- s
	}
	close(symbolChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for res := range resultChan {
		cycle.Results = append(cycle.Results, res)
		if res.Signal != nil {
			cycle.SignalsEmitted++
			l.retainSignal(res.Signal)
			if l.onSignal != nil {
				l.onSignal(res.Signal)
			}
		}
	}

	cycle.SymbolsScanned = len(symbols)
	cycle.EndTime = time.Now()
	cycle.Duration = time.Since(start)

	l.mu.Lock()
	l.lastCycle = cycle
	for _, res := range cycle.Results {
		l.diagnostic[res.Symbol] = res
	}
	l.mu.Unlock()

	l.logger.Info().
		Str("scan_id", cycle.ScanID).
		Int("symbols", cycle.SymbolsScanned).
		Int("signals", cycle.SignalsEmitted).
		Dur("duration", cycle.Duration).
		Msg("scan cycle completed")
	return cycle
}

func (l *Loop) worker(ctx context.Context, symbols <-chan string, results chan<- ScanResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for symbol := range symbols {
		select {
		case <-ctx.Done():
			return
		default:
		}

		snap, chain, err := l.source.Snapshot(ctx, symbol)
		if err != nil {
			l.logger.Debug().Err(err).Str("symbol", symbol).Msg("snapshot unavailable")
			continue
		}
		results <- l.scanner.ScanSymbol(ctx, snap, chain)
	}
}

func (l *Loop) retainSignal(sig *CompositeSignal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recent = append(l.recent, sig)
	if len(l.recent) > l.cfg.MaxSignals {
		l.recent = l.recent[len(l.recent)-l.cfg.MaxSignals:]
	}
}

// LastCycle returns the most recent completed cycle
func (l *Loop) LastCycle() *CycleResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastCycle
}

// RecentSignals returns the retained accepted signals, newest last
func (l *Loop) RecentSignals() []*CompositeSignal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*CompositeSignal, len(l.recent))
	copy(out, l.recent)
	return out
}

// LastResult returns the latest evaluation for one symbol
func (l *Loop) LastResult(symbol string) (ScanResult, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res, ok := l.diagnostic[symbol]
	return res, ok
}
