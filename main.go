package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"trading-signal-scanner/config"
	"trading-signal-scanner/internal/api"
	"trading-signal-scanner/internal/boost"
	"trading-signal-scanner/internal/dedup"
	"trading-signal-scanner/internal/detectors"
	"trading-signal-scanner/internal/market"
	"trading-signal-scanner/internal/metrics"
	"trading-signal-scanner/internal/risk"
	"trading-signal-scanner/internal/scanner"
	"trading-signal-scanner/internal/scoring"
	"trading-signal-scanner/internal/thresholds"
)

func main() {
	// .env is optional; real env always wins
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.Logging)
	logger.Info().Str("config", configPath).Msg("configuration loaded")

	// History store: Redis when shared state is needed, memory otherwise
	dedupCfg := dedup.Config{
		Cooldown:   cfg.Dedup.Cooldown(),
		MaxPerHour: cfg.Dedup.MaxPerHour,
		Retention:  cfg.Dedup.Retention(),
	}
	var history dedup.HistoryStore
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Address).Msg("redis unreachable")
		}
		history = dedup.NewRedisStore(client, dedupCfg)
		logger.Info().Str("addr", cfg.Redis.Address).Msg("using redis signal history")
	} else {
		history = dedup.NewMemoryStore(dedupCfg)
		logger.Info().Msg("using in-memory signal history")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	collector := boost.NewCollector(nil, cfg.Boost.LookupTimeout(), boost.Magnitudes{
		IVBoost:     cfg.Boost.IVBoost,
		GammaBoost:  cfg.Boost.GammaBoost,
		MTFBoost:    cfg.Boost.MTFBoost,
		FlowBoost:   cfg.Boost.FlowBoost,
		RegimeBoost: cfg.Boost.RegimeBoost,
	}, logger)

	compositeScanner := scanner.NewCompositeScanner(
		scanner.Config{
			MinConfidence:      cfg.Scanner.MinConfidence,
			DiagnosticsEnabled: cfg.Scanner.DiagnosticsEnabled,
			IVMinDataPoints:    cfg.Scanner.IVMinDataPoints,
		},
		detectors.NewRegistry(logger),
		scoring.NewStyleModifier(scoring.DefaultStyleModifierConfig()),
		thresholds.NewCalculator(),
		risk.NewCalculator(),
		collector,
		history,
		m,
		logger,
	)

	source, err := newSnapshotSource(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize snapshot source")
	}

	hub := api.NewWSHub(logger)
	go hub.Run()

	loop := scanner.NewLoop(compositeScanner, source, scanner.LoopConfig{
		Enabled:      cfg.Scanner.Enabled,
		ScanInterval: cfg.Scanner.ScanInterval(),
		WorkerCount:  cfg.Scanner.WorkerCount,
		MaxSignals:   cfg.Scanner.MaxSignals,
	}, hub.BroadcastSignal, logger)
	loop.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var server *api.Server
	if cfg.Server.Enabled {
		server = api.NewServer(api.ServerConfig{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			ProductionMode: cfg.Server.ProductionMode,
		}, loop, hub, registry, logger)

		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("API server failed")
				cancel()
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case <-ctx.Done():
	}

	loop.Stop()
	if server != nil {
		if err := server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
	}
	logger.Info().Msg("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// newSnapshotSource wires the market-data boundary. With no live feed
// configured, snapshots come from the file named by SNAPSHOT_FILE.
func newSnapshotSource(logger zerolog.Logger) (scanner.SnapshotSource, error) {
	path := os.Getenv("SNAPSHOT_FILE")
	if path == "" {
		path = "snapshots.json"
	}
	source, err := market.NewFileSource(path)
	if err != nil {
		return nil, err
	}
	symbols, _ := source.Symbols(context.Background())
	logger.Info().Str("file", path).Int("symbols", len(symbols)).Msg("snapshot source loaded")
	return source, nil
}
