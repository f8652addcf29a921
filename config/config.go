package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Config is the fully-enumerated application configuration. Defaults are
// applied at load time from the struct tags; nothing falls back inside
// rule bodies.
type Config struct {
	Scanner ScannerConfig `json:"scanner"`
	Dedup   DedupConfig   `json:"dedup"`
	Boost   BoostConfig   `json:"boost"`
	Server  ServerConfig  `json:"server"`
	Redis   RedisConfig   `json:"redis"`
	Logging LoggingConfig `json:"logging"`
}

// ScannerConfig holds the evaluation pipeline settings
type ScannerConfig struct {
	Enabled            bool    `json:"enabled" default:"true"`
	ScanIntervalSecs   int     `json:"scan_interval_secs" default:"30" validate:"gt=0"`
	WorkerCount        int     `json:"worker_count" default:"8" validate:"gt=0,lte=64"`
	MaxSignals         int     `json:"max_signals" default:"100" validate:"gt=0"`
	MinConfidence      float64 `json:"min_confidence" default:"40" validate:"gte=0,lte=100"`
	DiagnosticsEnabled bool    `json:"diagnostics_enabled" default:"true"`
	IVMinDataPoints    int     `json:"iv_min_data_points" default:"20" validate:"gt=0"`
}

// DedupConfig holds the dedup window settings
type DedupConfig struct {
	CooldownMins  int `json:"cooldown_mins" default:"15" validate:"gt=0"`
	MaxPerHour    int `json:"max_per_hour" default:"3" validate:"gt=0"`
	RetentionMins int `json:"retention_mins" default:"120" validate:"gt=0"`
}

// BoostConfig holds the context boost settings, including the optimizer
// override magnitudes
type BoostConfig struct {
	LookupTimeoutMs int     `json:"lookup_timeout_ms" default:"2000" validate:"gt=0"`
	IVBoost         float64 `json:"iv_boost" default:"4" validate:"gte=0,lte=25"`
	GammaBoost      float64 `json:"gamma_boost" default:"5" validate:"gte=0,lte=25"`
	MTFBoost        float64 `json:"mtf_boost" default:"6" validate:"gte=0,lte=25"`
	FlowBoost       float64 `json:"flow_boost" default:"5" validate:"gte=0,lte=25"`
	RegimeBoost     float64 `json:"regime_boost" default:"3" validate:"gte=0,lte=25"`
}

// ServerConfig holds the HTTP API settings
type ServerConfig struct {
	Enabled        bool   `json:"enabled" default:"true"`
	Host           string `json:"host" default:"0.0.0.0"`
	Port           int    `json:"port" default:"8080" validate:"gt=0,lte=65535"`
	AllowedOrigins string `json:"allowed_origins" default:"*"`
	ProductionMode bool   `json:"production_mode" default:"false"`
}

// RedisConfig enables the shared dedup history store
type RedisConfig struct {
	Enabled  bool   `json:"enabled" default:"false"`
	Address  string `json:"address" default:"localhost:6379"`
	Password string `json:"password"`
	DB       int    `json:"db" default:"0" validate:"gte=0"`
}

// LoggingConfig holds the zerolog settings
type LoggingConfig struct {
	Level  string `json:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Pretty bool   `json:"pretty" default:"false"`
}

// ScanInterval returns the loop interval as a duration
func (c ScannerConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSecs) * time.Second
}

// Cooldown returns the dedup cooldown as a duration
func (c DedupConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMins) * time.Minute
}

// Retention returns the dedup retention as a duration
func (c DedupConfig) Retention() time.Duration {
	return time.Duration(c.RetentionMins) * time.Minute
}

// LookupTimeout returns the per-lookup deadline as a duration
func (c BoostConfig) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutMs) * time.Millisecond
}

// Load reads the config file (if present), applies defaults, applies
// environment overrides, and validates the result. A malformed config is
// a hard failure, not a market condition.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
			}
		}
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("error applying config defaults: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides lets the environment win over the file
func applyEnvOverrides(cfg *Config) {
	cfg.Scanner.Enabled = getEnvBool("SCANNER_ENABLED", cfg.Scanner.Enabled)
	cfg.Scanner.ScanIntervalSecs = getEnvInt("SCANNER_INTERVAL_SECS", cfg.Scanner.ScanIntervalSecs)
	cfg.Scanner.WorkerCount = getEnvInt("SCANNER_WORKERS", cfg.Scanner.WorkerCount)
	cfg.Scanner.DiagnosticsEnabled = getEnvBool("SCANNER_DIAGNOSTICS", cfg.Scanner.DiagnosticsEnabled)

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.AllowedOrigins = getEnv("SERVER_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.ProductionMode = getEnvBool("SERVER_PRODUCTION", cfg.Server.ProductionMode)

	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Address = getEnv("REDIS_ADDRESS", cfg.Redis.Address)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Pretty = getEnvBool("LOG_PRETTY", cfg.Logging.Pretty)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
