package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scanner.ScanIntervalSecs != 30 {
		t.Errorf("scan interval = %d, want 30", cfg.Scanner.ScanIntervalSecs)
	}
	if cfg.Scanner.MinConfidence != 40 {
		t.Errorf("min confidence = %.0f, want 40", cfg.Scanner.MinConfidence)
	}
	if cfg.Dedup.Cooldown() != 15*time.Minute {
		t.Errorf("cooldown = %s, want 15m", cfg.Dedup.Cooldown())
	}
	if cfg.Dedup.MaxPerHour != 3 {
		t.Errorf("max per hour = %d, want 3", cfg.Dedup.MaxPerHour)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Redis.Enabled {
		t.Error("redis must be disabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %s, want info", cfg.Logging.Level)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"scanner": {"scan_interval_secs": 10, "worker_count": 4}, "dedup": {"max_per_hour": 5}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scanner.ScanIntervalSecs != 10 {
		t.Errorf("scan interval = %d, want file value 10", cfg.Scanner.ScanIntervalSecs)
	}
	if cfg.Dedup.MaxPerHour != 5 {
		t.Errorf("max per hour = %d, want file value 5", cfg.Dedup.MaxPerHour)
	}
	// Untouched sections still get defaults
	if cfg.Dedup.CooldownMins != 15 {
		t.Errorf("cooldown mins = %d, want default 15", cfg.Dedup.CooldownMins)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want env value 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %s, want env value debug", cfg.Logging.Level)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	t.Setenv("SERVER_PORT", "99999")
	if _, err := Load(""); err == nil {
		t.Error("port above 65535 must fail validation")
	}
}

func TestMalformedFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed config file must be a hard failure")
	}
}
