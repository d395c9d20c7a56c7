package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Data.Dir != "data" || cfg.Auth.Salt != DefaultSalt {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Scoring.LeaderboardSize != 50 || cfg.Scoring.PointsPerAnswer != 10 {
		t.Fatalf("unexpected scoring defaults: %+v", cfg.Scoring)
	}
	if cfg.Catalog.Source != "files" || cfg.Catalog.Cache != "memory" {
		t.Fatalf("unexpected catalog defaults: %+v", cfg.Catalog)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("data:\n  dir: /srv/quiz\nscoring:\n  leaderboardSize: 20\ncatalog:\n  cache: redis\nredis:\n  addr: localhost:6379\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUIZ_REDIS_ADDR", "redis:6380")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Data.Dir != "/srv/quiz" {
		t.Fatalf("expected yaml data dir, got %q", cfg.Data.Dir)
	}
	if cfg.Scoring.LeaderboardSize != 20 {
		t.Fatalf("expected leaderboard size 20, got %d", cfg.Scoring.LeaderboardSize)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("expected env override, got %q", cfg.Redis.Addr)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on bad input, got %v", got)
	}
	if got := TTLDuration("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
}
