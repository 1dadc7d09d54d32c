package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(0); err == nil {
		t.Fatal("expected an error without DATABASE_URL")
	}
}

func TestLoadPortPrecedence(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/miniregion")

	t.Setenv("PORT", "")
	cfg, err := Load(0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 5001 {
		t.Errorf("default port = %d, want 5001", cfg.Server.Port)
	}

	t.Setenv("PORT", "5000")
	cfg, err = Load(0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("env port = %d, want 5000", cfg.Server.Port)
	}

	cfg, err = Load(8081)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("flag port = %d, want 8081", cfg.Server.Port)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/miniregion")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("ACTIVITY_BBOX", "46.1, 8.9, 47.1, 10.5")

	cfg, err := Load(0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Places.SearchRadius != 25000 {
		t.Errorf("search radius = %d, want 25000", cfg.Places.SearchRadius)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("rate limit window = %v, want 30s", cfg.RateLimit.Window)
	}
	if cfg.Aggregation.ActivityBBox != [4]float64{46.1, 8.9, 47.1, 10.5} {
		t.Errorf("unexpected bbox %v", cfg.Aggregation.ActivityBBox)
	}
}

func TestValidateRefreshHour(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/miniregion")
	t.Setenv("REFRESH_HOUR", "24")

	if _, err := Load(0); err == nil {
		t.Fatal("expected an error for REFRESH_HOUR=24")
	}
}

func TestLoadClientDefaults(t *testing.T) {
	cfg := LoadClient()

	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("cache TTL = %v, want 24h", cfg.CacheTTL)
	}
	if cfg.RetryAttempts != 3 || cfg.RetryBaseDelay != time.Second || cfg.RetryMultiplier != 2 {
		t.Errorf("unexpected retry policy %d/%v/%v", cfg.RetryAttempts, cfg.RetryBaseDelay, cfg.RetryMultiplier)
	}
	if cfg.NearbyRadius != 50000 {
		t.Errorf("nearby radius = %d, want 50000", cfg.NearbyRadius)
	}
}
