package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RATE_CACHE_TTL_MINUTES", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()
	if cfg.RateCacheTTLMinutes != 360 {
		t.Fatalf("rate cache TTL = %d, want default 360", cfg.RateCacheTTLMinutes)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q, want info", cfg.LogLevel)
	}
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("RATE_CACHE_TTL_MINUTES", "-5")

	cfg := Load()
	if cfg.RateCacheTTLMinutes != 360 {
		t.Fatalf("negative TTL accepted: %d", cfg.RateCacheTTLMinutes)
	}
}
