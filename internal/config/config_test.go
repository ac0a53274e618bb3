package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "CORS_ALLOW_ORIGIN", "STORAGE_URL",
		"LEADS_TABLE_NAME", "RATE_TABLE_NAME", "DAILY_CONTACT_LIMIT",
		"RATE_LIMIT_TIMEZONE", "EMAIL_MODE", "EMAIL_PROVIDER",
		"CONTACT_SUBJECT_PREFIX", "ALERT_SUBJECT_PREFIX", "EMAIL_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard CORS default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.StorageURL != "memory://" {
		t.Fatalf("expected memory storage default, got %s", cfg.StorageURL)
	}
	if cfg.LeadsTableName != "Leads" || cfg.RateTableName != "ContactRateLimits" {
		t.Fatalf("unexpected table defaults %s / %s", cfg.LeadsTableName, cfg.RateTableName)
	}
	if cfg.DailyContactLimit != 5 {
		t.Fatalf("expected daily limit 5, got %d", cfg.DailyContactLimit)
	}
	if cfg.RateLimitTimezone != "America/Chicago" {
		t.Fatalf("expected Chicago timezone, got %s", cfg.RateLimitTimezone)
	}
	if cfg.EmailProvider != "graph" {
		t.Fatalf("expected graph provider default, got %s", cfg.EmailProvider)
	}
	if cfg.ContactSubjectPrefix != "[BlueFlare Contact]" {
		t.Fatalf("unexpected subject prefix %q", cfg.ContactSubjectPrefix)
	}
	if cfg.EmailTimeout != 10*time.Second {
		t.Fatalf("expected 10s email timeout, got %s", cfg.EmailTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ALLOW_ORIGIN", "https://blueflare.energy, ,https://*.blueflare.energy")
	t.Setenv("STORAGE_URL", "postgres://user@host/db")
	t.Setenv("DAILY_CONTACT_LIMIT", "10")
	t.Setenv("EMAIL_MODE", "NONE")
	t.Setenv("EMAIL_PROVIDER", "SES")
	t.Setenv("THROTTLE_RPS", "2.5")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("EMAIL_TIMEOUT", "3s")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://*.blueflare.energy" {
		t.Fatalf("expected two trimmed origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.StorageURL != "postgres://user@host/db" {
		t.Fatalf("expected storage override, got %s", cfg.StorageURL)
	}
	if cfg.DailyContactLimit != 10 {
		t.Fatalf("expected limit override, got %d", cfg.DailyContactLimit)
	}
	if cfg.EmailMode != "none" || cfg.EmailProvider != "ses" {
		t.Fatalf("expected lowercased email settings, got %s / %s", cfg.EmailMode, cfg.EmailProvider)
	}
	if cfg.ThrottleRPS != 2.5 {
		t.Fatalf("expected throttle override, got %v", cfg.ThrottleRPS)
	}
	if cfg.MetricsEnabled {
		t.Fatalf("expected metrics disabled")
	}
	if cfg.EmailTimeout != 3*time.Second {
		t.Fatalf("expected 3s email timeout, got %s", cfg.EmailTimeout)
	}
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("DAILY_CONTACT_LIMIT", "five")
	if got := getEnvAsInt("DAILY_CONTACT_LIMIT", 5); got != 5 {
		t.Fatalf("expected fallback 5, got %d", got)
	}
}
