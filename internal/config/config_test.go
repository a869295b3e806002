package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.PlaidPageSize != 500 {
			t.Errorf("expected page size 500, got %d", cfg.PlaidPageSize)
		}
		if cfg.SyncLockTTL != 10*time.Minute {
			t.Errorf("expected 10m lock ttl, got %s", cfg.SyncLockTTL)
		}
	})

	t.Run("environment_overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("PLAID_ENV", "production")
		t.Setenv("PLAID_SYNC_PAGE_SIZE", "100")
		t.Setenv("SYNC_LOCK_TTL", "30s")
		t.Setenv("SEED_DEFAULTS", "false")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "9090" {
			t.Errorf("expected port 9090, got %s", cfg.Port)
		}
		if cfg.PlaidEnv != "production" {
			t.Errorf("expected production, got %s", cfg.PlaidEnv)
		}
		if cfg.PlaidPageSize != 100 {
			t.Errorf("expected page size 100, got %d", cfg.PlaidPageSize)
		}
		if cfg.SyncLockTTL != 30*time.Second {
			t.Errorf("expected 30s, got %s", cfg.SyncLockTTL)
		}
		if cfg.SeedDefaults {
			t.Error("expected seeding disabled")
		}
	})

	t.Run("rejects_oversized_page", func(t *testing.T) {
		t.Setenv("PLAID_SYNC_PAGE_SIZE", "1000")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for page size above 500")
		}
	})

	t.Run("rejects_unknown_plaid_env", func(t *testing.T) {
		t.Setenv("PLAID_ENV", "staging")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown environment")
		}
	})
}
