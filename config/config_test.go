package config

import (
	"testing"
	"time"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TWITCH_CHANNEL", "somechannel")
	t.Setenv("TWITCH_CLIENT_ID", "abc123")
	t.Setenv("TWITCH_CLIENT_SECRET", "def456")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/xyz")
}

func TestLoadDefaults(t *testing.T) {
	setValidEnv(t)
	t.Setenv("CHECK_INTERVAL_SECONDS", "")
	t.Setenv("CLIP_LOOKBACK_MINUTES", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CheckInterval != 300*time.Second {
		t.Errorf("CheckInterval = %v, want 300s", cfg.CheckInterval)
	}
	if cfg.ClipLookback != 10*time.Minute {
		t.Errorf("ClipLookback = %v, want 10m", cfg.ClipLookback)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	setValidEnv(t)
	t.Setenv("CHECK_INTERVAL_SECONDS", "60")
	t.Setenv("CLIP_LOOKBACK_MINUTES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CheckInterval != time.Minute {
		t.Errorf("CheckInterval = %v, want 1m", cfg.CheckInterval)
	}
	if cfg.ClipLookback != 5*time.Minute {
		t.Errorf("ClipLookback = %v, want 5m", cfg.ClipLookback)
	}
}

func TestLoadRejectsBadInterval(t *testing.T) {
	setValidEnv(t)
	t.Setenv("CHECK_INTERVAL_SECONDS", "not-a-number")
	if _, err := Load(); err == nil {
		t.Error("Load() expected error for invalid CHECK_INTERVAL_SECONDS")
	}
	t.Setenv("CHECK_INTERVAL_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Error("Load() expected error for zero CHECK_INTERVAL_SECONDS")
	}
}

func TestValidate(t *testing.T) {
	setValidEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidateMissing(t *testing.T) {
	setValidEnv(t)
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	cfg, _ := Load()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when DISCORD_WEBHOOK_URL is missing")
	}
}

func TestValidatePlaceholders(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"client id placeholder", "TWITCH_CLIENT_ID", "YOUR_TWITCH_CLIENT_ID"},
		{"client secret placeholder", "TWITCH_CLIENT_SECRET", "YOUR_TWITCH_CLIENT_SECRET"},
		{"webhook placeholder", "DISCORD_WEBHOOK_URL", "YOUR_DISCORD_WEBHOOK_URL"},
		{"channel placeholder", "TWITCH_CHANNEL", "target_twitch_channel_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setValidEnv(t)
			t.Setenv(tc.key, tc.val)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected placeholder rejection for %s=%s", tc.key, tc.val)
			}
		})
	}
}
