// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Validate rejects missing credentials and placeholder sentinel values before startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Twitch
	TwitchChannel      string
	TwitchClientID     string
	TwitchClientSecret string

	// Discord
	DiscordWebhookURL string

	// Polling
	CheckInterval time.Duration
	ClipLookback  time.Duration

	// HTTP
	HTTPAddr string
}

// placeholderChannel is the channel name shipped in the example .env.
const placeholderChannel = "target_twitch_channel_name"

// Load reads environment variables and applies defaults. It doesn't fail when
// credentials are missing; call Validate before starting the poller.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchChannel = os.Getenv("TWITCH_CHANNEL")
	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")
	cfg.DiscordWebhookURL = os.Getenv("DISCORD_WEBHOOK_URL")

	cfg.CheckInterval = 300 * time.Second
	if v := os.Getenv("CHECK_INTERVAL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid CHECK_INTERVAL_SECONDS: %q", v)
		}
		cfg.CheckInterval = time.Duration(n) * time.Second
	}

	cfg.ClipLookback = 10 * time.Minute
	if v := os.Getenv("CLIP_LOOKBACK_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid CLIP_LOOKBACK_MINUTES: %q", v)
		}
		cfg.ClipLookback = time.Duration(n) * time.Minute
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// Validate checks that every field the poller needs is present and not a
// placeholder left over from the example configuration.
func (c *Config) Validate() error {
	if c.TwitchChannel == "" || c.TwitchClientID == "" || c.TwitchClientSecret == "" || c.DiscordWebhookURL == "" {
		return fmt.Errorf("missing env: require TWITCH_CHANNEL, TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET, DISCORD_WEBHOOK_URL")
	}
	for name, v := range map[string]string{
		"TWITCH_CLIENT_ID":     c.TwitchClientID,
		"TWITCH_CLIENT_SECRET": c.TwitchClientSecret,
		"DISCORD_WEBHOOK_URL":  c.DiscordWebhookURL,
	} {
		if strings.Contains(v, "YOUR_") {
			return fmt.Errorf("placeholder value detected in %s", name)
		}
	}
	if c.TwitchChannel == placeholderChannel {
		return fmt.Errorf("placeholder value detected in TWITCH_CHANNEL")
	}
	return nil
}
