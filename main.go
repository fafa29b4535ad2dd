// Command clip-courier polls the Twitch Helix API for newly published clips of
// one channel and relays each previously-unseen clip to a Discord webhook.
// It:
//   - Loads configuration and initializes structured logging.
//   - Refuses to start on missing or placeholder credentials.
//   - Acquires an app access token, resolves the channel, and primes the
//     seen-clip set from the initial lookback window.
//   - Polls on a fixed interval, delivering only-new clips oldest-first.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/clip-courier/config"
	"github.com/onnwee/clip-courier/discord"
	"github.com/onnwee/clip-courier/monitor"
	"github.com/onnwee/clip-courier/server"
	"github.com/onnwee/clip-courier/telemetry"
	"github.com/onnwee/clip-courier/twitchapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid, refusing to start", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("clip-courier", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	tokens := &twitchapi.TokenSource{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret}
	helix := &twitchapi.HelixClient{AppTokenSource: tokens, ClientID: cfg.TwitchClientID}
	webhook := &discord.Client{WebhookURL: cfg.DiscordWebhookURL}

	poller := &monitor.Poller{
		Helix:       helix,
		Tokens:      tokens,
		Webhook:     webhook,
		Channel:     cfg.TwitchChannel,
		Lookback:    cfg.ClipLookback,
		Interval:    cfg.CheckInterval,
		NotifyDelay: time.Second,
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Token acquisition and channel resolution are the only fatal paths past
	// config; a failure here means the credentials or channel are wrong.
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := poller.Init(initCtx); err != nil {
		cancel()
		slog.Error("startup failed", slog.Any("err", err))
		os.Exit(1)
	}
	cancel()

	poller.Prime(ctx)

	// HTTP server (health/status/metrics)
	go func() {
		if err := server.Start(ctx, cfg.HTTPAddr, poller.Status); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	poller.Run(ctx)
	slog.Info("shutting down")
}
