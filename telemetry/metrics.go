// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollCycles     prometheus.Counter
	CycleErrors    prometheus.Counter
	ClipsNotified  prometheus.Counter
	NotifyFailures prometheus.Counter
	TokenRefreshes prometheus.Counter

	// Histograms (seconds)
	CycleDuration prometheus.Observer

	// Gauges
	SeenClipsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "clip_poll_cycles_total", Help: "Number of completed poll cycles"})
		CycleErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "clip_cycle_errors_total", Help: "Number of poll cycles that logged an error"})
		ClipsNotified = promauto.NewCounter(prometheus.CounterOpts{Name: "clips_notified_total", Help: "Number of clip notifications attempted"})
		NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "clip_notify_failures_total", Help: "Number of webhook deliveries that failed"})
		TokenRefreshes = promauto.NewCounter(prometheus.CounterOpts{Name: "twitch_token_refreshes_total", Help: "Number of app access token exchanges performed"})
		CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "clip_cycle_duration_seconds", Help: "Poll cycle duration seconds", Buckets: prometheus.DefBuckets})
		SeenClipsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "clip_seen_total", Help: "Current size of the seen-clip set"})
	})
}

// CountTokenRefresh increments the token exchange counter if metrics are initialized.
func CountTokenRefresh() {
	if TokenRefreshes != nil {
		TokenRefreshes.Inc()
	}
}

// SetSeenClips records the current seen-set size.
func SetSeenClips(n int) {
	if SeenClipsGauge != nil {
		SeenClipsGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
