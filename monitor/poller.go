// Package monitor implements the clip polling loop: fetch recent clips for one
// channel, diff them against the seen set, and relay only-new clips to Discord.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/clip-courier/discord"
	"github.com/onnwee/clip-courier/telemetry"
	"github.com/onnwee/clip-courier/twitchapi"
)

// Status is a point-in-time snapshot of the poller, served by /status.
type Status struct {
	Channel       string    `json:"channel"`
	BroadcasterID string    `json:"broadcaster_id"`
	Cycles        uint64    `json:"cycles"`
	Notified      uint64    `json:"notified"`
	SeenClips     int       `json:"seen_clips"`
	StartedAt     time.Time `json:"started_at"`
	LastCycleAt   time.Time `json:"last_cycle_at"`
	LastError     string    `json:"last_error,omitempty"`
}

// Poller runs the fetch → diff → notify cycle on a fixed interval. One cycle
// runs to completion (including per-clip delays) before the next begins; the
// seen set has no other writer.
type Poller struct {
	Helix   *twitchapi.HelixClient
	Tokens  *twitchapi.TokenSource
	Webhook *discord.Client
	Channel string

	Lookback    time.Duration
	Interval    time.Duration
	NotifyDelay time.Duration

	// MaxCycles stops Run after that many cycles when > 0 (tests).
	MaxCycles int
	// CycleErr, when set, observes every error contained at the cycle boundary.
	CycleErr func(error)

	broadcasterID string
	seen          *SeenSet
	startedAt     time.Time

	mu          sync.Mutex
	cycles      uint64
	notified    uint64
	seenCount   int
	lastCycleAt time.Time
	lastErr     string
}

// Init acquires the initial app token and resolves the channel login to its
// broadcaster id. Either failing is fatal; the caller must not enter Run.
func (p *Poller) Init(ctx context.Context) error {
	if p.seen == nil {
		p.seen = NewSeenSet()
	}
	p.startedAt = time.Now().UTC()
	if _, err := p.Tokens.Get(ctx); err != nil {
		return fmt.Errorf("initial token: %w", err)
	}
	id, err := p.Helix.ResolveUserID(ctx, p.Channel)
	if err != nil {
		return fmt.Errorf("resolve channel %q: %w", p.Channel, err)
	}
	p.broadcasterID = id
	slog.Info("resolved broadcaster", slog.String("channel", p.Channel), slog.String("broadcaster_id", id))
	return nil
}

// Prime seeds the seen set with every clip currently inside the lookback
// window, without notifying. A restart therefore never re-announces clips
// created before the process started.
func (p *Poller) Prime(ctx context.Context) {
	clips := p.fetchRecent(ctx)
	ids := make([]string, 0, len(clips))
	for _, c := range clips {
		ids = append(ids, c.ID)
	}
	p.seen.Seed(ids)
	p.syncSeenCount()
	slog.Info("primed seen clips", slog.Int("count", p.seen.Len()), slog.Duration("lookback", p.Lookback))
}

// Run polls until ctx is cancelled or MaxCycles is reached. Every error past
// Init is contained within its cycle.
func (p *Poller) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = 300 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("clip monitor started", slog.String("channel", p.Channel), slog.Duration("interval", interval))
	for n := 0; ; n++ {
		if ctx.Err() != nil {
			return
		}
		p.RunOnce(ctx)
		if p.MaxCycles > 0 && n+1 >= p.MaxCycles {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single poll cycle. Panics and errors are contained here;
// nothing escapes to the caller.
func (p *Poller) RunOnce(ctx context.Context) {
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	log := telemetry.LoggerWithCorr(ctx)

	var cycleErr error
	telemetry.TimeFunc(telemetry.CycleDuration, func() {
		defer func() {
			if r := recover(); r != nil {
				cycleErr = fmt.Errorf("panic in poll cycle: %v", r)
				log.Error("recovered from panic in poll cycle", slog.Any("panic", r))
			}
		}()
		cycleErr = p.cycle(ctx, log)
	})

	p.mu.Lock()
	p.cycles++
	p.lastCycleAt = time.Now().UTC()
	if cycleErr != nil {
		p.lastErr = cycleErr.Error()
	} else {
		p.lastErr = ""
	}
	p.mu.Unlock()

	if telemetry.PollCycles != nil {
		telemetry.PollCycles.Inc()
	}
	if cycleErr != nil {
		if telemetry.CycleErrors != nil {
			telemetry.CycleErrors.Inc()
		}
		if p.CycleErr != nil {
			p.CycleErr(cycleErr)
		}
	}
}

// cycle is one fetch → diff → notify pass.
func (p *Poller) cycle(ctx context.Context, log *slog.Logger) error {
	ctx, span := telemetry.StartSpan(ctx, "monitor", "poll_cycle",
		attribute.String("channel", p.Channel))
	defer span.End()

	log.Info("checking for new clips", slog.String("channel", p.Channel))

	// The Helix client refreshes the token itself on a 401; this only confirms
	// one is obtainable before spending a fetch on it.
	if _, err := p.Tokens.Get(ctx); err != nil {
		log.Error("failed to get access token, skipping cycle", slog.Any("err", err))
		telemetry.RecordError(span, err)
		return err
	}

	clips := p.fetchRecent(ctx)
	if len(clips) == 0 {
		log.Info("no clips found in the lookback window")
		return nil
	}

	// Helix returns clips newest-first; deliver oldest-first so a batch lands
	// in chronological order downstream.
	newClips := 0
	for i := len(clips) - 1; i >= 0; i-- {
		c := clips[i]
		if p.seen.Contains(c.ID) {
			continue
		}
		log.Info("new clip found", slog.String("title", c.Title), slog.String("url", c.URL))
		p.notify(ctx, c, log)
		p.seen.Add(c.ID)
		p.syncSeenCount()
		newClips++
		delay := p.NotifyDelay
		if delay <= 0 {
			delay = time.Second
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
	if newClips == 0 {
		log.Info("no new clips (all fetched clips already sent)")
	}
	return nil
}

// notify delivers one clip. Failures are logged and the clip is still marked
// sent by the caller (at-most-once).
func (p *Poller) notify(ctx context.Context, c twitchapi.Clip, log *slog.Logger) {
	ctx, span := telemetry.StartSpan(ctx, "monitor", "notify_clip",
		attribute.String("clip_id", c.ID))
	defer span.End()
	if telemetry.ClipsNotified != nil {
		telemetry.ClipsNotified.Inc()
	}
	msg := discord.FormatClipMessage(p.Channel, c.Title, c.URL)
	if err := p.Webhook.Send(ctx, msg); err != nil {
		log.Error("failed to send discord notification", slog.String("clip_id", c.ID), slog.Any("err", err))
		telemetry.RecordError(span, err)
		if telemetry.NotifyFailures != nil {
			telemetry.NotifyFailures.Inc()
		}
		return
	}
	p.mu.Lock()
	p.notified++
	p.mu.Unlock()
	log.Info("sent clip to discord", slog.String("url", c.URL))
}

// fetchRecent returns clips created inside the trailing lookback window.
// Errors (including exhausted re-authentication) are logged and yield an
// empty result; the cycle continues.
func (p *Poller) fetchRecent(ctx context.Context) []twitchapi.Clip {
	lookback := p.Lookback
	if lookback <= 0 {
		lookback = 10 * time.Minute
	}
	startedAt := time.Now().UTC().Add(-lookback)
	clips, err := p.Helix.ListClips(ctx, p.broadcasterID, startedAt, twitchapi.DefaultClipPageSize)
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Error("failed to fetch clips", slog.Any("err", err))
		return nil
	}
	return clips
}

func (p *Poller) syncSeenCount() {
	n := p.seen.Len()
	p.mu.Lock()
	p.seenCount = n
	p.mu.Unlock()
	telemetry.SetSeenClips(n)
}

// Status returns a snapshot safe to read while Run is looping.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Channel:       p.Channel,
		BroadcasterID: p.broadcasterID,
		Cycles:        p.cycles,
		Notified:      p.notified,
		SeenClips:     p.seenCount,
		StartedAt:     p.startedAt,
		LastCycleAt:   p.lastCycleAt,
		LastError:     p.lastErr,
	}
}
