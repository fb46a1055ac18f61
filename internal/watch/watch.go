package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bricksniper/notifier/internal/dedupe"
	"github.com/bricksniper/notifier/internal/feed"
	"github.com/bricksniper/notifier/internal/models"
	"github.com/bricksniper/notifier/internal/parse"
)

// Fetcher retrieves the current feed window.
type Fetcher interface {
	Fetch(ctx context.Context) ([]feed.Entry, error)
}

// Notifier delivers one post notification.
type Notifier interface {
	Send(ctx context.Context, post models.Post) error
}

// Config tunes the polling loop.
type Config struct {
	// Interval is the pause between polls.
	Interval time.Duration
	// SeenTTL is how long a post ID is remembered.
	SeenTTL time.Duration
}

// Stats is a point-in-time snapshot of loop activity.
type Stats struct {
	StartedAt        time.Time `json:"started_at"`
	LastTickAt       time.Time `json:"last_tick_at"`
	Ticks            uint64    `json:"ticks"`
	FetchFailures    uint64    `json:"fetch_failures"`
	ParseDrops       uint64    `json:"parse_drops"`
	Dispatched       uint64    `json:"dispatched"`
	DispatchFailures uint64    `json:"dispatch_failures"`
	SeenIDs          int       `json:"seen_ids"`
}

// Watcher polls the feed and notifies about posts it has not seen before.
// A post ID is recorded as seen before its notification goes out, so a
// failed delivery is never retried.
type Watcher struct {
	fetcher  Fetcher
	parser   *parse.Parser
	notifier Notifier
	seen     *dedupe.Cache
	cfg      Config
	log      *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New builds a watcher. The seen set starts empty; Run seeds it from the
// first fetch so that posts already in the feed do not trigger notifications.
func New(fetcher Fetcher, parser *parse.Parser, notifier Notifier, cfg Config, log *slog.Logger) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.SeenTTL <= 0 {
		cfg.SeenTTL = 24 * time.Hour
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{
		fetcher:  fetcher,
		parser:   parser,
		notifier: notifier,
		seen:     dedupe.NewCache(),
		cfg:      cfg,
		log:      log,
	}
}

// Run blocks, polling on the configured interval until the context is
// canceled.
func (w *Watcher) Run(ctx context.Context) {
	w.mu.Lock()
	w.stats.StartedAt = time.Now().UTC()
	w.mu.Unlock()

	w.seed(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return
		case <-ticker.C:
			w.tick(ctx, time.Now().UTC())
		}
	}
}

// Snapshot returns the current loop counters.
func (w *Watcher) Snapshot() Stats {
	w.mu.Lock()
	s := w.stats
	w.mu.Unlock()
	s.SeenIDs = w.seen.Len()
	return s
}

// seed records every post currently in the feed without notifying, so a
// restart does not replay the visible window.
func (w *Watcher) seed(ctx context.Context) {
	entries, err := w.fetcher.Fetch(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.log.Warn("initial fetch failed, seen set starts empty",
			slog.String("kind", fetchKind(err)),
			slog.Any("err", err),
		)
		return
	}

	now := time.Now().UTC()
	count := 0
	for _, e := range entries {
		if post, ok := w.parser.Parse(e); ok {
			w.seen.Record(post.ID, now)
			count++
		}
	}
	w.log.Info("seen set seeded", slog.Int("posts", count))
}

func (w *Watcher) tick(ctx context.Context, now time.Time) {
	w.mu.Lock()
	w.stats.Ticks++
	w.stats.LastTickAt = now
	tick := w.stats.Ticks
	w.mu.Unlock()

	if evicted := w.seen.Evict(now.Add(-w.cfg.SeenTTL)); evicted > 0 {
		w.log.Debug("evicted expired ids", slog.Int("count", evicted))
	}

	entries, err := w.fetcher.Fetch(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.mu.Lock()
		w.stats.FetchFailures++
		w.mu.Unlock()
		w.log.Error("fetch failed, will retry next tick",
			slog.Uint64("tick", tick),
			slog.String("kind", fetchKind(err)),
			slog.Any("err", err),
		)
		return
	}

	// The feed lists newest first; walk backwards so notifications go
	// out in chronological order.
	for i := len(entries) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return
		}

		post, ok := w.parser.Parse(entries[i])
		if !ok {
			w.mu.Lock()
			w.stats.ParseDrops++
			w.mu.Unlock()
			w.log.Debug("unparseable entry skipped", slog.String("title", entries[i].Title))
			continue
		}

		if w.seen.Has(post.ID) {
			continue
		}
		w.seen.Record(post.ID, now)
		w.log.Info("new post detected", slog.String("id", post.ID), slog.String("title", post.Title))

		if err := w.notifier.Send(ctx, post); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.mu.Lock()
			w.stats.DispatchFailures++
			w.mu.Unlock()
			w.log.Error("notification failed", slog.String("id", post.ID), slog.Any("err", err))
			continue
		}

		w.mu.Lock()
		w.stats.Dispatched++
		w.mu.Unlock()
		w.log.Info("notification sent", slog.String("id", post.ID))
	}
}

func fetchKind(err error) string {
	var fe *feed.Error
	if errors.As(err, &fe) {
		return string(fe.Kind)
	}
	return "error"
}
