package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bricksniper/notifier/internal/config"
	"github.com/bricksniper/notifier/internal/discord"
	"github.com/bricksniper/notifier/internal/feed"
	"github.com/bricksniper/notifier/internal/logger"
	"github.com/bricksniper/notifier/internal/parse"
)

// backfill resends the newest feed posts once and exits. Useful after
// webhook outages and for verifying a channel end to end.
func main() {
	log := logger.New("backfill")
	cfg, err := config.LoadBackfill()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	fetcher := feed.NewFetcher(cfg.FeedURL(), cfg.UserAgent, cfg.FetchTimeout)
	parser := parse.NewParser(cfg.AffiliateTag, cfg.AffiliateDomains)
	client := discord.New(cfg.WebhookURL, discord.Options{
		Footer:    "r/" + cfg.Subreddit,
		UserAgent: cfg.UserAgent,
	}, log)

	log.Info("resending newest posts",
		slog.String("feed_url", cfg.FeedURL()),
		slog.Int("count", cfg.Count),
	)

	entries, err := fetcher.Fetch(ctx)
	if err != nil {
		log.Error("fetch feed", slog.Any("err", err))
		os.Exit(1)
	}
	if len(entries) == 0 {
		log.Error("feed has no entries")
		os.Exit(1)
	}

	if len(entries) > cfg.Count {
		entries = entries[:cfg.Count]
	}

	sent, failed := 0, 0
	for i, entry := range entries {
		post, ok := parser.Parse(entry)
		if !ok {
			log.Warn("unparseable entry skipped", slog.String("title", entry.Title))
			failed++
			continue
		}

		log.Info("sending post",
			slog.Int("n", i+1),
			slog.String("id", post.ID),
			slog.String("title", post.Title),
		)

		if err := client.Send(ctx, post); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("interrupted")
				os.Exit(1)
			}
			log.Error("send failed", slog.String("id", post.ID), slog.Any("err", err))
			failed++
		} else {
			sent++
		}

		// Pause between sends to stay under the webhook rate limit.
		if i < len(entries)-1 {
			select {
			case <-ctx.Done():
				log.Info("interrupted")
				os.Exit(1)
			case <-time.After(cfg.Delay):
			}
		}
	}

	log.Info("backfill finished", slog.Int("sent", sent), slog.Int("failed", failed))
}
