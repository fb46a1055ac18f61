package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bricksniper/notifier/internal/config"
	"github.com/bricksniper/notifier/internal/discord"
	"github.com/bricksniper/notifier/internal/feed"
	"github.com/bricksniper/notifier/internal/logger"
	"github.com/bricksniper/notifier/internal/parse"
	"github.com/bricksniper/notifier/internal/status"
	"github.com/bricksniper/notifier/internal/watch"
)

func main() {
	log := logger.New("watcher")
	cfg, err := config.LoadWatcher()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	fetcher := feed.NewFetcher(cfg.FeedURL(), cfg.UserAgent, cfg.FetchTimeout)
	parser := parse.NewParser(cfg.AffiliateTag, cfg.AffiliateDomains)
	notifier := discord.New(cfg.WebhookURL, discord.Options{
		Footer:    "r/" + cfg.Subreddit,
		Mention:   cfg.RoleMention,
		UserAgent: cfg.UserAgent,
	}, log)

	watcher := watch.New(fetcher, parser, notifier, watch.Config{
		Interval: cfg.PollInterval,
		SeenTTL:  cfg.SeenTTL,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	statusSrv := status.New(cfg.StatusAddr, watcher, log)
	go func() {
		if err := statusSrv.Run(ctx); err != nil {
			log.Error("status server stopped", slog.Any("err", err))
		}
	}()

	log.Info("watcher started",
		slog.String("subreddit", cfg.Subreddit),
		slog.String("feed_url", cfg.FeedURL()),
		slog.Duration("interval", cfg.PollInterval),
		slog.Duration("seen_ttl", cfg.SeenTTL),
		slog.String("status_addr", cfg.StatusAddr),
	)

	watcher.Run(ctx)
	log.Info("shutdown complete")
}
