// Command worker runs both cycles in-process on fixed schedules: a crawl
// every 15 minutes and a digest every hour. It is a convenience wrapper
// around the same entry functions the crawl and digest commands expose for
// external schedulers; the store's locking keeps overlapping cycles safe.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/digest"
	"github.com/tomasrey/wireclip/internal/scraper"
	"github.com/tomasrey/wireclip/internal/store"
)

func main() {
	// Structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("worker: starting wireclip worker")

	cfg := config.Load()

	topics, err := config.LoadTopics(cfg.TopicsPath)
	if err != nil {
		slog.Error("worker: config failed", "err", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("worker: store initialization failed", "err", err)
		os.Exit(1)
	}

	sc := scraper.NewScraper(cfg.Source.Timeout)

	// Root context cancelled on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Track in-flight cycles for graceful shutdown.
	var wg sync.WaitGroup

	c := cron.New()

	// Crawl: every 15 minutes.
	_, err = c.AddFunc("*/15 * * * *", func() {
		wg.Add(1)
		defer wg.Done()

		jobCtx, jobCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer jobCancel()

		slog.Info("cron: crawl cycle triggered")
		if err := scraper.RunCrawl(jobCtx, cfg, topics, st, sc); err != nil {
			slog.Error("cron: crawl cycle failed", "err", err)
		}
	})
	if err != nil {
		slog.Error("worker: add crawl cron", "err", err)
		os.Exit(1)
	}

	// Digest: hourly on the hour.
	_, err = c.AddFunc("0 * * * *", func() {
		wg.Add(1)
		defer wg.Done()

		jobCtx, jobCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer jobCancel()

		slog.Info("cron: digest cycle triggered")
		if err := digest.RunDigest(jobCtx, cfg, topics, st, 0); err != nil {
			slog.Error("cron: digest cycle failed", "err", err)
		}
	})
	if err != nil {
		slog.Error("worker: add digest cron", "err", err)
		os.Exit(1)
	}

	c.Start()
	slog.Info("worker: cron scheduler started", "jobs", len(c.Entries()))

	// Run an initial crawl on startup so the store isn't empty until the
	// first scheduled slot.
	wg.Add(1)
	go func() {
		defer wg.Done()

		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return
		}

		jobCtx, jobCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer jobCancel()

		slog.Info("worker: running initial crawl on startup")
		if err := scraper.RunCrawl(jobCtx, cfg, topics, st, sc); err != nil {
			slog.Error("worker: initial crawl failed", "err", err)
		}
	}()

	// ── Graceful Shutdown ──────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	slog.Info("worker: received shutdown signal", "signal", sig.String())

	slog.Info("worker: stopping cron scheduler")
	cronCtx := c.Stop()
	cancel()

	select {
	case <-cronCtx.Done():
		slog.Info("worker: cron scheduler stopped")
	case <-time.After(30 * time.Second):
		slog.Warn("worker: cron scheduler stop timed out")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("worker: all in-flight cycles complete")
	case <-time.After(60 * time.Second):
		slog.Warn("worker: timed out waiting for in-flight cycles")
	}

	slog.Info("worker: shutdown complete")
}
