// Command crawl runs one crawl cycle: fetch the source's listing page, score
// the candidates, and append new records to the article store. Designed to
// be invoked by an external scheduler (~every 15 minutes); overlapping
// invocations are safe.
//
// Exit code 0 covers success and logged fetch/append failures (the next
// scheduled run retries); non-zero means configuration or store
// initialization failed before any network activity.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/scraper"
	"github.com/tomasrey/wireclip/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := config.Load()

	topics, err := config.LoadTopics(cfg.TopicsPath)
	if err != nil {
		slog.Error("crawl: config failed", "err", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("crawl: store initialization failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sc := scraper.NewScraper(cfg.Source.Timeout)
	if err := scraper.RunCrawl(ctx, cfg, topics, st, sc); err != nil {
		var fe *scraper.FetchError
		if errors.As(err, &fe) {
			slog.Error("crawl: fetch failed, cycle aborted", "source", fe.Source, "err", fe.Err)
		} else {
			slog.Error("crawl: cycle failed, will retry next run", "err", err)
		}
		// Recoverable: dedup makes the next scheduled run a safe retry.
		os.Exit(0)
	}
}
