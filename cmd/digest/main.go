// Command digest runs one digest cycle: read the trailing window from the
// article store, rank by score, and write the rendered HTML report. Designed
// to be invoked by an external scheduler (~hourly).
//
// Exit code 0 on success; non-zero on configuration, store-read, or
// report-write failure.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/digest"
	"github.com/tomasrey/wireclip/internal/store"
)

func main() {
	windowFlag := flag.Duration("window", 0, "override the digest window (e.g. 6h); 0 uses the configured window")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := config.Load()

	topics, err := config.LoadTopics(cfg.TopicsPath)
	if err != nil {
		slog.Error("digest: config failed", "err", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("digest: store initialization failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := digest.RunDigest(ctx, cfg, topics, st, *windowFlag); err != nil {
		slog.Error("digest: cycle failed", "err", err)
		os.Exit(1)
	}
}
