package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/models"
	"github.com/tomasrey/wireclip/internal/score"
	"github.com/tomasrey/wireclip/internal/store"
)

// RunCrawl executes one crawl cycle: fetch the listing page, normalize and
// score the candidates, append the accepted new records to the store, and
// bump the last-seen marker on re-observed ones. It is stateless and safe to
// invoke concurrently with other crawl or digest cycles; the store's locking
// guarantees at most one row per URL.
//
// A returned error means the cycle did not complete; already persisted
// records are unaffected and the next scheduled cycle retries naturally.
func RunCrawl(ctx context.Context, cfg config.Config, topics *config.Topics, st *store.Store, sc *Scraper) error {
	runID := uuid.New().String()
	log := slog.With("run_id", runID)

	log.Info("crawl: starting cycle", "source", cfg.Source.URL)
	start := time.Now()

	candidates, skipped, err := sc.FetchListing(ctx, cfg.Source.URL)
	if err != nil {
		return err
	}
	if skipped > 0 {
		log.Warn("crawl: malformed items skipped", "count", skipped)
	}

	now := time.Now().UTC()

	// Normalize into records keyed by canonical URL, dropping duplicates
	// within the batch (listing pages repeat stories across sections).
	seenInBatch := make(map[string]bool, len(candidates))
	var accepted []models.Article
	rejected := 0
	for _, cand := range candidates {
		a, err := models.Normalize(cand, now)
		if err != nil {
			skipped++
			continue
		}
		a.URL = CanonicalizeURL(a.URL)
		if seenInBatch[a.URL] {
			continue
		}
		seenInBatch[a.URL] = true

		if !score.Accept(a, topics) {
			rejected++
			continue
		}
		accepted = append(accepted, a)
	}

	urls := make([]string, len(accepted))
	for i, a := range accepted {
		urls[i] = a.URL
	}

	// Which of these are re-observations? Append re-checks under its lock,
	// so a race here only costs a redundant last-seen touch.
	known, err := st.Seen(ctx, urls)
	if err != nil {
		return err
	}

	inserted, err := st.Append(ctx, accepted)
	if err != nil {
		return err
	}

	if len(known) > 0 {
		if err := st.TouchLastSeen(ctx, known, now); err != nil {
			return err
		}
	}

	log.Info("crawl: cycle complete",
		"candidates", len(candidates),
		"skipped", skipped,
		"rejected", rejected,
		"inserted", inserted,
		"reobserved", len(known),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)

	return nil
}
