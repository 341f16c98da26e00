package digest

import (
	"context"
	"log/slog"
	"time"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/store"
)

// RunDigest executes one digest cycle: query the trailing window from the
// store, build the ranked report, and write the rendered HTML to the
// configured output path. A non-positive windowOverride means "use the
// configured window". Safe to run concurrently with crawl cycles.
func RunDigest(ctx context.Context, cfg config.Config, topics *config.Topics, st *store.Store, windowOverride time.Duration) error {
	window := topics.Window()
	if windowOverride > 0 {
		window = windowOverride
	}

	now := time.Now().UTC()
	slog.Info("digest: starting cycle", "window", window.String())

	records, err := st.QueryWindow(ctx, now.Add(-window), now)
	if err != nil {
		return err
	}

	// Build filters against the configured window; widen the topics view if
	// the caller overrode it so both agree.
	t := *topics
	t.Digest.WindowHours = window.Hours()

	report := Build(records, now, &t)

	if err := WriteFile(&report, cfg.Digest.OutputPath); err != nil {
		return err
	}

	slog.Info("digest: cycle complete",
		"out", cfg.Digest.OutputPath,
		"scanned", report.TotalScanned,
		"included", report.TotalIncluded,
		"top", report.TierCounts[TierTop],
		"notable", report.TierCounts[TierNotable],
		"other", report.TierCounts[TierOther],
	)

	return nil
}
