// Package digest builds and renders the ranked news digest from the stored
// article records.
package digest

import (
	"sort"
	"time"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/models"
	"github.com/tomasrey/wireclip/internal/score"
)

// Tier names, in rank order.
const (
	TierTop     = "top"
	TierNotable = "notable"
	TierOther   = "other"
)

// Entry is one ranked article in a report, with the score it was ranked by.
type Entry struct {
	Tier    string         `json:"tier"`
	Score   float64        `json:"score"`
	Article models.Article `json:"article"`
}

// Report is a structured digest: the ordered entries plus summary counts.
// An empty window produces a valid report with zero entries.
type Report struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	WindowStart   time.Time      `json:"window_start"`
	WindowEnd     time.Time      `json:"window_end"`
	TotalScanned  int            `json:"total_scanned"`
	TotalIncluded int            `json:"total_included"`
	TierCounts    map[string]int `json:"tier_counts"`
	Entries       []Entry        `json:"entries"`
}

// Tier returns the entries of one tier, in report order.
func (r *Report) Tier(name string) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Tier == name {
			out = append(out, e)
		}
	}
	return out
}

// Build assembles a report from the given records: filter to the trailing
// window [now−window, now), recompute every score (scores are never
// persisted, so ranking always reflects current recency decay), sort by
// score descending with discovered-at descending as the tie-break, and
// assign tiers by the configured thresholds.
func Build(records []models.Article, now time.Time, topics *config.Topics) Report {
	windowStart := now.Add(-topics.Window())

	report := Report{
		GeneratedAt: now,
		WindowStart: windowStart,
		WindowEnd:   now,
		TierCounts: map[string]int{
			TierTop:     0,
			TierNotable: 0,
			TierOther:   0,
		},
	}

	for _, a := range records {
		report.TotalScanned++
		if a.DiscoveredAt.Before(windowStart) || !a.DiscoveredAt.Before(now) {
			continue
		}

		s := score.Score(a, now, topics)
		report.Entries = append(report.Entries, Entry{
			Tier:    tierFor(s, topics),
			Score:   s,
			Article: a,
		})
	}

	sort.SliceStable(report.Entries, func(i, j int) bool {
		a, b := report.Entries[i], report.Entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Article.DiscoveredAt.After(b.Article.DiscoveredAt)
	})

	report.TotalIncluded = len(report.Entries)
	for _, e := range report.Entries {
		report.TierCounts[e.Tier]++
	}

	return report
}

func tierFor(s float64, topics *config.Topics) string {
	switch {
	case s >= topics.Digest.TopThreshold:
		return TierTop
	case s >= topics.Digest.NotableThreshold:
		return TierNotable
	default:
		return TierOther
	}
}
