// Package score implements the keyword and recency relevance model.
//
// The model is deliberately a pure function of (record, now, topics): the
// crawl cycle uses Accept to filter before persistence, and the digest cycle
// recomputes every score at read time so ranking always reflects the current
// recency decay. Scores are never stored.
package score

import (
	"math"
	"strings"
	"time"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/models"
)

// precision is the number of decimal places scores are rounded to, for
// reproducible ordering.
const precision = 4

// Base returns the keyword component of the score: the sum of weights of
// every configured keyword present (case-insensitive substring) in the
// article's title and summary. Repeated occurrences of one keyword do not
// count twice.
func Base(a models.Article, topics *config.Topics) float64 {
	text := strings.ToLower(a.Text())

	var sum float64
	for kw, weight := range topics.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			sum += weight
		}
	}
	return sum
}

// Recency returns the decay factor for an article of the given age: 1.0
// within the grace period, falling linearly to 0.0 at the horizon, never
// negative.
func Recency(age time.Duration, topics *config.Topics) float64 {
	grace := topics.Grace()
	horizon := topics.Horizon()

	if age <= grace {
		return 1.0
	}
	if age >= horizon {
		return 0.0
	}
	return float64(horizon-age) / float64(horizon-grace)
}

// Score returns the article's relevance at the given instant: base keyword
// score times the recency factor, rounded to a fixed precision. Age is
// measured from the published timestamp, which falls back to the discovery
// time during normalization.
func Score(a models.Article, now time.Time, topics *config.Topics) float64 {
	base := Base(a, topics)
	if base == 0 {
		return 0
	}
	return round(base * Recency(now.Sub(a.PublishedAt), topics))
}

// Accept reports whether the article matches at least one weighted keyword.
// Records that match nothing are filtered out before persistence regardless
// of recency.
func Accept(a models.Article, topics *config.Topics) bool {
	return Base(a, topics) > 0
}

func round(x float64) float64 {
	shift := math.Pow10(precision)
	return math.Round(x*shift) / shift
}
