package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/models"
)

func testTopics(t *testing.T) *config.Topics {
	t.Helper()
	topics := &config.Topics{
		Keywords: map[string]float64{
			"climate":  2,
			"election": 1,
		},
		Scoring: config.ScoringModel{HorizonHours: 48, GraceHours: 1},
		Digest:  config.DigestModel{WindowHours: 24, TopThreshold: 3.0, NotableThreshold: 1.0},
	}
	require.NoError(t, topics.Validate())
	return topics
}

func article(title, summary string, published time.Time) models.Article {
	return models.Article{
		URL:          "https://example.com/news/a",
		Title:        title,
		Summary:      summary,
		PublishedAt:  published,
		DiscoveredAt: published,
		LastSeenAt:   published,
	}
}

func TestScore_RecentKeywordMatch(t *testing.T) {
	topics := testTopics(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Discovered 30 minutes ago: inside the grace period, no decay.
	a := article("Election results delayed", "", now.Add(-30*time.Minute))

	assert.InDelta(t, 1.0, Score(a, now, topics), 1e-9)
	assert.True(t, Accept(a, topics))
}

func TestScore_NoKeywordMatch(t *testing.T) {
	topics := testTopics(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := article("Weather update", "", now)

	assert.Equal(t, 0.0, Score(a, now, topics))
	assert.False(t, Accept(a, topics))
}

func TestScore_CaseInsensitiveAndSummaryMatch(t *testing.T) {
	topics := testTopics(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := article("Markets steady", "CLIMATE summit opens in Geneva", now)

	assert.InDelta(t, 2.0, Score(a, now, topics), 1e-9)
}

func TestScore_PresenceNotOccurrenceCount(t *testing.T) {
	topics := testTopics(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// "election" appears twice; the weight counts once.
	a := article("Election officials review election procedures", "", now)

	assert.InDelta(t, 1.0, Score(a, now, topics), 1e-9)
}

func TestScore_MultipleKeywordsSum(t *testing.T) {
	topics := testTopics(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := article("Climate policy shapes election debate", "", now)

	assert.InDelta(t, 3.0, Score(a, now, topics), 1e-9)
}

func TestRecency_Shape(t *testing.T) {
	topics := testTopics(t)

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"new", 0, 1.0},
		{"inside grace", 30 * time.Minute, 1.0},
		{"at grace boundary", time.Hour, 1.0},
		{"midpoint of decay", 24*time.Hour + 30*time.Minute, 0.5},
		{"at horizon", 48 * time.Hour, 0.0},
		{"beyond horizon", 100 * time.Hour, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Recency(tt.age, topics), 1e-9)
		})
	}
}

func TestRecency_MonotonicallyDecreasing(t *testing.T) {
	topics := testTopics(t)

	prev := Recency(0, topics)
	for age := time.Hour; age <= 50*time.Hour; age += time.Hour {
		cur := Recency(age, topics)
		assert.LessOrEqual(t, cur, prev, "age %v", age)
		assert.GreaterOrEqual(t, cur, 0.0, "age %v", age)
		prev = cur
	}
}

func TestScore_Deterministic(t *testing.T) {
	topics := testTopics(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := article("Climate costs rise", "election year spending", now.Add(-7*time.Hour))

	first := Score(a, now, topics)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(a, now, topics))
	}
}

func TestScore_RoundedToFourDecimals(t *testing.T) {
	topics := testTopics(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// An age in the decay region produces a non-terminating factor; the
	// result must still land exactly on a 4-decimal grid.
	a := article("Election watch", "", now.Add(-17*time.Hour-13*time.Minute))
	s := Score(a, now, topics)

	assert.InDelta(t, s, float64(int(s*10000+0.5))/10000, 1e-12)
}

func TestScore_UsesPublishedOverDiscovered(t *testing.T) {
	topics := testTopics(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := article("Election recap", "", now.Add(-48*time.Hour))
	a.DiscoveredAt = now // discovered just now, but published at the horizon

	assert.Equal(t, 0.0, Score(a, now, topics))
	// Accept ignores recency entirely.
	assert.True(t, Accept(a, topics))
}
