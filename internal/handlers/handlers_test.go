package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/models"
	"github.com/tomasrey/wireclip/internal/store"
)

func seededFixtures(t *testing.T) (*store.Store, *config.Topics) {
	t.Helper()

	topics := &config.Topics{
		Keywords: map[string]float64{"climate": 2, "election": 1},
		Scoring:  config.ScoringModel{HorizonHours: 48, GraceHours: 1},
		Digest:   config.DigestModel{WindowHours: 24, TopThreshold: 3, NotableThreshold: 1},
	}
	require.NoError(t, topics.Validate())

	st, err := store.Open(filepath.Join(t.TempDir(), "articles.csv"))
	require.NoError(t, err)

	now := time.Now().UTC()
	seed := func(url, title string, age time.Duration) models.Article {
		at := now.Add(-age)
		return models.Article{
			URL: url, Title: title,
			PublishedAt: at, DiscoveredAt: at, LastSeenAt: at,
		}
	}
	_, err = st.Append(context.Background(), []models.Article{
		seed("https://example.com/old", "Election last week", 26*time.Hour),
		seed("https://example.com/morning", "Climate report", 5*time.Hour),
		seed("https://example.com/fresh", "Election tonight", 30*time.Minute),
	})
	require.NoError(t, err)

	return st, topics
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestArticlesList(t *testing.T) {
	st, topics := seededFixtures(t)
	h := &ArticlesHandler{Store: st, Topics: topics}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/articles", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Window   string           `json:"window"`
		Count    int              `json:"count"`
		Articles []models.Article `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// The 26h-old record falls outside the 24h window; newest first.
	assert.Equal(t, "24h0m0s", body.Window)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "https://example.com/fresh", body.Articles[0].URL)
	assert.Equal(t, "https://example.com/morning", body.Articles[1].URL)
}

func TestArticlesList_WindowParam(t *testing.T) {
	st, topics := seededFixtures(t)
	h := &ArticlesHandler{Store: st, Topics: topics}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/articles?window=1h", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count    int              `json:"count"`
		Articles []models.Article `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "https://example.com/fresh", body.Articles[0].URL)
}

func TestArticlesList_BadWindow(t *testing.T) {
	st, topics := seededFixtures(t)
	h := &ArticlesHandler{Store: st, Topics: topics}

	for _, raw := range []string{"soon", "-2h", "0s"} {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/articles?window="+raw, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "window=%q", raw)
	}
}

func TestDigestReport(t *testing.T) {
	st, topics := seededFixtures(t)
	h := &DigestHandler{Store: st, Topics: topics}

	rec := httptest.NewRecorder()
	h.Report(rec, httptest.NewRequest(http.MethodGet, "/api/digest", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalIncluded int `json:"total_included"`
		Entries       []struct {
			Tier    string  `json:"tier"`
			Score   float64 `json:"score"`
			Article struct {
				URL string `json:"url"`
			} `json:"article"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Equal(t, 2, body.TotalIncluded)
	for i := 0; i < len(body.Entries)-1; i++ {
		assert.GreaterOrEqual(t, body.Entries[i].Score, body.Entries[i+1].Score)
	}
}

func TestDigestHTML(t *testing.T) {
	st, topics := seededFixtures(t)
	h := &DigestHandler{Store: st, Topics: topics}

	rec := httptest.NewRecorder()
	h.HTML(rec, httptest.NewRequest(http.MethodGet, "/digest", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	s := rec.Body.String()
	assert.True(t, strings.HasPrefix(s, "<!DOCTYPE html>"))
	assert.Contains(t, s, "Daily News Digest")
	assert.Contains(t, s, "Election tonight")
	assert.NotContains(t, s, "Election last week")
}
