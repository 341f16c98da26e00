package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listingHTML mimics the newswire front page: story cards with data-testid
// markers, one card missing its link, and one story repeated in a second
// section.
const listingHTML = `<!DOCTYPE html>
<html><body>
<ul>
  <li class="story-card story-card--lead">
    <span data-testid="TitleHeading">Election results delayed</span>
    <a data-testid="TitleLink" href="/world/election-results-delayed/"></a>
    <time datetime="2025-06-01T11:30:00Z">an hour ago</time>
    <p data-testid="Description">Officials cite counting delays in three districts.</p>
  </li>
  <li class="story-card">
    <span data-testid="TitleHeading">Climate summit opens</span>
    <a data-testid="TitleLink" href="/world/climate-summit-opens/"></a>
  </li>
  <li class="story-card">
    <span data-testid="TitleHeading">Broken card without a link</span>
    <time datetime="2025-06-01T10:00:00Z">two hours ago</time>
  </li>
  <li class="story-card">
    <span data-testid="TitleHeading">Card with bad timestamp</span>
    <a data-testid="TitleLink" href="/world/bad-timestamp/"></a>
    <time datetime="yesterday-ish">?</time>
  </li>
</ul>
<ul>
  <li class="story-card story-card--compact">
    <span data-testid="TitleHeading">Election results delayed</span>
    <a data-testid="TitleLink" href="/world/election-results-delayed/"></a>
  </li>
</ul>
</body></html>`

func newListingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(listingHTML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchListing_ExtractsCandidates(t *testing.T) {
	srv := newListingServer(t)
	sc := NewScraper(5 * time.Second)

	candidates, skipped, err := sc.FetchListing(context.Background(), srv.URL)
	require.NoError(t, err)

	// The linkless card and the bad-timestamp card are malformed; the
	// repeated story is extracted twice here (the crawl cycle dedups).
	assert.Equal(t, 2, skipped)
	require.Len(t, candidates, 3)

	first := candidates[0]
	assert.Equal(t, "Election results delayed", first.Title)
	assert.Equal(t, srv.URL+"/world/election-results-delayed/", first.URL)
	require.NotNil(t, first.Summary)
	assert.Equal(t, "Officials cite counting delays in three districts.", *first.Summary)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, first.PublishedAt.Equal(time.Date(2025, 6, 1, 11, 30, 0, 0, time.UTC)))

	second := candidates[1]
	assert.Equal(t, "Climate summit opens", second.Title)
	assert.Nil(t, second.Summary, "missing description must be absent, not empty")
	assert.Nil(t, second.PublishedAt, "missing timestamp must be absent, not zero")
}

func TestFetchListing_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	sc := NewScraper(5 * time.Second)
	_, _, err := sc.FetchListing(context.Background(), srv.URL)

	require.Error(t, err)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, srv.URL, fe.Source)
}

func TestFetchListing_UnreachableHost(t *testing.T) {
	sc := NewScraper(2 * time.Second)

	_, _, err := sc.FetchListing(context.Background(), "http://127.0.0.1:1/listing")

	require.Error(t, err)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
}

func TestFetchListing_EmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>nothing here</p></body></html>"))
	}))
	t.Cleanup(srv.Close)

	sc := NewScraper(5 * time.Second)
	candidates, skipped, err := sc.FetchListing(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Zero(t, skipped)
}
