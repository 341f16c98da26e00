// Package models defines the article record shared by the crawl and digest
// cycles.
package models

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidCandidate is returned by Normalize for candidates that cannot be
// turned into an article record (missing title or link).
var ErrInvalidCandidate = errors.New("candidate missing title or link")

// Article is one stored news article. Identity is the canonicalized URL;
// exactly one record exists per URL. Content fields are first-write-wins and
// never change after insertion; LastSeenAt is the only mutable field.
type Article struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`

	// PublishedAt is the source-reported publication time. When the source
	// reports none, the crawl observation time is substituted at
	// normalization, so a stored record always carries a value.
	PublishedAt time.Time `json:"published_at"`

	// DiscoveredAt is set once when the record is first observed.
	DiscoveredAt time.Time `json:"discovered_at"`

	// LastSeenAt tracks the most recent crawl that observed this URL.
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Candidate is a raw item extracted from a listing page, before
// normalization. Summary and PublishedAt are explicit optionals: nil means
// the source did not report the field, which is distinct from an empty value.
type Candidate struct {
	Title       string
	URL         string
	Summary     *string
	PublishedAt *time.Time
}

// Normalize converts a candidate into an article record discovered at the
// given time. Absent published timestamps fall back to the discovery time;
// absent summaries become the empty string in the record.
func Normalize(c Candidate, discoveredAt time.Time) (Article, error) {
	title := strings.TrimSpace(c.Title)
	link := strings.TrimSpace(c.URL)
	if title == "" || link == "" {
		return Article{}, ErrInvalidCandidate
	}

	a := Article{
		URL:          link,
		Title:        title,
		PublishedAt:  discoveredAt,
		DiscoveredAt: discoveredAt,
		LastSeenAt:   discoveredAt,
	}
	if c.Summary != nil {
		a.Summary = strings.TrimSpace(*c.Summary)
	}
	if c.PublishedAt != nil && !c.PublishedAt.IsZero() {
		a.PublishedAt = *c.PublishedAt
	}

	return a, nil
}

// Text returns the searchable text of the article (title plus summary),
// used by the scorer for keyword matching.
func (a Article) Text() string {
	if a.Summary == "" {
		return a.Title
	}
	return a.Title + " " + a.Summary
}
