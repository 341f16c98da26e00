// Package scraper fetches the news source's listing page and extracts
// candidate article records for the crawl cycle.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/tomasrey/wireclip/internal/models"
)

// FetchError reports a network or whole-page parse failure for a source.
// It aborts the current crawl cycle only; previously persisted records are
// unaffected and the next scheduled cycle retries naturally.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("scraper: fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Scraper wraps a Colly collector configured with respectful rate limiting.
type Scraper struct {
	userAgent string
	timeout   time.Duration
}

// NewScraper creates a Scraper with the given per-request timeout, rate
// limited to 1 request/sec per domain with at most 2 parallel requests.
func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		userAgent: "Wireclip/1.0 (+https://github.com/tomasrey/wireclip)",
		timeout:   timeout,
	}
}

// newCollector creates a fresh Colly collector with standard settings. Each
// fetch gets its own collector to avoid state leakage between cycles.
func (s *Scraper) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
		Delay:       1 * time.Second,
		RandomDelay: 500 * time.Millisecond,
	})

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	return c
}

// FetchListing retrieves the listing page at sourceURL and extracts its
// story cards as candidates. A transport failure or non-2xx status fails the
// whole call with a *FetchError; a malformed individual card is skipped and
// counted in the second return value.
func (s *Scraper) FetchListing(ctx context.Context, sourceURL string) ([]models.Candidate, int, error) {
	c := s.newCollector()

	var (
		mu         sync.Mutex
		candidates []models.Candidate
		skipped    int
		fetchErr   error
	)

	// Story cards on the listing page carry data-testid markers on the
	// title, link, and description nodes.
	c.OnHTML(`li[class*="story-card"]`, func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText(`span[data-testid="TitleHeading"]`))
		href := strings.TrimSpace(e.ChildAttr(`a[data-testid="TitleLink"]`, "href"))

		mu.Lock()
		defer mu.Unlock()

		if title == "" || href == "" {
			skipped++
			return
		}

		cand := models.Candidate{
			Title: title,
			URL:   e.Request.AbsoluteURL(href),
		}

		if summary := strings.TrimSpace(e.ChildText(`p[data-testid="Description"]`)); summary != "" {
			cand.Summary = &summary
		}

		if dt := strings.TrimSpace(e.ChildAttr("time", "datetime")); dt != "" {
			ts := parseDate(dt)
			if ts.IsZero() {
				// Present but unparseable timestamps make the card
				// malformed; absence would merely mean "no timestamp".
				skipped++
				return
			}
			cand.PublishedAt = &ts
		}

		candidates = append(candidates, cand)
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		if fetchErr == nil {
			fetchErr = &FetchError{Source: sourceURL, Err: err}
		}
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Visit(sourceURL); err != nil {
			mu.Lock()
			if fetchErr == nil {
				fetchErr = &FetchError{Source: sourceURL, Err: err}
			}
			mu.Unlock()
		}
		c.Wait()
	}()

	select {
	case <-ctx.Done():
		return nil, 0, &FetchError{Source: sourceURL, Err: ctx.Err()}
	case <-done:
	}

	if fetchErr != nil {
		return nil, 0, fetchErr
	}

	slog.Debug("scraper: listing fetched",
		"source", sourceURL,
		"candidates", len(candidates),
		"skipped", skipped,
	)

	return candidates, skipped, nil
}
