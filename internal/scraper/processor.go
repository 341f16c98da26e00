package scraper

import (
	"net/url"
	"strings"
	"time"
)

// trackingParams is the set of URL query parameters commonly used for
// tracking that are stripped during canonicalization.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"utm_id":       true,
	"fbclid":       true,
	"gclid":        true,
	"gclsrc":       true,
	"dclid":        true,
	"msclkid":      true,
	"twclid":       true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
	"_ga":          true,
	"_gl":          true,
}

// CanonicalizeURL normalizes a URL into the store's identity key: lowercased
// scheme and host, fragment removed, trailing slash trimmed, tracking
// parameters stripped, and remaining query parameters sorted.
func CanonicalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL // Return as-is if unparseable.
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	parsed.Fragment = ""
	parsed.RawFragment = ""

	if len(parsed.Path) > 1 {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
	}

	query := parsed.Query()
	for key := range query {
		if trackingParams[strings.ToLower(key)] {
			query.Del(key)
		}
	}
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

// parseDate tries the timestamp formats seen on news listing pages. It
// returns the zero time when nothing matches.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,       // 2006-01-02T15:04:05.999999999Z07:00
		time.RFC3339,           // 2006-01-02T15:04:05Z07:00
		"2006-01-02T15:04:05Z", // ISO without offset
		"2006-01-02T15:04:05",  // ISO without timezone
		"2006-01-02",           // Date only
		time.RFC1123Z,          // Mon, 02 Jan 2006 15:04:05 -0700
		time.RFC1123,           // Mon, 02 Jan 2006 15:04:05 MST
	}

	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t
		}
	}

	return time.Time{}
}
