package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

// reportTemplate lays out the digest: one section per tier with the ranked
// entries, plus the summary counts. Visual styling is intentionally minimal.
var reportTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"clock": func(t time.Time) string {
		return t.Format("3:04 PM")
	},
	"day": func(t time.Time) string {
		return t.Format("January 2, 2006")
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Daily News Digest — {{day .GeneratedAt}}</title>
</head>
<body>
<h1>Daily News Digest — {{day .GeneratedAt}}</h1>
<p class="counts">{{.TotalIncluded}} of {{.TotalScanned}} articles in window ({{index .TierCounts "top"}} top, {{index .TierCounts "notable"}} notable, {{index .TierCounts "other"}} other)</p>
{{if not .Entries}}
<p>No articles in the current window.</p>
{{end}}
{{range .Sections}}{{if .Entries}}
<h2>{{.Heading}} ({{len .Entries}})</h2>
<ul>
{{range .Entries}}  <li>
    <p class="time">[{{clock .Article.DiscoveredAt}}]</p>
    <a href="{{.Article.URL}}" target="_blank" rel="noopener noreferrer">{{.Article.Title}}</a>
    <span class="score">{{printf "%.4f" .Score}}</span>
{{if .Article.Summary}}    <p class="summary">{{.Article.Summary}}</p>
{{end}}  </li>
{{end}}</ul>
{{end}}{{end}}
</body>
</html>
`))

// Section pairs a tier heading with its entries for the template.
type Section struct {
	Heading string
	Entries []Entry
}

// Sections returns the report's tiers in rank order with display headings.
func (r *Report) Sections() []Section {
	return []Section{
		{Heading: "Top stories", Entries: r.Tier(TierTop)},
		{Heading: "Notable", Entries: r.Tier(TierNotable)},
		{Heading: "Other", Entries: r.Tier(TierOther)},
	}
}

// Render produces the HTML form of the report.
func Render(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("digest: render: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the report and writes it to path via a temp file and
// atomic rename, so a concurrently served digest is never half-written.
func WriteFile(r *Report, path string) error {
	html, err := Render(r)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("digest: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".digest-*.html")
	if err != nil {
		return fmt.Errorf("digest: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	// CreateTemp makes the file 0600 and the rename keeps that mode.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("digest: chmod temp: %w", err)
	}

	if _, err := tmp.Write(html); err != nil {
		tmp.Close()
		return fmt.Errorf("digest: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("digest: close temp: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("digest: rename: %w", err)
	}

	return nil
}
