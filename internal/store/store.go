// Package store implements the durable, deduplicating article store.
//
// The on-disk representation is a CSV file with a header row; every row is
// one article record and every field round-trips losslessly through the CSV
// quoting rules. The store is append-biased: inserting new records appends
// rows, and only the last-seen marker update rewrites the file (via temp
// file and atomic rename). Writers take an exclusive advisory file lock and
// re-read the URL index before appending, so concurrent crawl cycles —
// including separate processes — cannot insert two rows for one URL.
// Readers take the shared lock only for the duration of one read.
package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/tomasrey/wireclip/internal/models"
)

// header identifies field order in the store file. A file whose first row
// does not match is rejected at open time rather than silently misread.
var header = []string{"url", "title", "summary", "published_at", "discovered_at", "last_seen_at"}

// lockRetryDelay is the polling interval while waiting for the advisory lock.
const lockRetryDelay = 25 * time.Millisecond

// ErrBadHeader indicates the store file exists but its header row does not
// match the expected schema.
var ErrBadHeader = errors.New("store file header does not match schema")

// StorageError wraps a read or write failure on the persistent store.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Err: err}
}

// Store is a CSV-backed article store keyed by canonical URL.
type Store struct {
	path     string
	lockPath string

	// mu serializes writers against readers within this process; the file
	// lock does the same across processes.
	mu sync.RWMutex
}

// fileLock returns a fresh lock handle for a single operation. Shared and
// exclusive locks on one flock handle convert in place instead of queueing,
// and unlocking the converted handle releases both, so a handle is never
// shared between operations.
func (s *Store) fileLock() *flock.Flock {
	return flock.New(s.lockPath)
}

// Open prepares the store at path, creating the file and its header row if
// missing. The parent directory is created as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, storageErr("mkdir", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, storageErr("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, storageErr("stat", path, err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, storageErr("write header", path, err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, storageErr("write header", path, err)
		}
		if err := f.Sync(); err != nil {
			return nil, storageErr("sync", path, err)
		}
	} else {
		r := csv.NewReader(f)
		first, err := r.Read()
		if err != nil {
			return nil, storageErr("read header", path, err)
		}
		if !equalHeader(first) {
			return nil, storageErr("read header", path, ErrBadHeader)
		}
	}

	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}, nil
}

// Path returns the location of the store file.
func (s *Store) Path() string { return s.path }

// Contains reports whether a record with the given URL is already stored.
func (s *Store) Contains(ctx context.Context, url string) (bool, error) {
	seen, err := s.Seen(ctx, []string{url})
	if err != nil {
		return false, err
	}
	return len(seen) == 1, nil
}

// Seen returns the subset of urls that already have a stored record,
// preserving input order.
func (s *Store) Seen(ctx context.Context, urls []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fl := s.fileLock()
	locked, err := fl.TryRLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return nil, storageErr("rlock", s.path, err)
	}
	defer fl.Unlock()

	index, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	var seen []string
	for _, u := range urls {
		if index[u] {
			seen = append(seen, u)
		}
	}
	return seen, nil
}

// Append inserts the records whose URLs are not yet stored and returns the
// number of newly inserted rows. Known URLs are skipped entirely, so
// appending the same batch twice leaves the file byte-identical to appending
// it once. The check and the insert happen under one exclusive lock.
func (s *Store) Append(ctx context.Context, records []models.Article) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fl := s.fileLock()
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return 0, storageErr("lock", s.path, err)
	}
	defer fl.Unlock()

	// Re-read the index under the lock: another process may have appended
	// since this cycle last looked.
	index, err := s.readIndex()
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, storageErr("open append", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	inserted := 0
	for _, a := range records {
		if index[a.URL] {
			continue
		}
		if err := w.Write(formatRow(a)); err != nil {
			return inserted, storageErr("write row", s.path, err)
		}
		index[a.URL] = true
		inserted++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return inserted, storageErr("flush", s.path, err)
	}
	if err := f.Sync(); err != nil {
		return inserted, storageErr("sync", s.path, err)
	}

	return inserted, nil
}

// TouchLastSeen sets the last-seen marker of the given URLs to now. Content
// fields are never modified (first-write-wins). The file is rewritten to a
// temp file and atomically renamed over the original, so readers always see
// a complete file. Unknown URLs and unparseable rows are left untouched.
func (s *Store) TouchLastSeen(ctx context.Context, urls []string, now time.Time) error {
	if len(urls) == 0 {
		return nil
	}

	target := make(map[string]bool, len(urls))
	for _, u := range urls {
		target[u] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fl := s.fileLock()
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return storageErr("lock", s.path, err)
	}
	defer fl.Unlock()

	rows, err := s.readRaw()
	if err != nil {
		return err
	}

	stamp := now.UTC().Format(time.RFC3339Nano)
	for _, row := range rows {
		if len(row) == len(header) && target[row[0]] {
			row[5] = stamp
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".articles-*.csv")
	if err != nil {
		return storageErr("create temp", s.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	// CreateTemp makes the file 0600 and the rename keeps that mode.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return storageErr("chmod temp", s.path, err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return storageErr("write temp", s.path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return storageErr("write temp", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return storageErr("sync temp", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return storageErr("close temp", s.path, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return storageErr("rename", s.path, err)
	}

	return nil
}

// QueryWindow returns all records whose discovered-at timestamp falls in the
// half-open interval [start, end), ordered by discovered-at ascending.
// Corrupt rows are logged and skipped; the remaining valid rows are still
// returned.
func (s *Store) QueryWindow(ctx context.Context, start, end time.Time) ([]models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fl := s.fileLock()
	locked, err := fl.TryRLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return nil, storageErr("rlock", s.path, err)
	}
	defer fl.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, storageErr("open", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var articles []models.Article
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			slog.Warn("store: skipping corrupt row", "path", s.path, "line", line, "err", err)
			continue
		}
		if line == 1 {
			continue // header
		}

		a, err := parseRow(row)
		if err != nil {
			slog.Warn("store: skipping corrupt row", "path", s.path, "line", line, "err", err)
			continue
		}

		if !a.DiscoveredAt.Before(start) && a.DiscoveredAt.Before(end) {
			articles = append(articles, a)
		}
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].DiscoveredAt.Before(articles[j].DiscoveredAt)
	})

	return articles, nil
}

// readIndex returns the set of stored URLs. Rows too short to carry a URL
// are ignored here; QueryWindow reports them.
func (s *Store) readIndex() (map[string]bool, error) {
	rows, err := s.readRaw()
	if err != nil {
		return nil, err
	}

	index := make(map[string]bool, len(rows))
	for _, row := range rows {
		if len(row) > 0 && row[0] != "" {
			index[row[0]] = true
		}
	}
	return index, nil
}

// readRaw reads every data row (header excluded) without interpreting
// fields. Rows that fail CSV framing are dropped.
func (s *Store) readRaw() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, storageErr("open", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if first {
			first = false
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func formatRow(a models.Article) []string {
	return []string{
		a.URL,
		a.Title,
		a.Summary,
		a.PublishedAt.UTC().Format(time.RFC3339Nano),
		a.DiscoveredAt.UTC().Format(time.RFC3339Nano),
		a.LastSeenAt.UTC().Format(time.RFC3339Nano),
	}
}

func parseRow(row []string) (models.Article, error) {
	if len(row) != len(header) {
		return models.Article{}, fmt.Errorf("want %d fields, got %d", len(header), len(row))
	}
	if row[0] == "" || row[1] == "" {
		return models.Article{}, errors.New("empty url or title")
	}

	published, err := time.Parse(time.RFC3339Nano, row[3])
	if err != nil {
		return models.Article{}, fmt.Errorf("published_at: %w", err)
	}
	discovered, err := time.Parse(time.RFC3339Nano, row[4])
	if err != nil {
		return models.Article{}, fmt.Errorf("discovered_at: %w", err)
	}
	lastSeen, err := time.Parse(time.RFC3339Nano, row[5])
	if err != nil {
		return models.Article{}, fmt.Errorf("last_seen_at: %w", err)
	}

	return models.Article{
		URL:          row[0],
		Title:        row[1],
		Summary:      row[2],
		PublishedAt:  published,
		DiscoveredAt: discovered,
		LastSeenAt:   lastSeen,
	}, nil
}

func equalHeader(row []string) bool {
	if len(row) != len(header) {
		return false
	}
	for i := range header {
		if row[i] != header[i] {
			return false
		}
	}
	return true
}
