// Package cache keeps fetched pages on disk so repeated extractions of the
// same URL can revalidate instead of downloading again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	metaSuffix = ".meta.json"
	bodySuffix = ".body"
)

// HTTPEntry is the metadata stored next to a cached body.
type HTTPEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// Fresh reports whether the entry is younger than maxAge. A non-positive
// maxAge never counts as fresh.
func (e *HTTPEntry) Fresh(maxAge time.Duration, now time.Time) bool {
	return e != nil && maxAge > 0 && now.Sub(e.SavedAt) < maxAge
}

// Validators reports whether the entry can back a conditional request.
func (e *HTTPEntry) Validators() bool {
	return e != nil && (e.ETag != "" || e.LastModified != "")
}

// HTTPCache stores one entry per URL as a pair of files named by the
// sha256 of the URL. Eviction is explicit, see PurgeHTTPCacheByAge and
// EnforceHTTPCacheLimits.
type HTTPCache struct {
	Dir string
	// StrictPerms keeps the directory at 0700 and files at 0600.
	StrictPerms bool
}

// ErrNotConfigured is returned when the cache has no directory.
var ErrNotConfigured = errors.New("cache dir not configured")

// entryBase is the path of an entry without its suffix.
type entryBase string

func (b entryBase) meta() string { return string(b) + metaSuffix }
func (b entryBase) body() string { return string(b) + bodySuffix }

func (b entryBase) remove() {
	_ = os.Remove(b.meta())
	_ = os.Remove(b.body())
}

// baseOf maps a meta file path back to its entry.
func baseOf(metaPath string) (entryBase, bool) {
	if !strings.HasSuffix(metaPath, metaSuffix) {
		return "", false
	}
	return entryBase(strings.TrimSuffix(metaPath, metaSuffix)), true
}

func (c *HTTPCache) entry(url string) entryBase {
	sum := sha256.Sum256([]byte(url))
	return entryBase(filepath.Join(c.Dir, hex.EncodeToString(sum[:])))
}

func (c *HTTPCache) perms() (dir, file os.FileMode) {
	if c.StrictPerms {
		return 0o700, 0o600
	}
	return 0o755, 0o644
}

func (c *HTTPCache) open() error {
	if c == nil || c.Dir == "" {
		return ErrNotConfigured
	}
	dirMode, _ := c.perms()
	if err := os.MkdirAll(c.Dir, dirMode); err != nil {
		return err
	}
	if !c.StrictPerms {
		return nil
	}
	// MkdirAll leaves an existing directory's mode untouched
	return os.Chmod(c.Dir, dirMode)
}

// LoadMeta returns the metadata stored for url.
func (c *HTTPCache) LoadMeta(_ context.Context, url string) (*HTTPEntry, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.entry(url).meta())
	if err != nil {
		return nil, err
	}
	e := new(HTTPEntry)
	if err := json.Unmarshal(b, e); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return e, nil
}

// LoadBody returns the body stored for url and bumps its modification time,
// which EnforceHTTPCacheLimits reads as last use.
func (c *HTTPCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	p := c.entry(url).body()
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, nil
}

// Save writes body and then the metadata for e.URL. The metadata lands via
// rename, so no reader sees metadata without its body. A zero SavedAt is set
// to the current time.
func (c *HTTPCache) Save(_ context.Context, e HTTPEntry, body []byte) error {
	if err := c.open(); err != nil {
		return err
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	_, fileMode := c.perms()
	base := c.entry(e.URL)
	if err := os.WriteFile(base.body(), body, fileMode); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	tmp := base.meta() + ".tmp"
	if err := os.WriteFile(tmp, meta, fileMode); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return os.Rename(tmp, base.meta())
}
