package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir empties dir, leaving an empty directory behind.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// walkEntries calls fn for every entry under dir that has a meta file.
func walkEntries(dir string, fn func(base entryBase, d fs.DirEntry) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base, ok := baseOf(path)
		if !ok {
			return nil
		}
		return fn(base, d)
	})
}

// PurgeHTTPCacheByAge removes entries saved more than maxAge ago and returns
// how many went. Unreadable or malformed metadata is left alone.
func PurgeHTTPCacheByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := walkEntries(dir, func(base entryBase, _ fs.DirEntry) error {
		b, err := os.ReadFile(base.meta())
		if err != nil {
			return nil
		}
		var e HTTPEntry
		if json.Unmarshal(b, &e) != nil || now.Sub(e.SavedAt) <= maxAge {
			return nil
		}
		base.remove()
		removed++
		return nil
	})
	return removed, err
}

type entryStat struct {
	base entryBase
	size int64
	used time.Time
}

// EnforceHTTPCacheLimits evicts least recently used entries until the cache
// holds at most maxCount entries and maxBytes bytes. A zero limit is not
// enforced. Recency is the body modification time, which LoadBody refreshes.
func EnforceHTTPCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	if maxBytes <= 0 && maxCount <= 0 {
		return 0, nil
	}
	var (
		entries []entryStat
		total   int64
	)
	err := walkEntries(dir, func(base entryBase, d fs.DirEntry) error {
		st := entryStat{base: base}
		if info, err := d.Info(); err == nil {
			st.size, st.used = info.Size(), info.ModTime()
		}
		if info, err := os.Stat(base.body()); err == nil {
			st.size += info.Size()
			st.used = info.ModTime()
		}
		total += st.size
		entries = append(entries, st)
		return nil
	})
	if err != nil {
		return 0, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].used.Before(entries[j].used) })
	removed := 0
	for _, st := range entries {
		left := len(entries) - removed
		if (maxCount <= 0 || left <= maxCount) && (maxBytes <= 0 || total <= maxBytes) {
			break
		}
		st.base.remove()
		total -= st.size
		removed++
	}
	return removed, nil
}
