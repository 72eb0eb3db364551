// Package cache persists fetched snapshots as one JSON document per user,
// with a small in-process LRU in front of the disk
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	perr "reposcope/internal/platform/errors"
	"reposcope/internal/platform/logger"
	"reposcope/internal/snapshot/domain"
)

const (
	// DefaultMaxAge is how long a cached snapshot stays servable
	DefaultMaxAge = time.Hour
	// DefaultLRUSize bounds the in-process front; snapshots are small
	DefaultLRUSize = 64
)

// Cache stores one snapshot per username under <root>/<username>.json.
// Derived profiles are never persisted; callers rebuild them after Load
type Cache struct {
	root   string
	maxAge time.Duration
	mem    *lru.Cache[string, *domain.UserSnapshot]
	log    *logger.Logger
	now    func() time.Time
}

func New(root string, maxAge time.Duration) (*Cache, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "cache root create failed")
	}
	mem, err := lru.New[string, *domain.UserSnapshot](DefaultLRUSize)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "cache lru init failed")
	}
	return &Cache{
		root:   root,
		maxAge: maxAge,
		mem:    mem,
		log:    logger.Named("cache"),
		now:    time.Now,
	}, nil
}

func (c *Cache) path(username string) string {
	return filepath.Join(c.root, strings.ToLower(username)+".json")
}

// Save writes snap to disk atomically (temp file then rename) and refreshes
// the memory front. The derived profile is stripped from both
func (c *Cache) Save(snap *domain.UserSnapshot) error {
	cp := *snap
	cp.Profile = nil

	b, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "cache marshal failed")
	}
	dest := c.path(cp.Username)
	tmp, err := os.CreateTemp(c.root, ".snap-*.json")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "cache temp file failed")
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "cache write failed")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "cache close failed")
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "cache rename failed")
	}

	c.mem.Add(strings.ToLower(cp.Username), &cp)
	c.log.Debug().Str("username", cp.Username).Str("path", dest).Msg("snapshot cached")
	return nil
}

// Load returns a fresh snapshot for username, or (nil, false) on miss. A
// snapshot older than the max age, or a file that fails to parse, is a miss.
// Loaded snapshots carry no profile
func (c *Cache) Load(username string) (*domain.UserSnapshot, bool) {
	key := strings.ToLower(username)
	if snap, ok := c.mem.Get(key); ok {
		if c.fresh(snap) {
			return snap, true
		}
		c.mem.Remove(key)
	}

	b, err := os.ReadFile(c.path(username))
	if err != nil {
		return nil, false
	}
	var snap domain.UserSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		c.log.Warn().Err(err).Str("username", username).Msg("corrupt cache entry ignored")
		return nil, false
	}
	if !c.fresh(&snap) {
		return nil, false
	}
	c.mem.Add(key, &snap)
	return &snap, true
}

func (c *Cache) fresh(snap *domain.UserSnapshot) bool {
	return c.now().Sub(snap.FetchedAt) <= c.maxAge
}

// Delete removes username's entry from memory and disk. Missing is not an error
func (c *Cache) Delete(username string) error {
	c.mem.Remove(strings.ToLower(username))
	err := os.Remove(c.path(username))
	if err != nil && !os.IsNotExist(err) {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "cache delete failed")
	}
	return nil
}

// Entry describes one on-disk cache file
type Entry struct {
	Username  string    `json:"username"`
	FetchedAt time.Time `json:"fetched_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// List scans the cache directory. Unparseable files are skipped with a warning
func (c *Cache) List() ([]Entry, error) {
	files, err := os.ReadDir(c.root)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "cache list failed")
	}
	out := make([]Entry, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") || strings.HasPrefix(f.Name(), ".") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(c.root, f.Name()))
		if err != nil {
			continue
		}
		var snap domain.UserSnapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			c.log.Warn().Str("file", f.Name()).Msg("skipping unparseable cache file")
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Username: snap.Username, FetchedAt: snap.FetchedAt, SizeBytes: info.Size()})
	}
	return out, nil
}

// InvalidateOlderThan removes entries fetched more than age ago and returns
// how many were deleted
func (c *Cache) InvalidateOlderThan(age time.Duration) (int, error) {
	entries, err := c.List()
	if err != nil {
		return 0, err
	}
	cutoff := c.now().Add(-age)
	var removed int
	for _, e := range entries {
		if e.FetchedAt.After(cutoff) {
			continue
		}
		if err := c.Delete(e.Username); err != nil {
			c.log.Warn().Err(err).Str("username", e.Username).Msg("cache invalidation skipped entry")
			continue
		}
		removed++
	}
	if removed > 0 {
		c.log.Info().Int("removed", removed).Dur("age", age).Msg("stale cache entries removed")
	}
	return removed, nil
}
