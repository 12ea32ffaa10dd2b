package resultcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"bookreel/internal/cost"
	"bookreel/internal/logging"
	"bookreel/internal/qc"
)

// Entry is a cached final result for one normalized book identity. Logically
// immutable once written, except for the request counter.
type Entry struct {
	Key             string      `json:"key"`
	JobID           string      `json:"job_id"`
	Title           string      `json:"title"`
	Author          string      `json:"author,omitempty"`
	VideoLocator    string      `json:"video_locator"`
	SubtitleLocator string      `json:"subtitle_locator,omitempty"`
	QCReport        qc.Report   `json:"qc_report"`
	CostReport      cost.Report `json:"cost_report"`
	RequestCount    int64       `json:"request_count"`
	CreatedAt       time.Time   `json:"created_at"`
	ExpiresAt       time.Time   `json:"expires_at"`
}

// Cache provides thread-safe, TTL-bounded access to previously accepted
// results. If path is empty the cache is non-functional (all operations
// become no-ops); the backing file is created lazily on first Set.
type Cache struct {
	path   string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]*Entry
}

// Option customizes cache construction.
type Option func(*Cache)

// WithClock overrides the time source (used in TTL tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache instance backed by the given JSON file.
func New(path string, ttl time.Duration, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		path:    path,
		ttl:     ttl,
		logger:  logging.NewComponentLogger(logger, "resultcache"),
		now:     time.Now,
		entries: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(c)
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		c.logger.Warn("failed to load result cache",
			logging.String(logging.FieldEventType, "resultcache_load_failed"),
			logging.Error(err))
	}

	return c
}

// Has reports whether a live entry exists for the book identity. Expired
// entries are evicted lazily here.
func (c *Cache) Has(title, author string) bool {
	if c.path == "" {
		return false
	}
	key := Key(title, author)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		return false
	}
	if c.expired(entry) {
		delete(c.entries, key)
		c.persistLocked()
		return false
	}
	return true
}

// Get returns the cached result for the book identity, incrementing the
// entry's request counter. A miss or expired entry returns ok=false; expiry
// also evicts.
func (c *Cache) Get(title, author string) (Entry, bool) {
	if c.path == "" {
		return Entry{}, false
	}
	key := Key(title, author)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		return Entry{}, false
	}
	if c.expired(entry) {
		delete(c.entries, key)
		c.persistLocked()
		return Entry{}, false
	}

	entry.RequestCount++
	c.persistLocked()

	c.logger.Debug("cache hit",
		logging.String("cache_key", key),
		logging.Int64("request_count", entry.RequestCount))

	return *entry, true
}

// Set writes a new entry for the book identity. Called only after a fully
// successful job; the expiry is now + TTL. A concurrent duplicate write wins
// by being last (accepted limitation, no single-flight).
func (c *Cache) Set(title, author string, entry Entry) error {
	if c.path == "" {
		return nil
	}
	key := Key(title, author)
	now := c.now().UTC()

	entry.Key = key
	entry.Title = title
	entry.Author = author
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached job result",
		logging.String("cache_key", key),
		logging.String(logging.FieldJobID, entry.JobID),
		logging.String("expires_at", entry.ExpiresAt.Format(time.RFC3339)))

	return nil
}

// CleanExpired removes every expired entry and returns the count removed.
func (c *Cache) CleanExpired() int {
	if c.path == "" {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.persistLocked()
		c.logger.Info("evicted expired cache entries",
			logging.String(logging.FieldEventType, "resultcache_cleaned"),
			logging.Int("removed", removed))
	}
	return removed
}

// List returns all live entries sorted by creation time descending.
func (c *Cache) List() []Entry {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		if !c.expired(entry) {
			entries = append(entries, *entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries
}

// Clear removes all entries and persists the empty cache.
func (c *Cache) Clear() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

// Count returns the number of entries currently held, including expired ones
// not yet evicted.
func (c *Cache) Count() int {
	if c.path == "" {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) expired(entry *Entry) bool {
	return !entry.ExpiresAt.After(c.now().UTC())
}

// persistLocked saves best-effort under an already-held lock; counter bumps
// and lazy evictions should not fail reads.
func (c *Cache) persistLocked() {
	if err := c.save(); err != nil {
		c.logger.Warn("failed to persist result cache",
			logging.String(logging.FieldEventType, "resultcache_persist_failed"),
			logging.Error(err))
	}
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]*Entry, len(entries))
	for i := range entries {
		if entries[i].Key != "" {
			c.entries[entries[i].Key] = &entries[i]
		}
	}

	c.logger.Debug("loaded result cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))

	return nil
}

// save writes the cache to disk atomically via a temp file rename.
func (c *Cache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
