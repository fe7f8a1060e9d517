package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alnah/go-jobcraft/internal/yamlutil"
)

// ErrCacheLoad matches every *LoadError.
var ErrCacheLoad = errors.New("profile load failed")

// LoadError reports a profile that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load profile %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrCacheLoad }

type entry struct {
	modTime time.Time
	size    int64
	profile *Profile
}

// Stats reports cache activity.
type Stats struct {
	Entries int
	Parses  int64
	Hits    int64
}

// Cache keeps one parsed profile per file path and re-parses only when the
// file's modification time or size changes. Loads of the same path are
// serialized; different paths load concurrently. There is no expiry.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	locks   map[string]*sync.Mutex

	parses atomic.Int64
	hits   atomic.Int64

	logger *slog.Logger
}

// NewCache creates an empty cache. A nil logger uses slog.Default.
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]*entry),
		locks:   make(map[string]*sync.Mutex),
		logger:  logger,
	}
}

// Load returns the profile at path, parsing it only when it changed since
// the previous load. Failures are *LoadError and leave any earlier entry in
// place.
func (c *Cache) Load(path string) (*Profile, error) {
	key, err := cacheKey(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	info, err := os.Stat(key)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Path: path, Err: errors.New("is a directory")}
	}

	c.mu.Lock()
	cached := c.entries[key]
	c.mu.Unlock()

	if cached != nil && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		c.hits.Add(1)
		return cached.profile, nil
	}

	p, err := parseFile(key)
	if err != nil {
		c.logger.Warn("profile load failed", "path", key, "error", err)
		return nil, &LoadError{Path: path, Err: err}
	}
	c.parses.Add(1)

	c.mu.Lock()
	c.entries[key] = &entry{modTime: info.ModTime(), size: info.Size(), profile: p}
	c.mu.Unlock()

	if cached == nil {
		c.logger.Debug("profile loaded", "path", key, "bytes", info.Size())
	} else {
		c.logger.Info("profile changed on disk, reloaded", "path", key)
	}
	return p, nil
}

func parseFile(path string) (*Profile, error) {
	var p Profile
	if err := yamlutil.ReadFile(path, &p, false); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Invalidate drops the entry for path so the next Load re-parses.
func (c *Cache) Invalidate(path string) {
	key, err := cacheKey(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return Stats{Entries: n, Parses: c.parses.Load(), Hits: c.hits.Load()}
}

func (c *Cache) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

func cacheKey(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	return filepath.Abs(filepath.Clean(path))
}
