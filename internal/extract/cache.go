package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// Cache stores raw extractor output keyed by content hash, so identical
// bytes never trigger a second external extraction. Entries are kept both
// in memory and as JSON files under dir, and never expire on their own;
// only Clear removes them. A missing or unreadable file is a miss, never a
// fatal error.
type Cache struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	mem   map[string]entity.ExtractionResult
	locks map[string]*sync.Mutex // per-hash in-flight guard
}

func NewCache(dir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{
		dir:    dir,
		logger: logger,
		mem:    make(map[string]entity.ExtractionResult),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// GetOrExtract returns the cached result for hashHex, or runs fn exactly
// once per hash while concurrent callers for the same hash wait. Results
// (including explicit error markers) are cached; a non-nil error from fn
// is returned uncached so a later submission can retry.
func (c *Cache) GetOrExtract(ctx context.Context, hashHex string, fn ExtractFunc) (entity.ExtractionResult, error) {
	lock := c.keyLock(hashHex)
	lock.Lock()
	defer lock.Unlock()

	if res, ok := c.lookup(hashHex); ok {
		c.logger.Debug("extract.cache.hit", "hash", hashHex)
		return res, nil
	}

	res, err := fn(ctx)
	if err != nil {
		return entity.ExtractionResult{}, err
	}
	c.store(hashHex, res)
	return res, nil
}

// Clear removes every cache entry, on disk and in memory, and returns the
// number of files removed.
func (c *Cache) Clear() (int, error) {
	c.mu.Lock()
	c.mem = make(map[string]entity.ExtractionResult)
	c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cache dir: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			c.logger.Warn("extract.cache.remove_failed", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}
	c.logger.Info("extract.cache.cleared", "removed", removed)
	return removed, nil
}

func (c *Cache) keyLock(hashHex string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[hashHex]
	if !ok {
		l = &sync.Mutex{}
		c.locks[hashHex] = l
	}
	return l
}

func (c *Cache) lookup(hashHex string) (entity.ExtractionResult, bool) {
	c.mu.Lock()
	res, ok := c.mem[hashHex]
	c.mu.Unlock()
	if ok {
		return res, true
	}

	raw, err := os.ReadFile(c.entryPath(hashHex))
	if err != nil {
		return entity.ExtractionResult{}, false
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		// Corrupt entry: treat as a miss and let extraction overwrite it.
		c.logger.Warn("extract.cache.corrupt_entry", "hash", hashHex, "error", err)
		return entity.ExtractionResult{}, false
	}
	c.mu.Lock()
	c.mem[hashHex] = res
	c.mu.Unlock()
	return res, true
}

func (c *Cache) store(hashHex string, res entity.ExtractionResult) {
	c.mu.Lock()
	c.mem[hashHex] = res
	c.mu.Unlock()

	raw, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		c.logger.Warn("extract.cache.encode_failed", "hash", hashHex, "error", err)
		return
	}
	if err := os.WriteFile(c.entryPath(hashHex), raw, 0o644); err != nil {
		// Disk persistence is best-effort; the in-memory entry still
		// upholds the one-extraction-per-hash guarantee.
		c.logger.Warn("extract.cache.write_failed", "hash", hashHex, "error", err)
	}
}

func (c *Cache) entryPath(hashHex string) string {
	return filepath.Join(c.dir, hashHex+".json")
}
