package tagcache

import (
	"context"
	"os"

	"repomap/internal/logging"
	"repomap/internal/tags"
)

// Extractor produces tags for a file. Satisfied by tags.Extractor.
type Extractor interface {
	ExtractFile(ctx context.Context, relPath, absPath string) ([]tags.Tag, error)
}

// TagCache serves per-file tags, regenerating them only when a file's
// modification time no longer matches the cached entry.
type TagCache struct {
	store     TagStore
	extractor Extractor
	logger    *logging.Logger
}

// NewTagCache creates a cache over the given store and extractor.
func NewTagCache(store TagStore, extractor Extractor, logger *logging.Logger) *TagCache {
	if logger == nil {
		logger = logging.Discard()
	}
	return &TagCache{
		store:     store,
		extractor: extractor,
		logger:    logger,
	}
}

// Mtime returns a file's modification time as fractional epoch seconds.
func Mtime(absPath string) (float64, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, err
	}
	return float64(info.ModTime().UnixNano()) / 1e9, nil
}

// GetTags returns the tags for a file, serving from the store when the
// cached mtime matches the file's current mtime. forceRefresh bypasses
// the mtime check and always re-extracts.
func (c *TagCache) GetTags(ctx context.Context, relPath, absPath string, forceRefresh bool) ([]tags.Tag, error) {
	mtime, err := Mtime(absPath)
	if err != nil {
		return nil, err
	}

	if !forceRefresh {
		if entry, ok := c.store.Get(absPath); ok && entry.Mtime == mtime {
			return entry.Tags, nil
		}
	}

	extracted, err := c.extractor.ExtractFile(ctx, relPath, absPath)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(absPath, Entry{Mtime: mtime, Tags: extracted}); err != nil {
		// Cache write failures degrade performance, not correctness.
		c.logger.Warn("Failed to store tags", map[string]interface{}{
			"path":  absPath,
			"error": err.Error(),
		})
	}

	return extracted, nil
}

// Close releases the underlying store.
func (c *TagCache) Close() error {
	return c.store.Close()
}
