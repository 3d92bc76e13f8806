// Package filecache implements FileCache (spec §4.9): a path to content
// digest memoisation cache used when a task's watch profile has use_hash
// enabled. The cache is advisory; correctness never depends on its contents,
// only a stream of XXHash reads.
package filecache

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/zerr"
)

// FileCache memoises the content digest of files on disk, keyed by absolute
// path. Shared between the watcher's event handling and blocking hashing
// jobs, so every critical section is a short map operation.
type FileCache struct {
	mu      sync.Mutex
	digests map[string]string
}

// New returns an empty FileCache.
func New() *FileCache {
	return &FileCache{digests: make(map[string]string)}
}

// GetOrCompute returns the cached digest for path, computing and storing it
// via a streaming XXHash read if absent.
func (c *FileCache) GetOrCompute(path string) (string, error) {
	c.mu.Lock()
	if digest, ok := c.digests[path]; ok {
		c.mu.Unlock()
		return digest, nil
	}
	c.mu.Unlock()

	digest, err := hashFile(path)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.digests[path] = digest
	c.mu.Unlock()

	return digest, nil
}

// Invalidate drops path's cached entry, if any.
func (c *FileCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.digests, path)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the watcher's own walk
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}
