package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultMaxEntries bounds a result cache when no size is given.
const DefaultMaxEntries = 4096

// ResultCache stores values of type T, msgpack encoded, under content
// keys. It is safe for concurrent use.
type ResultCache[T any] struct {
	path  string
	lru   *LRUCache
	mu    sync.Mutex
	dirty bool
}

// Open creates a result cache backed by the file at path and loads any
// previous contents. An empty path keeps the cache in memory only.
// A file that cannot be decoded is returned as an error together with an
// empty, usable cache.
func Open[T any](path string, maxEntries int) (*ResultCache[T], error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	rc := &ResultCache[T]{path: path, lru: New(Options{MaxSize: maxEntries})}
	if path == "" {
		return rc, nil
	}
	if err := LoadFromFile(rc.lru, path); err != nil {
		rc.lru.Clear()
		rc.dirty = true
		return rc, fmt.Errorf("discarding cache %s: %w", path, err)
	}
	return rc, nil
}

// Key derives a cache key from the given parts.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get decodes the value stored under key.
func (rc *ResultCache[T]) Get(key string) (T, error) {
	var v T
	data, ok := rc.lru.Get(key)
	if !ok {
		return v, ErrKeyNotFound
	}
	if err := msgpack.Unmarshal(data, &v); err != nil {
		rc.lru.Delete(key)
		return v, fmt.Errorf("decoding cache entry: %w", err)
	}
	return v, nil
}

// Put encodes and stores v under key.
func (rc *ResultCache[T]) Put(key string, v T) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	rc.lru.Set(key, data)

	rc.mu.Lock()
	rc.dirty = true
	rc.mu.Unlock()
	return nil
}

// Len returns the number of cached values.
func (rc *ResultCache[T]) Len() int {
	return rc.lru.Len()
}

// Close writes the cache back to its file if anything changed.
func (rc *ResultCache[T]) Close() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.path == "" || !rc.dirty {
		return nil
	}
	if err := PersistToFile(rc.lru, rc.path); err != nil {
		return err
	}
	rc.dirty = false
	return nil
}
