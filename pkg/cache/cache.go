// Package cache provides an optional response cache for window judgments.
// Reranking is deterministic at temperature 0, so an identical
// (model, prompt) pair can reuse the previous raw response instead of
// paying for another backend call.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found in cache")

// Cache defines the standard caching operations.
type Cache interface {
	// Set stores a value with a TTL.
	Set(key string, value []byte, ttl time.Duration) error
	// Get retrieves a value.
	Get(key string) ([]byte, error)
	// Delete removes a value.
	Delete(key string) error
	// Close closes the cache.
	Close() error
}

// ResponseKey derives the cache key for one window judgment.
func ResponseKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return "rerank:" + hex.EncodeToString(sum[:])
}

// BadgerCache implements Cache using BadgerDB.
type BadgerCache struct {
	db *badger.DB
}

// NewBadgerCache creates a new BadgerDB-backed cache at path.
func NewBadgerCache(path string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerCache{db: db}, nil
}

// Set stores a value with a TTL.
func (c *BadgerCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// Get retrieves a value.
func (c *BadgerCache) Get(key string) ([]byte, error) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	return val, nil
}

// Delete removes a value.
func (c *BadgerCache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close closes the cache.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}

// MemoryCache is a process-local Cache used in tests and single-shot CLI
// runs where persistence across processes is not wanted. TTLs are honored
// lazily on Get.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Set stores a value with a TTL. A zero TTL means no expiry.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

// Get retrieves a value.
func (c *MemoryCache) Get(key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrKeyNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), entry.value...), nil
}

// Delete removes a value.
func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Close is a no-op for the in-memory cache.
func (c *MemoryCache) Close() error {
	return nil
}
