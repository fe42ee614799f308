// Package badgercache implements phototag.Cache on top of BadgerDB.
package badgercache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultTTL is how long cached scores are kept.
const DefaultTTL = 30 * 24 * time.Hour

// Options configures a Cache.
type Options struct {
	TTL time.Duration // default: DefaultTTL; negative disables expiry
}

// Cache stores JSON-encoded values in a Badger database.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) the cache in dir. An empty dir keeps the cache in
// memory for the lifetime of the process.
func Open(dir string, opts Options) (*Cache, error) {
	bopts := badger.DefaultOptions(dir)
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Key builds a cache key. Long values are hashed to keep keys short.
func (c *Cache) Key(prefix, value string) string {
	if len(value) > 128 {
		sum := sha256.Sum256([]byte(value))
		value = hex.EncodeToString(sum[:])
	}
	return prefix + ":" + value
}

// Get decodes the value stored under key into dest. It reports false on a
// miss or when the stored value cannot be decoded.
func (c *Cache) Get(_ context.Context, key string, dest any) bool {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			slog.Debug("phototag: cache get failed", "key", key, "error", err)
		}
		return false
	}
	return true
}

// Set stores value under key. Failures are logged and otherwise ignored:
// the cache only saves scorer calls.
func (c *Cache) Set(_ context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Debug("phototag: cache encode failed", "key", key, "error", err)
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		slog.Debug("phototag: cache set failed", "key", key, "error", err)
	}
}

// Close flushes and closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
