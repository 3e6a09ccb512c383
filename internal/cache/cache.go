// Package cache is a Badger-backed byte cache with per-entry expiry. The
// search service keeps upstream result pages here so repeated queries do not
// spend the TMDB request budget.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

const gcDiscardRatio = 0.5

// Options configures a Cache.
type Options struct {
	// Dir holds the Badger files. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	Logger   *slog.Logger
}

// Cache wraps a Badger database used purely as a TTL key-value store.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens or creates the cache.
func Open(opts Options) (*Cache, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.New("cache directory is required")
		}
		if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
		bopts = badger.DefaultOptions(opts.Dir)
		bopts.CompactL0OnClose = true
	}
	bopts.Logger = nil // Badger's own logging is too chatty

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	opts.Logger.Info("Search cache opened", "dir", opts.Dir, "in_memory", opts.InMemory)

	return &Cache{db: db, logger: opts.Logger}, nil
}

// Get returns a copy of the value stored under key.
func (c *Cache) Get(key string) ([]byte, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key. A non-positive ttl stores it without expiry.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) error {
	entry := badger.NewEntry([]byte(key), value)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}

	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	}); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// Len counts the live entries.
func (c *Cache) Len() (int, error) {
	count := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Purge drops every entry.
func (c *Cache) Purge() error {
	if err := c.db.DropAll(); err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}
	c.logger.Info("Search cache purged")
	return nil
}

// Ping verifies the database is still open.
func (c *Cache) Ping() error {
	if c.db.IsClosed() {
		return errors.New("cache is closed")
	}
	return nil
}

// RunGC reclaims value log space every interval until ctx is done.
func (c *Cache) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collectGarbage()
		}
	}
}

func (c *Cache) collectGarbage() {
	for {
		err := c.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) &&
			!errors.Is(err, badger.ErrGCInMemoryMode) {
			c.logger.Warn("Cache value log GC failed", "error", err)
		}
		return
	}
}

// Close closes the database.
func (c *Cache) Close() error {
	c.logger.Debug("Closing search cache")
	return c.db.Close()
}
