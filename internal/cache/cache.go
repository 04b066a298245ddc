// Package cache keeps successful upstream response bodies for a short TTL so
// repeated dashboard queries (and the 24-district map fan-out) do not hit the
// results API every time.
package cache

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/yourorg/elecciones/internal/metrics"
)

// ErrMiss indicates the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the minimal cache surface used by the upstream client.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte) error
}

// Badger stores entries in badger with a per-entry TTL.
type Badger struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens a badger cache at dir; an empty dir keeps everything in memory.
func Open(dir string, ttl time.Duration) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db, ttl: ttl}, nil
}

func (b *Badger) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return out, nil
}

func (b *Badger) Set(key string, val []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), val)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Close releases the underlying database.
func (b *Badger) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
