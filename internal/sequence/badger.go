// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package sequence

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const (
	badgerKeyPrefix  = "seq:"
	badgerMaxRetries = 16
)

// Badger stores each counter as a big-endian uint64 under "seq:<name>".
// Increments through one Badger are serialised; a conflict with another
// writer on the same *badger.DB is retried.
type Badger struct {
	db *badger.DB
	mu sync.Mutex
}

func NewBadger(db *badger.DB) *Badger {
	return &Badger{db: db}
}

// OpenBadger opens (or creates) a Badger directory for counters.
// An empty path opens an in-memory store.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

func (b *Badger) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	key := []byte(badgerKeyPrefix + name)

	b.mu.Lock()
	defer b.mu.Unlock()

	for attempt := 0; attempt < badgerMaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var next uint64
		err := b.db.Update(func(txn *badger.Txn) error {
			var cur uint64
			item, err := txn.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return fmt.Errorf("get counter: %w", err)
			default:
				if err := item.Value(func(val []byte) error {
					if len(val) != 8 {
						return fmt.Errorf("corrupt counter value (%d bytes)", len(val))
					}
					cur = binary.BigEndian.Uint64(val)
					return nil
				}); err != nil {
					return err
				}
			}

			next = cur + 1
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, next)
			return txn.Set(key, buf)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return int64(next), nil
	}
	return 0, fmt.Errorf("increment %q: %w after %d attempts", name, badger.ErrConflict, badgerMaxRetries)
}
