// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/watchparty/internal/party"
)

const (
	partyKeyPrefix = "party:"

	// updateRetries bounds optimistic-concurrency retries when concurrent
	// transactions touch the same session key.
	updateRetries = 5
)

// BadgerStore is a persistent session store backed by BadgerDB. Sessions
// survive restarts; read-modify-write serialization comes from Badger's
// transaction conflict detection, retried a bounded number of times.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

// OpenBadgerStore opens (or creates) a BadgerDB-backed store at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store at %s: %w", path, err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an already-open BadgerDB handle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now}
}

func partyKey(code string) []byte {
	return []byte(partyKeyPrefix + code)
}

// Get returns the session for code, or ErrNotFound.
func (b *BadgerStore) Get(code string) (party.Session, error) {
	var s party.Session
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(partyKey(code))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		})
	})
	if err != nil {
		return party.Session{}, err
	}
	return s, nil
}

// Put stores a session under code, overwriting any existing value.
func (b *BadgerStore) Put(code string, s party.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(partyKey(code), data)
	})
}

// Delete removes the session for code. Absent codes are a no-op.
func (b *BadgerStore) Delete(code string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(partyKey(code))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Update applies fn inside a Badger transaction. Conflicting concurrent
// updates abort and retry, preserving the at-most-one in-flight mutation
// guarantee without a process-wide lock.
func (b *BadgerStore) Update(code string, fn UpdateFunc) (party.Session, party.Session, error) {
	var before, after party.Session

	for attempt := 0; attempt < updateRetries; attempt++ {
		err := b.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(partyKey(code))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &before)
			}); err != nil {
				return fmt.Errorf("unmarshal session: %w", err)
			}

			after = fn(before)
			data, err := json.Marshal(after)
			if err != nil {
				return fmt.Errorf("marshal session: %w", err)
			}
			return txn.Set(partyKey(code), data)
		})

		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return party.Session{}, party.Session{}, err
		}
		return before, after, nil
	}

	return party.Session{}, party.Session{}, ErrConflict
}

// SweepExpired iterates all sessions and removes those older than maxAge.
func (b *BadgerStore) SweepExpired(maxAge time.Duration) int {
	now := b.now()
	var expired []string

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(partyKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var s party.Session
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			}); err != nil {
				continue
			}
			if now.Sub(s.CreatedAt) > maxAge {
				expired = append(expired, s.Code)
			}
		}
		return nil
	})
	if err != nil {
		return 0
	}

	evicted := 0
	for _, code := range expired {
		if err := b.Delete(code); err == nil {
			evicted++
		}
	}
	return evicted
}

// Len counts stored sessions by key iteration.
func (b *BadgerStore) Len() int {
	count := 0
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(partyKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count
}

// Close closes the underlying BadgerDB handle.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
