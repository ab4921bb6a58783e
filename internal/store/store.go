// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package store

import (
	"errors"
	"time"

	"github.com/tomtom215/watchparty/internal/party"
)

// Sentinel errors surfaced by the store boundary. The core itself never
// returns these; lookup misses and conflicts are shell concerns.
var (
	// ErrNotFound indicates no session exists for the given code (never
	// created, deleted, or already evicted).
	ErrNotFound = errors.New("session not found")

	// ErrConflict indicates a persistent backend could not serialize a
	// read-modify-write after retries.
	ErrConflict = errors.New("session update conflict")
)

// DefaultTTL is the absolute session lifetime measured from CreatedAt.
const DefaultTTL = 24 * time.Hour

// UpdateFunc is a pure transition applied inside the store's
// synchronization. It receives the current snapshot and returns the
// snapshot to persist.
type UpdateFunc func(party.Session) party.Session

// Store holds session snapshots keyed by join code.
//
// Update is the only safe way to mutate an existing session: it applies fn
// atomically with respect to all other mutations of the same code and
// returns both the snapshot fn saw and the snapshot that was written, so
// callers can detect silent core rejections by comparing the two.
type Store interface {
	// Get returns the session for code, or ErrNotFound.
	Get(code string) (party.Session, error)

	// Put stores a session under code, overwriting any existing value.
	Put(code string, s party.Session) error

	// Delete removes the session for code. Absent codes are a no-op.
	Delete(code string) error

	// Update atomically applies fn to the session stored under code and
	// persists the result. Returns the before and after snapshots, or
	// ErrNotFound when the code is absent.
	Update(code string, fn UpdateFunc) (before, after party.Session, err error)

	// SweepExpired removes every session whose age (now - CreatedAt)
	// exceeds maxAge and returns the number removed.
	SweepExpired(maxAge time.Duration) int

	// Len returns the number of stored sessions.
	Len() int

	// Close releases backend resources.
	Close() error
}
