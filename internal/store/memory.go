// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package store

import (
	"sync"
	"time"

	"github.com/tomtom215/watchparty/internal/party"
)

// Stats tracks store activity for monitoring.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	LastSweep time.Time
}

// MemoryStore is a thread-safe in-memory session store. A single write lock
// covers every mutation, which trivially satisfies the at-most-one in-flight
// mutation requirement: core transitions are pure, allocation-light functions,
// so running them under the lock is cheaper than per-key lock management at
// this scale.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]party.Session
	now      func() time.Time

	statsMu sync.Mutex
	stats   Stats
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the wall clock used for sweep age checks.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		sessions: make(map[string]party.Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the session for code, or ErrNotFound.
func (m *MemoryStore) Get(code string) (party.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[code]
	m.mu.RUnlock()

	if !ok {
		m.recordMiss()
		return party.Session{}, ErrNotFound
	}
	m.recordHit()
	return s, nil
}

// Put stores a session under code, overwriting any existing value.
func (m *MemoryStore) Put(code string, s party.Session) error {
	m.mu.Lock()
	m.sessions[code] = s
	m.mu.Unlock()
	return nil
}

// Delete removes the session for code. Absent codes are a no-op.
func (m *MemoryStore) Delete(code string) error {
	m.mu.Lock()
	delete(m.sessions, code)
	m.mu.Unlock()
	return nil
}

// Update applies fn under the write lock, so concurrent updates against the
// same code are fully serialized and no capacity check can race.
func (m *MemoryStore) Update(code string, fn UpdateFunc) (party.Session, party.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before, ok := m.sessions[code]
	if !ok {
		m.recordMiss()
		return party.Session{}, party.Session{}, ErrNotFound
	}

	after := fn(before)
	m.sessions[code] = after
	m.recordHit()
	return before, after, nil
}

// SweepExpired removes sessions older than maxAge, measured from CreatedAt.
// Absolute age, not idle time: activity does not extend a session's life.
func (m *MemoryStore) SweepExpired(maxAge time.Duration) int {
	now := m.now()

	m.mu.Lock()
	evicted := 0
	for code, s := range m.sessions {
		if now.Sub(s.CreatedAt) > maxAge {
			delete(m.sessions, code)
			evicted++
		}
	}
	m.mu.Unlock()

	m.statsMu.Lock()
	m.stats.Evictions += int64(evicted)
	m.stats.LastSweep = now
	m.statsMu.Unlock()

	return evicted
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close is a no-op for the in-memory backend.
func (m *MemoryStore) Close() error {
	return nil
}

// GetStats returns a snapshot of store activity counters.
func (m *MemoryStore) GetStats() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

func (m *MemoryStore) recordHit() {
	m.statsMu.Lock()
	m.stats.Hits++
	m.statsMu.Unlock()
}

func (m *MemoryStore) recordMiss() {
	m.statsMu.Lock()
	m.stats.Misses++
	m.statsMu.Unlock()
}
