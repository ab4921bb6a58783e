// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package store

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/watchparty/internal/party"
)

func newBadgerTestStore(t *testing.T) (*BadgerStore, string) {
	t.Helper()
	dir := t.TempDir()
	b, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b, dir
}

func TestBadgerStore_GetPutDelete(t *testing.T) {
	b, _ := newBadgerTestStore(t)
	engine := party.NewEngine()
	s := newTestSession(t, engine, 10)

	if _, err := b.Get(s.Code); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before put, got %v", err)
	}

	if err := b.Put(s.Code, s); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := b.Get(s.Code)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != s.ID || got.MemberCount() != 1 {
		t.Errorf("round-tripped session does not match: %+v", got)
	}

	if err := b.Delete(s.Code); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := b.Get(s.Code); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestBadgerStore_UpdateAppliesTransition(t *testing.T) {
	b, _ := newBadgerTestStore(t)
	engine := party.NewEngine()
	s := newTestSession(t, engine, 10)

	if err := b.Put(s.Code, s); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	before, after, err := b.Update(s.Code, func(cur party.Session) party.Session {
		return engine.Join(cur, "m1", "Bob")
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if before.MemberCount() != 1 || after.MemberCount() != 2 {
		t.Errorf("expected member count 1 -> 2, got %d -> %d",
			before.MemberCount(), after.MemberCount())
	}

	got, err := b.Get(s.Code)
	if err != nil {
		t.Fatalf("Get after update failed: %v", err)
	}
	if !got.HasMember("m1") {
		t.Error("joined member not persisted")
	}
}

func TestBadgerStore_UpdateAbsentCode(t *testing.T) {
	b, _ := newBadgerTestStore(t)

	_, _, err := b.Update("ZZZZ99", func(s party.Session) party.Session { return s })
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBadgerStore_SweepExpired(t *testing.T) {
	b, _ := newBadgerTestStore(t)
	engine := party.NewEngine()

	for i := 0; i < 3; i++ {
		s := newTestSession(t, engine, 10)
		if err := b.Put(s.Code, s); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if n := b.Len(); n != 3 {
		t.Fatalf("expected 3 sessions, got %d", n)
	}

	time.Sleep(5 * time.Millisecond)

	if evicted := b.SweepExpired(time.Millisecond); evicted != 3 {
		t.Errorf("expected 3 evictions, got %d", evicted)
	}
	if n := b.Len(); n != 0 {
		t.Errorf("expected empty store after sweep, got %d", n)
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	engine := party.NewEngine()
	s := newTestSession(t, engine, 10)

	b, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	if err := b.Put(s.Code, s); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(s.Code)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.ID != s.ID {
		t.Errorf("session changed across reopen: %+v", got)
	}
}
