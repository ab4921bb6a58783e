// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

// Package store is the imperative shell around the pure party core: a keyed
// session store with serialized per-code mutation and coarse time-based
// eviction.
//
// The core computes every transition from a snapshot, so two concurrent
// mutations racing the same code could lose an update (e.g. two joins racing
// the same capacity check). Update closes that hole: it runs the caller's
// transition function inside the store's own synchronization, guaranteeing
// at-most-one in-flight mutation per session code.
//
// Two backends implement Store: MemoryStore (mutex-guarded map, the default)
// and BadgerStore (persistent, BadgerDB transactions). Eviction is absolute
// age from session creation, not idle time — a long-running popular session
// still expires at the TTL. The Sweeper service runs the sweep on a ticker
// under supervision.
package store
