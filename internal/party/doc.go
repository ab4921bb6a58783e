// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

// Package party implements the watch party synchronization core: the session
// model, its lifecycle state machine, membership admission with capacity
// enforcement, the playback clock drift protocol, chat message validation and
// sanitization, and the human-shareable join code generator.
//
// Every exposed operation is a synchronous pure function over an immutable
// session snapshot: it takes a Session value, returns a new Session value, and
// never retains references across calls. There is no shared mutable state in
// this package and therefore no locking. Concurrency control (at-most-one
// in-flight mutation per session code) is the responsibility of the store
// layer; see internal/store.
//
// Expected business conditions are silent no-ops, not errors: a duplicate
// join, a join against a full session, and a leave for an absent member all
// return an unchanged (or appropriately transitioned) snapshot. Callers
// detect rejection by comparing member counts before and after. Genuine
// validation failures (malformed codes, oversized chat messages) are reported
// by the dedicated validators, which callers must check before mutating.
package party
