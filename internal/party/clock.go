// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package party

import "math"

// ResyncThreshold is the drift tolerance in seconds before a client is
// instructed to seek. Chosen to absorb normal network and decoder jitter
// while catching genuine desync; the boundary itself does not trigger a
// resync (strict inequality).
const ResyncThreshold = 2.0

// Sync plan actions.
const (
	SyncActionNone = "none"
	SyncActionSeek = "seek"
)

// SyncPlan is the advisory result of comparing a client clock against the
// host-authoritative session clock. The core only advises; the caller
// applies the seek.
type SyncPlan struct {
	Action     string  `json:"action"`
	TargetTime float64 `json:"target_time"`
	IsPlaying  bool    `json:"is_playing"`
}

// Offset returns the signed drift between the host clock and a client
// clock, in seconds. Positive means the client is behind the host.
func Offset(hostTime, clientTime float64) float64 {
	return hostTime - clientTime
}

// NeedsResync reports whether the given drift exceeds the resync threshold.
func NeedsResync(offset float64) bool {
	return math.Abs(offset) > ResyncThreshold
}

// PlanSync computes the advisory sync plan for a client reporting
// clientTime against the session's authoritative clock. Within tolerance
// the action is "none" and the client continues unmodified; beyond it the
// plan is a seek to the host position with the host's play state.
func PlanSync(s Session, clientTime float64) SyncPlan {
	offset := Offset(s.Clock.CurrentTime, clientTime)
	if !NeedsResync(offset) {
		return SyncPlan{
			Action:     SyncActionNone,
			TargetTime: clientTime,
			IsPlaying:  s.Clock.IsPlaying,
		}
	}
	return SyncPlan{
		Action:     SyncActionSeek,
		TargetTime: s.Clock.CurrentTime,
		IsPlaying:  s.Clock.IsPlaying,
	}
}
