// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package party

import (
	"time"
)

// State is the lifecycle state of a session.
//
// The waiting/playing/paused states are a projection of the playback clock:
// a session that has never started playback is "waiting", a session whose
// clock is running is "playing", and a session whose clock has been started
// and stopped is "paused". "ended" is an explicit terminal override reached
// only through host departure or an end command; no transition leaves it.
type State string

const (
	// StateWaiting is the initial state: the host created the session but
	// playback has never been started.
	StateWaiting State = "waiting"

	// StatePlaying mirrors PlaybackClock.IsPlaying == true.
	StatePlaying State = "playing"

	// StatePaused means the clock has been started at least once and is
	// currently stopped.
	StatePaused State = "paused"

	// StateEnded is terminal. Reached via host departure or an explicit end.
	StateEnded State = "ended"
)

// Member is one connected identity inside a session. Member IDs are unique
// within a session; exactly one member has IsHost set while the session is
// not ended.
type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsHost   bool      `json:"is_host"`
	JoinedAt time.Time `json:"joined_at"`
}

// PlaybackClock is the host-authoritative playback position. CurrentTime is
// meaningful only relative to LastUpdate, which is the sole timestamp clients
// use to judge staleness. LastUpdate only advances.
type PlaybackClock struct {
	IsPlaying   bool      `json:"is_playing"`
	CurrentTime float64   `json:"current_time"`
	Duration    float64   `json:"duration"`
	LastUpdate  time.Time `json:"last_update"`
}

// Settings holds per-session policy. Immutable after creation except via an
// explicit settings update command.
type Settings struct {
	// MaxMembers is the admission ceiling enforced by Join.
	MaxMembers int `json:"max_members"`

	// ChatEnabled gates the chat subsystem for this session.
	ChatEnabled bool `json:"chat_enabled"`

	// AllowGuestControl lets non-host members issue playback commands.
	AllowGuestControl bool `json:"allow_guest_control"`
}

// Default session settings applied by Create when the caller passes nil.
const (
	DefaultMaxMembers        = 50
	DefaultChatEnabled       = true
	DefaultAllowGuestControl = false
)

// DefaultSettings returns the documented default settings.
func DefaultSettings() Settings {
	return Settings{
		MaxMembers:        DefaultMaxMembers,
		ChatEnabled:       DefaultChatEnabled,
		AllowGuestControl: DefaultAllowGuestControl,
	}
}

// Session is an immutable snapshot of one watch party. Lifecycle operations
// never mutate a Session in place; they return a fresh value with the members
// slice cloned, so snapshots held by concurrent readers stay stable.
//
// Invariant: a session always contains at least one member (the host, at
// index 0) until the leave operation that terminates it.
type Session struct {
	ID         string        `json:"id"`
	Code       string        `json:"code"`
	HostID     string        `json:"host_id"`
	HostName   string        `json:"host_name"`
	MediaURL   string        `json:"media_url"`
	MediaTitle string        `json:"media_title"`
	CreatedAt  time.Time     `json:"created_at"`
	State      State         `json:"state"`
	Members    []Member      `json:"members"`
	Clock      PlaybackClock `json:"clock"`
	Settings   Settings      `json:"settings"`
}

// Host returns the host member and true, or a zero Member and false after
// the host has left.
func (s Session) Host() (Member, bool) {
	for _, m := range s.Members {
		if m.IsHost {
			return m, true
		}
	}
	return Member{}, false
}

// HasMember reports whether id is currently a member of the session.
func (s Session) HasMember(id string) bool {
	for _, m := range s.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// MemberCount returns the current number of members.
func (s Session) MemberCount() int {
	return len(s.Members)
}

// Ended reports whether the session has reached its terminal state.
func (s Session) Ended() bool {
	return s.State == StateEnded
}

// clone returns a deep copy of the session with its own members slice.
// All transition functions operate on a clone so the input snapshot is
// never aliased by the output.
func (s Session) clone() Session {
	out := s
	out.Members = make([]Member, len(s.Members))
	copy(out.Members, s.Members)
	return out
}

// deriveState projects the lifecycle state from the playback clock. The
// ended override is sticky; otherwise a running clock means playing, a
// stopped clock means paused once playback has ever started, and waiting
// until then.
func deriveState(prev State, clock PlaybackClock) State {
	if prev == StateEnded {
		return StateEnded
	}
	if clock.IsPlaying {
		return StatePlaying
	}
	if prev == StateWaiting {
		return StateWaiting
	}
	return StatePaused
}
