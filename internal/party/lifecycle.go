// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package party

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Engine applies lifecycle transitions to session snapshots. It carries the
// injectable dependencies every transition needs (wall clock, id generation,
// entropy for join codes) so tests can pin them; it holds no session state.
// A single Engine is safe for concurrent use from any number of goroutines.
type Engine struct {
	now     func() time.Time
	newID   func() string
	entropy io.Reader
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the wall clock used to stamp transitions.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDFunc overrides opaque id generation (sessions and chat messages).
func WithIDFunc(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithEntropy overrides the random source used for join code generation.
func WithEntropy(r io.Reader) Option {
	return func(e *Engine) { e.entropy = r }
}

// NewEngine builds an Engine with production defaults: time.Now, UUIDv4 ids,
// and the process CSPRNG for join codes.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateCode draws a join code from the engine's entropy source.
func (e *Engine) GenerateCode() (string, error) {
	if e.entropy != nil {
		return GenerateCodeFrom(e.entropy)
	}
	return GenerateCode()
}

// Create builds a fresh session: newly generated code, the host as sole
// member, clock at rest, settings merged over the documented defaults when
// the caller passes nil. Create has no failure mode beyond entropy
// exhaustion.
func (e *Engine) Create(hostID, hostName, mediaURL, mediaTitle string, settings *Settings) (Session, error) {
	code, err := e.GenerateCode()
	if err != nil {
		return Session{}, err
	}

	cfg := DefaultSettings()
	if settings != nil {
		cfg = *settings
	}

	now := e.now()
	return Session{
		ID:         e.newID(),
		Code:       code,
		HostID:     hostID,
		HostName:   hostName,
		MediaURL:   mediaURL,
		MediaTitle: mediaTitle,
		CreatedAt:  now,
		State:      StateWaiting,
		Members: []Member{{
			ID:       hostID,
			Name:     hostName,
			IsHost:   true,
			JoinedAt: now,
		}},
		Clock: PlaybackClock{
			IsPlaying:   false,
			CurrentTime: 0,
			Duration:    0,
			LastUpdate:  now,
		},
		Settings: cfg,
	}, nil
}

// Join admits a member. Duplicate ids and capacity-exceeded joins return the
// session unchanged; callers compare member counts to detect rejection.
func (e *Engine) Join(s Session, memberID, memberName string) Session {
	if s.HasMember(memberID) {
		return s
	}
	if len(s.Members) >= s.Settings.MaxMembers {
		return s
	}

	out := s.clone()
	out.Members = append(out.Members, Member{
		ID:       memberID,
		Name:     memberName,
		IsHost:   false,
		JoinedAt: e.now(),
	})
	return out
}

// Leave removes the member with memberID; absent ids are a no-op. Removing
// the host transitions the session to ended: the session cannot outlive its
// host.
func (e *Engine) Leave(s Session, memberID string) Session {
	idx := -1
	for i, m := range s.Members {
		if m.ID == memberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}

	out := s.clone()
	wasHost := out.Members[idx].IsHost
	out.Members = append(out.Members[:idx], out.Members[idx+1:]...)
	if wasHost {
		out.State = StateEnded
	}
	return out
}

// End explicitly transitions the session to its terminal state. Ending an
// already-ended session is a no-op.
func (e *Engine) End(s Session) Session {
	if s.State == StateEnded {
		return s
	}
	out := s.clone()
	out.State = StateEnded
	return out
}

// PlaybackUpdate is a partial clock patch. Nil fields are left untouched.
type PlaybackUpdate struct {
	IsPlaying   *bool    `json:"is_playing,omitempty"`
	CurrentTime *float64 `json:"current_time,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
}

// UpdatePlayback applies the provided clock fields over the existing clock
// and stamps LastUpdate. No monotonicity validation is performed; callers
// gate authorization via CanControl before invoking this.
func (e *Engine) UpdatePlayback(s Session, update PlaybackUpdate) Session {
	out := s.clone()
	if update.IsPlaying != nil {
		out.Clock.IsPlaying = *update.IsPlaying
	}
	if update.CurrentTime != nil {
		out.Clock.CurrentTime = *update.CurrentTime
	}
	if update.Duration != nil {
		out.Clock.Duration = *update.Duration
	}
	out.Clock.LastUpdate = e.now()
	out.State = deriveState(out.State, out.Clock)
	return out
}

// CanControl reports whether memberID may issue playback commands: true for
// the host, and true for anyone when guest control is enabled. The guest
// path deliberately does not check membership; callers that care must
// confirm membership separately.
func CanControl(s Session, memberID string) bool {
	if memberID == s.HostID {
		return true
	}
	return s.Settings.AllowGuestControl
}
