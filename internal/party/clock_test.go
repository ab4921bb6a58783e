// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package party

import (
	"testing"
	"time"
)

func TestOffset_Signed(t *testing.T) {
	if got := Offset(45, 42); got != 3 {
		t.Errorf("Offset(45, 42) = %v, want 3", got)
	}
	if got := Offset(42, 45); got != -3 {
		t.Errorf("Offset(42, 45) = %v, want -3", got)
	}
	if got := Offset(10, 10); got != 0 {
		t.Errorf("Offset(10, 10) = %v, want 0", got)
	}
}

func TestNeedsResync_Threshold(t *testing.T) {
	cases := []struct {
		offset float64
		want   bool
	}{
		{0, false},
		{1.9, false},
		{-1.9, false},
		{2.0, false}, // boundary is strict: exactly 2.0 does not resync
		{-2.0, false},
		{2.001, true},
		{-2.001, true},
		{30, true},
	}
	for _, tc := range cases {
		if got := NeedsResync(tc.offset); got != tc.want {
			t.Errorf("NeedsResync(%v) = %v, want %v", tc.offset, got, tc.want)
		}
	}
}

func TestPlanSync(t *testing.T) {
	e := NewEngine(WithNow(func() time.Time { return time.Unix(1700000000, 0) }))
	s, err := e.Create("h1", "Host", "u", "T", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	playing := true
	current := 45.0
	duration := 120.0
	s = e.UpdatePlayback(s, PlaybackUpdate{IsPlaying: &playing, CurrentTime: &current, Duration: &duration})

	t.Run("drifted client is told to seek", func(t *testing.T) {
		plan := PlanSync(s, 42)
		if plan.Action != SyncActionSeek {
			t.Fatalf("expected seek, got %q", plan.Action)
		}
		if plan.TargetTime != 45 {
			t.Errorf("seek target must be the host position, got %v", plan.TargetTime)
		}
		if !plan.IsPlaying {
			t.Error("plan must mirror the session play state")
		}
	})

	t.Run("client within tolerance continues unmodified", func(t *testing.T) {
		plan := PlanSync(s, 44.5)
		if plan.Action != SyncActionNone {
			t.Errorf("expected none, got %q", plan.Action)
		}
		if !plan.IsPlaying {
			t.Error("plan must mirror the session play state")
		}
	})

	t.Run("boundary drift does not trigger a seek", func(t *testing.T) {
		plan := PlanSync(s, 43)
		if plan.Action != SyncActionNone {
			t.Errorf("offset of exactly 2.0 must not resync, got %q", plan.Action)
		}
	})

	t.Run("paused session plans a paused seek", func(t *testing.T) {
		stopped := false
		paused := e.UpdatePlayback(s, PlaybackUpdate{IsPlaying: &stopped})
		plan := PlanSync(paused, 0)
		if plan.Action != SyncActionSeek || plan.IsPlaying {
			t.Errorf("unexpected plan for paused session: %+v", plan)
		}
	})
}
