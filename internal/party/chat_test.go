// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package party

import (
	"strings"
	"testing"
	"time"
)

func TestValidateMessage(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"tabs and newlines", "\t\n ", false},
		{"simple message", "hello", true},
		{"padded message", "  hello  ", true},
		{"exactly 1000 chars", strings.Repeat("a", 1000), true},
		{"1001 chars", strings.Repeat("a", 1001), false},
		{"1000 chars after trim", "  " + strings.Repeat("a", 1000) + "  ", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateMessage(tc.content); got != tc.want {
				t.Errorf("ValidateMessage(%q...) = %v, want %v", truncate(tc.content), got, tc.want)
			}
		})
	}
}

func truncate(s string) string {
	if len(s) > 16 {
		return s[:16]
	}
	return s
}

func TestSanitizeMessage(t *testing.T) {
	t.Run("strips script tags and trims", func(t *testing.T) {
		out := SanitizeMessage("  Hello <script>alert(1)</script>  ")
		if strings.Contains(out, "<script>") || strings.Contains(out, "</script>") {
			t.Errorf("sanitized output still contains script tags: %q", out)
		}
		if strings.HasPrefix(out, " ") || strings.HasSuffix(out, " ") {
			t.Errorf("sanitized output not trimmed: %q", out)
		}
		if !strings.Contains(out, "Hello") {
			t.Errorf("sanitize dropped legitimate content: %q", out)
		}
	})

	t.Run("escapes entities after stripping", func(t *testing.T) {
		out := SanitizeMessage("a < b & c > d")
		if out != "a &lt; b &amp; c &gt; d" {
			t.Errorf("unexpected escaping: %q", out)
		}
	})

	t.Run("ampersand escaped first, no double escaping", func(t *testing.T) {
		out := SanitizeMessage("&lt;")
		if out != "&amp;lt;" {
			t.Errorf("expected literal &lt; to become &amp;lt;, got %q", out)
		}
	})

	t.Run("strips arbitrary tags", func(t *testing.T) {
		out := SanitizeMessage(`<img src=x onerror=alert(1)>hi`)
		if out != "hi" {
			t.Errorf("expected tag stripped, got %q", out)
		}
	})
}

func TestNewMessage(t *testing.T) {
	now := time.Date(2026, 2, 14, 21, 5, 0, 0, time.UTC)
	e := NewEngine(
		WithNow(func() time.Time { return now }),
		WithIDFunc(func() string { return "msg-1" }),
	)

	msg := e.NewMessage("p1", "u1", "Ada", "  hi <b>there</b>  ", "")

	if msg.ID != "msg-1" {
		t.Errorf("unexpected id %q", msg.ID)
	}
	if msg.PartyID != "p1" || msg.UserID != "u1" || msg.UserName != "Ada" {
		t.Errorf("unexpected attribution: %+v", msg)
	}
	if msg.Content != "hi there" {
		t.Errorf("content not sanitized: %q", msg.Content)
	}
	if !msg.Timestamp.Equal(now) {
		t.Errorf("timestamp not stamped: %v", msg.Timestamp)
	}
	if msg.Type != MessageTypeChat {
		t.Errorf("empty type must default to message, got %q", msg.Type)
	}
}

func TestFormatMessage(t *testing.T) {
	ts := time.Date(2026, 2, 14, 9, 7, 0, 0, time.UTC)

	chat := ChatMessage{UserName: "Ada", Content: "hello", Timestamp: ts, Type: MessageTypeChat}
	if got := FormatMessage(chat); got != "[09:07] Ada: hello" {
		t.Errorf("unexpected chat format: %q", got)
	}

	system := ChatMessage{Content: "Ada joined", Timestamp: ts, Type: MessageTypeSystem}
	if got := FormatMessage(system); got != "[09:07] Ada joined" {
		t.Errorf("system messages carry no name prefix: %q", got)
	}

	reaction := ChatMessage{UserName: "Ada", Content: "🎉", Timestamp: ts, Type: MessageTypeReaction}
	if got := FormatMessage(reaction); got != "[09:07] Ada: 🎉" {
		t.Errorf("unexpected reaction format: %q", got)
	}
}
