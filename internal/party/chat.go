// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package party

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MessageType classifies a chat log entry.
type MessageType string

const (
	MessageTypeChat     MessageType = "message"
	MessageTypeSystem   MessageType = "system"
	MessageTypeReaction MessageType = "reaction"
)

// MaxMessageLength is the chat content ceiling, measured after trimming.
const MaxMessageLength = 1000

// htmlTagPattern matches anything shaped like an HTML tag. Stripping happens
// before entity escaping, so escaping cannot resurrect a stripped tag.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// ChatMessage is one append-only, session-scoped log entry. Created once and
// immutable thereafter; retention and deletion are store concerns.
type ChatMessage struct {
	ID        string      `json:"id"`
	PartyID   string      `json:"party_id"`
	UserID    string      `json:"user_id"`
	UserName  string      `json:"user_name"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}

// ValidateMessage reports whether content is acceptable: non-empty after
// trimming and at most MaxMessageLength characters. Callers must check this
// before NewMessage; message construction does not re-validate.
func ValidateMessage(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return false
	}
	return len([]rune(trimmed)) <= MaxMessageLength
}

// SanitizeMessage trims content, strips HTML tags, then escapes &, < and >
// for later HTML rendering. Ampersand is escaped first so the entities
// introduced for < and > are not double-escaped. Defense in depth only;
// render-time escaping still applies at the output context.
func SanitizeMessage(content string) string {
	out := strings.TrimSpace(content)
	out = htmlTagPattern.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, "&", "&amp;")
	out = strings.ReplaceAll(out, "<", "&lt;")
	out = strings.ReplaceAll(out, ">", "&gt;")
	return out
}

// NewMessage builds a chat message: sanitizes the content, stamps the
// current time and assigns a fresh opaque id. It does not validate; callers
// reject invalid content before calling (see ValidateMessage).
func (e *Engine) NewMessage(partyID, userID, userName, content string, msgType MessageType) ChatMessage {
	if msgType == "" {
		msgType = MessageTypeChat
	}
	return ChatMessage{
		ID:        e.newID(),
		PartyID:   partyID,
		UserID:    userID,
		UserName:  userName,
		Content:   SanitizeMessage(content),
		Timestamp: e.now(),
		Type:      msgType,
	}
}

// FormatMessage renders a display line for a message: "[HH:MM] name: content"
// for ordinary messages and reactions, "[HH:MM] content" for system messages.
// Display-only; never re-parsed.
func FormatMessage(m ChatMessage) string {
	stamp := m.Timestamp.Format("15:04")
	if m.Type == MessageTypeSystem {
		return fmt.Sprintf("[%s] %s", stamp, m.Content)
	}
	return fmt.Sprintf("[%s] %s: %s", stamp, m.UserName, m.Content)
}
