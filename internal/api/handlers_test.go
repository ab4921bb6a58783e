// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/watchparty/internal/config"
	"github.com/tomtom215/watchparty/internal/models"
	"github.com/tomtom215/watchparty/internal/party"
	"github.com/tomtom215/watchparty/internal/realtime"
	"github.com/tomtom215/watchparty/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, Timeout: 5 * time.Second},
		Store:  config.StoreConfig{Backend: "memory", SessionTTL: time.Hour, SweepInterval: time.Minute},
		Party: config.PartyConfig{
			MaxMembers:        50,
			ChatEnabled:       true,
			AllowGuestControl: false,
		},
		Security: config.SecurityConfig{
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	st := store.NewMemoryStore()
	t.Cleanup(func() { _ = st.Close() })

	hub := realtime.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Serve(ctx) }()

	h := NewHandler(st, party.NewEngine(), hub, testConfig(), "test")
	return NewRouter(h).Setup()
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	}
	return rec, env
}

func createParty(t *testing.T, router http.Handler, settings map[string]interface{}) party.Session {
	t.Helper()

	body := map[string]interface{}{
		"host_id":     "host-1",
		"host_name":   "Alice",
		"media_url":   "https://media.example.com/movie.mp4",
		"media_title": "Movie Night",
	}
	if settings != nil {
		body["settings"] = settings
	}

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/parties", body)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var s party.Session
	require.NoError(t, json.Unmarshal(env.Data, &s))
	return s
}

func TestCreateParty(t *testing.T) {
	router := newTestRouter(t)

	s := createParty(t, router, nil)
	require.Len(t, s.Code, 6)
	require.True(t, party.ValidateCode(s.Code))
	require.Equal(t, party.StateWaiting, s.State)
	require.Equal(t, 1, s.MemberCount())
	require.Equal(t, "host-1", s.HostID)
	require.Equal(t, 50, s.Settings.MaxMembers)

	t.Run("settings override", func(t *testing.T) {
		s := createParty(t, router, map[string]interface{}{
			"max_members":  2,
			"chat_enabled": false,
		})
		require.Equal(t, 2, s.Settings.MaxMembers)
		require.False(t, s.Settings.ChatEnabled)
		require.False(t, s.Settings.AllowGuestControl)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, "/api/v1/parties", map[string]interface{}{
			"host_name": "Alice",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})
}

func TestGetParty(t *testing.T) {
	router := newTestRouter(t)
	s := createParty(t, router, nil)

	rec, env := doJSON(t, router, http.MethodGet, "/api/v1/parties/"+s.Code, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got party.Session
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Equal(t, s.ID, got.ID)

	t.Run("unknown code", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/api/v1/parties/ZZZZ99", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "NOT_FOUND", env.Error.Code)
	})

	t.Run("malformed code", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/api/v1/parties/nope", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})
}

func TestJoinParty(t *testing.T) {
	router := newTestRouter(t)
	s := createParty(t, router, map[string]interface{}{"max_members": 2})
	base := "/api/v1/parties/" + s.Code

	rec, env := doJSON(t, router, http.MethodPost, base+"/join", map[string]interface{}{
		"member_id": "m1", "member_name": "Bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var after party.Session
	require.NoError(t, json.Unmarshal(env.Data, &after))
	require.Equal(t, 2, after.MemberCount())
	require.True(t, after.HasMember("m1"))

	t.Run("duplicate join is idempotent", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, base+"/join", map[string]interface{}{
			"member_id": "m1", "member_name": "Bob",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var s party.Session
		require.NoError(t, json.Unmarshal(env.Data, &s))
		require.Equal(t, 2, s.MemberCount())
	})

	t.Run("capacity rejection", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, base+"/join", map[string]interface{}{
			"member_id": "m2", "member_name": "Carol",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "PARTY_FULL", env.Error.Code)
	})

	t.Run("ended party rejects joins", func(t *testing.T) {
		s := createParty(t, router, nil)
		rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/parties/"+s.Code+"/end", map[string]interface{}{
			"member_id": "host-1",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, env := doJSON(t, router, http.MethodPost, "/api/v1/parties/"+s.Code+"/join", map[string]interface{}{
			"member_id": "late", "member_name": "Dan",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "PARTY_ENDED", env.Error.Code)
	})
}

func TestLeaveParty(t *testing.T) {
	router := newTestRouter(t)
	s := createParty(t, router, nil)
	base := "/api/v1/parties/" + s.Code

	rec, _ := doJSON(t, router, http.MethodPost, base+"/join", map[string]interface{}{
		"member_id": "m1", "member_name": "Bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, router, http.MethodPost, base+"/leave", map[string]interface{}{
		"member_id": "m1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var after party.Session
	require.NoError(t, json.Unmarshal(env.Data, &after))
	require.Equal(t, 1, after.MemberCount())
	require.Equal(t, party.StateWaiting, after.State)

	t.Run("absent member is a no-op", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPost, base+"/leave", map[string]interface{}{
			"member_id": "ghost",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("host departure ends the party", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, base+"/leave", map[string]interface{}{
			"member_id": "host-1",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var after party.Session
		require.NoError(t, json.Unmarshal(env.Data, &after))
		require.Equal(t, party.StateEnded, after.State)
		require.Equal(t, 0, after.MemberCount())
	})
}

func TestEndParty(t *testing.T) {
	router := newTestRouter(t)
	s := createParty(t, router, nil)
	base := "/api/v1/parties/" + s.Code

	rec, _ := doJSON(t, router, http.MethodPost, base+"/join", map[string]interface{}{
		"member_id": "m1", "member_name": "Bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("non-host is forbidden", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, base+"/end", map[string]interface{}{
			"member_id": "m1",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "FORBIDDEN", env.Error.Code)
	})

	rec, env := doJSON(t, router, http.MethodPost, base+"/end", map[string]interface{}{
		"member_id": "host-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var after party.Session
	require.NoError(t, json.Unmarshal(env.Data, &after))
	require.Equal(t, party.StateEnded, after.State)

	t.Run("ending twice is idempotent", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPost, base+"/end", map[string]interface{}{
			"member_id": "host-1",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUpdatePlayback(t *testing.T) {
	router := newTestRouter(t)
	s := createParty(t, router, nil)
	base := "/api/v1/parties/" + s.Code

	rec, _ := doJSON(t, router, http.MethodPost, base+"/join", map[string]interface{}{
		"member_id": "m1", "member_name": "Bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, router, http.MethodPost, base+"/playback", map[string]interface{}{
		"member_id":    "host-1",
		"is_playing":   true,
		"current_time": 42.5,
		"duration":     7200.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var after party.Session
	require.NoError(t, json.Unmarshal(env.Data, &after))
	require.True(t, after.Clock.IsPlaying)
	require.Equal(t, 42.5, after.Clock.CurrentTime)
	require.Equal(t, party.StatePlaying, after.State)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, base+"/playback", map[string]interface{}{
			"member_id":  "host-1",
			"is_playing": false,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var after party.Session
		require.NoError(t, json.Unmarshal(env.Data, &after))
		require.False(t, after.Clock.IsPlaying)
		require.Equal(t, 42.5, after.Clock.CurrentTime)
		require.Equal(t, party.StatePaused, after.State)
	})

	t.Run("guest denied without guest control", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, base+"/playback", map[string]interface{}{
			"member_id":  "m1",
			"is_playing": true,
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "FORBIDDEN", env.Error.Code)
	})

	t.Run("guest allowed with guest control", func(t *testing.T) {
		s := createParty(t, router, map[string]interface{}{"allow_guest_control": true})
		guestBase := "/api/v1/parties/" + s.Code

		rec, _ := doJSON(t, router, http.MethodPost, guestBase+"/join", map[string]interface{}{
			"member_id": "g1", "member_name": "Guest",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = doJSON(t, router, http.MethodPost, guestBase+"/playback", map[string]interface{}{
			"member_id": "g1", "is_playing": true,
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-member denied even with guest control", func(t *testing.T) {
		s := createParty(t, router, map[string]interface{}{"allow_guest_control": true})

		rec, env := doJSON(t, router, http.MethodPost, "/api/v1/parties/"+s.Code+"/playback", map[string]interface{}{
			"member_id": "outsider", "is_playing": true,
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "FORBIDDEN", env.Error.Code)
	})

	t.Run("ended party rejects playback", func(t *testing.T) {
		s := createParty(t, router, nil)
		endedBase := "/api/v1/parties/" + s.Code

		rec, _ := doJSON(t, router, http.MethodPost, endedBase+"/end", map[string]interface{}{
			"member_id": "host-1",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, env := doJSON(t, router, http.MethodPost, endedBase+"/playback", map[string]interface{}{
			"member_id": "host-1", "is_playing": true,
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "PARTY_ENDED", env.Error.Code)
	})
}

func TestSyncCheck(t *testing.T) {
	router := newTestRouter(t)
	s := createParty(t, router, nil)
	base := "/api/v1/parties/" + s.Code

	rec, _ := doJSON(t, router, http.MethodPost, base+"/playback", map[string]interface{}{
		"member_id": "host-1", "current_time": 100.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	check := func(t *testing.T, clientTime float64) syncCheckResponse {
		t.Helper()
		rec, env := doJSON(t, router, http.MethodPost, base+"/sync", map[string]interface{}{
			"client_time": clientTime,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp syncCheckResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		return resp
	}

	t.Run("within tolerance", func(t *testing.T) {
		resp := check(t, 99.0)
		require.Equal(t, party.SyncActionNone, resp.Action)
		require.Equal(t, 99.0, resp.TargetTime)
		require.Equal(t, 1.0, resp.Offset)
	})

	t.Run("boundary drift does not trigger", func(t *testing.T) {
		resp := check(t, 98.0)
		require.Equal(t, party.SyncActionNone, resp.Action)
	})

	t.Run("beyond tolerance seeks to host", func(t *testing.T) {
		resp := check(t, 90.0)
		require.Equal(t, party.SyncActionSeek, resp.Action)
		require.Equal(t, 100.0, resp.TargetTime)
		require.Equal(t, 10.0, resp.Offset)
	})
}

func TestPostChat(t *testing.T) {
	router := newTestRouter(t)
	s := createParty(t, router, nil)
	base := "/api/v1/parties/" + s.Code

	rec, env := doJSON(t, router, http.MethodPost, base+"/chat", map[string]interface{}{
		"user_id":   "host-1",
		"user_name": "Alice",
		"content":   "  <b>hello</b> everyone  ",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var msg party.ChatMessage
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	require.Equal(t, "hello everyone", msg.Content)
	require.Equal(t, party.MessageTypeChat, msg.Type)
	require.Equal(t, s.ID, msg.PartyID)

	t.Run("non-member rejected", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, base+"/chat", map[string]interface{}{
			"user_id": "outsider", "user_name": "Eve", "content": "hi",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "FORBIDDEN", env.Error.Code)
	})

	t.Run("oversized content rejected", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, base+"/chat", map[string]interface{}{
			"user_id":   "host-1",
			"user_name": "Alice",
			"content":   strings.Repeat("a", 1001),
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})

	t.Run("chat disabled", func(t *testing.T) {
		s := createParty(t, router, map[string]interface{}{"chat_enabled": false})

		rec, env := doJSON(t, router, http.MethodPost, "/api/v1/parties/"+s.Code+"/chat", map[string]interface{}{
			"user_id": "host-1", "user_name": "Alice", "content": "hi",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "CHAT_DISABLED", env.Error.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready"} {
		rec, env := doJSON(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Equal(t, "success", env.Status, path)
	}
}

func TestWebSocketReceivesPartyState(t *testing.T) {
	router := newTestRouter(t)
	s := createParty(t, router, nil)

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		fmt.Sprintf("/api/v1/parties/%s/ws", s.Code)

	header := http.Header{}
	header.Set("Origin", "http://client.example.com")

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg realtime.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, realtime.MessageTypePartyState, msg.Type)
}
