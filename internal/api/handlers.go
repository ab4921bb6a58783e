// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package api

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/watchparty/internal/config"
	"github.com/tomtom215/watchparty/internal/logging"
	"github.com/tomtom215/watchparty/internal/metrics"
	"github.com/tomtom215/watchparty/internal/party"
	"github.com/tomtom215/watchparty/internal/realtime"
	"github.com/tomtom215/watchparty/internal/store"
	"github.com/tomtom215/watchparty/internal/validation"
)

// createCodeRetries bounds regeneration attempts when a freshly drawn join
// code collides with a live session. With 36^6 codes collisions are rare
// until the store holds millions of sessions.
const createCodeRetries = 5

// Handler holds the dependencies for all HTTP endpoints.
type Handler struct {
	store     store.Store
	engine    *party.Engine
	hub       *realtime.Hub
	config    *config.Config
	startTime time.Time
	version   string
}

// NewHandler creates an API handler.
func NewHandler(st store.Store, engine *party.Engine, hub *realtime.Hub, cfg *config.Config, version string) *Handler {
	return &Handler{
		store:     st,
		engine:    engine,
		hub:       hub,
		config:    cfg,
		startTime: time.Now(),
		version:   version,
	}
}

// partyCode extracts and validates the {code} URL parameter. On failure it
// writes the error response and returns false.
func (h *Handler) partyCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := chi.URLParam(r, "code")
	if !validation.ValidateCode(code) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"code must be a 6-character code of letters A-Z and digits", nil)
		return "", false
	}
	return code, true
}

// loadParty fetches the session for code, translating a store miss into a
// 404 response. Returns false when the response has already been written.
func (h *Handler) loadParty(w http.ResponseWriter, code string) (party.Session, bool) {
	s, err := h.store.Get(code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "party not found", nil)
		} else {
			logging.Error().Err(err).Str("code", code).Msg("store get failed")
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load party", nil)
		}
		return party.Session{}, false
	}
	return s, true
}

type createPartyRequest struct {
	HostID     string                `json:"host_id" validate:"required,max=128"`
	HostName   string                `json:"host_name" validate:"required,max=64"`
	MediaURL   string                `json:"media_url" validate:"required,max=2048"`
	MediaTitle string                `json:"media_title" validate:"max=256"`
	Settings   *partySettingsPayload `json:"settings,omitempty"`
}

// partySettingsPayload is a partial settings override. Absent fields fall
// back to the server-configured defaults.
type partySettingsPayload struct {
	MaxMembers        *int  `json:"max_members,omitempty" validate:"omitempty,gte=1,lte=1000"`
	ChatEnabled       *bool `json:"chat_enabled,omitempty"`
	AllowGuestControl *bool `json:"allow_guest_control,omitempty"`
}

// resolveSettings merges a request's settings override onto the server
// defaults from configuration.
func (h *Handler) resolveSettings(p *partySettingsPayload) party.Settings {
	s := party.Settings{
		MaxMembers:        h.config.Party.MaxMembers,
		ChatEnabled:       h.config.Party.ChatEnabled,
		AllowGuestControl: h.config.Party.AllowGuestControl,
	}
	if p == nil {
		return s
	}
	if p.MaxMembers != nil {
		s.MaxMembers = *p.MaxMembers
	}
	if p.ChatEnabled != nil {
		s.ChatEnabled = *p.ChatEnabled
	}
	if p.AllowGuestControl != nil {
		s.AllowGuestControl = *p.AllowGuestControl
	}
	return s
}

// CreateParty handles POST /api/v1/parties.
func (h *Handler) CreateParty(w http.ResponseWriter, r *http.Request) {
	var req createPartyRequest
	if !bindRequest(w, r, &req) {
		return
	}

	settings := h.resolveSettings(req.Settings)

	var s party.Session
	for attempt := 0; ; attempt++ {
		var err error
		s, err = h.engine.Create(req.HostID, req.HostName, req.MediaURL, req.MediaTitle, &settings)
		if err != nil {
			logging.Error().Err(err).Msg("code generation failed")
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create party", nil)
			return
		}

		// Put would silently overwrite a colliding session, so probe first.
		if _, err := h.store.Get(s.Code); errors.Is(err, store.ErrNotFound) {
			break
		}
		if attempt >= createCodeRetries {
			logging.Error().Msg("exhausted join code retries")
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to allocate a join code", nil)
			return
		}
	}

	if err := h.store.Put(s.Code, s); err != nil {
		logging.Error().Err(err).Str("code", s.Code).Msg("store put failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create party", nil)
		return
	}

	metrics.PartiesCreated.Inc()
	metrics.SessionsActive.Set(float64(h.store.Len()))

	logging.Info().
		Str("code", s.Code).
		Str("host", sanitizeLogValue(req.HostID)).
		Msg("party created")

	respondJSON(w, r, http.StatusCreated, s)
}

// GetParty handles GET /api/v1/parties/{code}.
func (h *Handler) GetParty(w http.ResponseWriter, r *http.Request) {
	code, ok := h.partyCode(w, r)
	if !ok {
		return
	}

	s, ok := h.loadParty(w, code)
	if !ok {
		return
	}

	respondJSON(w, r, http.StatusOK, s)
}

type joinPartyRequest struct {
	MemberID   string `json:"member_id" validate:"required,max=128"`
	MemberName string `json:"member_name" validate:"required,max=64"`
}

// JoinParty handles POST /api/v1/parties/{code}/join.
//
// The join transition is silent about why it declined, so the outcome is
// reconstructed from the before and after snapshots: a grown member list is
// an admission, an existing membership is an idempotent success, anything
// else is a capacity rejection.
func (h *Handler) JoinParty(w http.ResponseWriter, r *http.Request) {
	code, ok := h.partyCode(w, r)
	if !ok {
		return
	}

	var req joinPartyRequest
	if !bindRequest(w, r, &req) {
		return
	}

	before, after, err := h.store.Update(code, func(s party.Session) party.Session {
		if s.Ended() {
			return s
		}
		return h.engine.Join(s, req.MemberID, req.MemberName)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "party not found", nil)
		} else {
			logging.Error().Err(err).Str("code", code).Msg("join update failed")
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to join party", nil)
		}
		return
	}

	switch {
	case before.Ended():
		respondError(w, http.StatusConflict, "PARTY_ENDED", "party has ended", nil)
		return
	case after.MemberCount() > before.MemberCount():
		metrics.RecordJoin("accepted", after.MemberCount())
		h.hub.BroadcastPartyState(after)
		logging.Info().
			Str("code", code).
			Str("member", sanitizeLogValue(req.MemberID)).
			Int("members", after.MemberCount()).
			Msg("member joined")
	case before.HasMember(req.MemberID):
		metrics.RecordJoin("duplicate", after.MemberCount())
	default:
		metrics.RecordJoin("rejected_capacity", after.MemberCount())
		respondError(w, http.StatusConflict, "PARTY_FULL", "party is at capacity", map[string]interface{}{
			"max_members": after.Settings.MaxMembers,
		})
		return
	}

	respondJSON(w, r, http.StatusOK, after)
}

type leavePartyRequest struct {
	MemberID string `json:"member_id" validate:"required,max=128"`
}

// LeaveParty handles POST /api/v1/parties/{code}/leave. Leaving with an
// unknown member id is an idempotent success. A host departure ends the
// party for everyone.
func (h *Handler) LeaveParty(w http.ResponseWriter, r *http.Request) {
	code, ok := h.partyCode(w, r)
	if !ok {
		return
	}

	var req leavePartyRequest
	if !bindRequest(w, r, &req) {
		return
	}

	before, after, err := h.store.Update(code, func(s party.Session) party.Session {
		return h.engine.Leave(s, req.MemberID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "party not found", nil)
		} else {
			logging.Error().Err(err).Str("code", code).Msg("leave update failed")
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to leave party", nil)
		}
		return
	}

	if after.MemberCount() < before.MemberCount() {
		metrics.MemberLeaves.Inc()
		if after.Ended() && !before.Ended() {
			metrics.PartiesEnded.WithLabelValues("host_left").Inc()
			logging.Info().Str("code", code).Msg("host left, party ended")
		}
		h.hub.BroadcastPartyState(after)
	}

	respondJSON(w, r, http.StatusOK, after)
}

type endPartyRequest struct {
	MemberID string `json:"member_id" validate:"required,max=128"`
}

// EndParty handles POST /api/v1/parties/{code}/end. Only the host may end a
// party; ending twice is an idempotent success.
func (h *Handler) EndParty(w http.ResponseWriter, r *http.Request) {
	code, ok := h.partyCode(w, r)
	if !ok {
		return
	}

	var req endPartyRequest
	if !bindRequest(w, r, &req) {
		return
	}

	current, ok := h.loadParty(w, code)
	if !ok {
		return
	}
	if req.MemberID != current.HostID {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "only the host can end the party", nil)
		return
	}

	before, after, err := h.store.Update(code, func(s party.Session) party.Session {
		return h.engine.End(s)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "party not found", nil)
		} else {
			logging.Error().Err(err).Str("code", code).Msg("end update failed")
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to end party", nil)
		}
		return
	}

	if !before.Ended() {
		metrics.PartiesEnded.WithLabelValues("explicit").Inc()
		h.hub.BroadcastPartyState(after)
		logging.Info().Str("code", code).Msg("party ended")
	}

	respondJSON(w, r, http.StatusOK, after)
}

type updatePlaybackRequest struct {
	MemberID    string   `json:"member_id" validate:"required,max=128"`
	IsPlaying   *bool    `json:"is_playing,omitempty"`
	CurrentTime *float64 `json:"current_time,omitempty" validate:"omitempty,gte=0"`
	Duration    *float64 `json:"duration,omitempty" validate:"omitempty,gte=0"`
}

// UpdatePlayback handles POST /api/v1/parties/{code}/playback. The caller
// must be a member with control rights: the host always, guests only when
// the party allows guest control.
func (h *Handler) UpdatePlayback(w http.ResponseWriter, r *http.Request) {
	code, ok := h.partyCode(w, r)
	if !ok {
		return
	}

	var req updatePlaybackRequest
	if !bindRequest(w, r, &req) {
		return
	}

	update := party.PlaybackUpdate{
		IsPlaying:   req.IsPlaying,
		CurrentTime: req.CurrentTime,
		Duration:    req.Duration,
	}

	allowed := func(s party.Session) bool {
		// Guest control grants rights to members only; CanControl alone
		// would let any caller with the code drive playback.
		return s.HasMember(req.MemberID) && party.CanControl(s, req.MemberID)
	}

	before, after, err := h.store.Update(code, func(s party.Session) party.Session {
		if s.Ended() || !allowed(s) {
			return s
		}
		return h.engine.UpdatePlayback(s, update)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "party not found", nil)
		} else {
			logging.Error().Err(err).Str("code", code).Msg("playback update failed")
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update playback", nil)
		}
		return
	}

	if before.Ended() {
		respondError(w, http.StatusConflict, "PARTY_ENDED", "party has ended", nil)
		return
	}
	if !allowed(before) {
		metrics.PlaybackControlDenied.Inc()
		respondError(w, http.StatusForbidden, "FORBIDDEN", "member may not control playback", nil)
		return
	}

	metrics.PlaybackUpdates.Inc()
	h.hub.BroadcastPartyState(after)

	respondJSON(w, r, http.StatusOK, after)
}

type syncCheckRequest struct {
	ClientTime float64 `json:"client_time" validate:"gte=0"`
}

// syncCheckResponse is the advisory plan plus the raw drift, so clients can
// expose drift in their own diagnostics.
type syncCheckResponse struct {
	party.SyncPlan
	Offset float64 `json:"offset"`
}

// SyncCheck handles POST /api/v1/parties/{code}/sync. Read-only: it
// compares the reported client position against the authoritative clock and
// returns an advisory plan. Within tolerance the client keeps its own
// position; beyond it the plan is a seek to the host position.
func (h *Handler) SyncCheck(w http.ResponseWriter, r *http.Request) {
	code, ok := h.partyCode(w, r)
	if !ok {
		return
	}

	var req syncCheckRequest
	if !bindRequest(w, r, &req) {
		return
	}

	s, ok := h.loadParty(w, code)
	if !ok {
		return
	}

	offset := party.Offset(s.Clock.CurrentTime, req.ClientTime)
	plan := party.PlanSync(s, req.ClientTime)
	metrics.RecordSyncPlan(plan.Action, offset)

	respondJSON(w, r, http.StatusOK, syncCheckResponse{SyncPlan: plan, Offset: offset})
}

type postChatRequest struct {
	UserID   string `json:"user_id" validate:"required,max=128"`
	UserName string `json:"user_name" validate:"required,max=64"`
	Content  string `json:"content" validate:"required"`
	Type     string `json:"type,omitempty" validate:"omitempty,oneof=message system reaction"`
}

// PostChat handles POST /api/v1/parties/{code}/chat. Messages are fanned
// out over the realtime hub; the chat log itself is not persisted, a client
// reconstructs history from its own received stream.
func (h *Handler) PostChat(w http.ResponseWriter, r *http.Request) {
	code, ok := h.partyCode(w, r)
	if !ok {
		return
	}

	var req postChatRequest
	if !bindRequest(w, r, &req) {
		return
	}

	s, ok := h.loadParty(w, code)
	if !ok {
		return
	}

	switch {
	case s.Ended():
		respondError(w, http.StatusConflict, "PARTY_ENDED", "party has ended", nil)
		return
	case !s.Settings.ChatEnabled:
		metrics.ChatMessagesRejected.WithLabelValues("disabled").Inc()
		respondError(w, http.StatusForbidden, "CHAT_DISABLED", "chat is disabled for this party", nil)
		return
	case !s.HasMember(req.UserID):
		metrics.ChatMessagesRejected.WithLabelValues("not_member").Inc()
		respondError(w, http.StatusForbidden, "FORBIDDEN", "only members can post chat messages", nil)
		return
	case !party.ValidateMessage(req.Content):
		metrics.ChatMessagesRejected.WithLabelValues("invalid").Inc()
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"content must be non-empty and at most 1000 characters", nil)
		return
	}

	msg := h.engine.NewMessage(s.ID, req.UserID, req.UserName, req.Content, party.MessageType(req.Type))
	metrics.ChatMessages.WithLabelValues(string(msg.Type)).Inc()
	h.hub.BroadcastChat(code, msg)

	respondJSON(w, r, http.StatusCreated, msg)
}

// healthResponse is returned by the health summary endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	GoVersion     string  `json:"go_version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Parties       int     `json:"parties"`
	Connections   int     `json:"connections"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, healthResponse{
		Status:        "healthy",
		Version:       h.version,
		GoVersion:     runtime.Version(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Parties:       h.store.Len(),
		Connections:   h.hub.ClientCount(),
	})
}

// HealthLive handles GET /api/v1/health/live. It only proves the process is
// serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":         "alive",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready. Readiness exercises the
// store with a lookup for a syntactically valid code that cannot exist.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Get("000000"); err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "store is unavailable", nil)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{"status": "ready"})
}
