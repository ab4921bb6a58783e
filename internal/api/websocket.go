// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/watchparty/internal/logging"
	"github.com/tomtom215/watchparty/internal/metrics"
	"github.com/tomtom215/watchparty/internal/realtime"
)

var (
	upgrader     *websocket.Upgrader
	upgraderOnce sync.Once
	upgraderH    *Handler
)

// getUpgrader returns the websocket upgrader, initialized once with an
// origin check bound to the configured CORS origins.
func (h *Handler) getUpgrader() *websocket.Upgrader {
	upgraderOnce.Do(func() {
		upgraderH = h
		upgrader = &websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      checkWebSocketOrigin,
		}
	})
	return upgrader
}

// checkWebSocketOrigin validates the Origin header against the configured
// CORS origins. Requests without an Origin header are rejected; browsers
// always send one and non-browser clients should set it explicitly.
func checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	if upgraderH == nil || upgraderH.config == nil {
		return true
	}

	for _, allowed := range upgraderH.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// WebSocket handles GET /api/v1/parties/{code}/ws. After the upgrade the
// client receives every party_state and chat broadcast for the party. The
// socket is receive-mostly; state changes still go through the HTTP API.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	code, ok := h.partyCode(w, r)
	if !ok {
		return
	}

	s, ok := h.loadParty(w, code)
	if !ok {
		return
	}

	conn, err := h.getUpgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		metrics.WSErrors.WithLabelValues("upgrade_failed").Inc()
		logging.Debug().Err(err).Str("code", code).Msg("websocket upgrade failed")
		return
	}

	client := realtime.NewClient(h.hub, conn, code)
	h.hub.Register <- client
	client.Start()

	// Prime the new subscriber with the current snapshot so it does not
	// have to wait for the next state change.
	h.hub.BroadcastPartyState(s)

	logging.Debug().
		Str("code", code).
		Uint64("client_id", client.ID()).
		Msg("websocket client connected")
}
