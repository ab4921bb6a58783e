// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/watchparty/internal/logging"
	"github.com/tomtom215/watchparty/internal/metrics"
	"github.com/tomtom215/watchparty/internal/party"
)

// Message types for WebSocket communication.
const (
	MessageTypePartyState = "party_state"
	MessageTypeChat       = "chat"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
)

// Message represents a WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// roomMessage is a message addressed to the subscribers of one party.
type roomMessage struct {
	code string
	msg  Message
}

// Hub maintains the set of active clients grouped by party code and routes
// broadcasts to the right room.
type Hub struct {
	rooms      map[string]map[*Client]bool
	broadcast  chan roomMessage
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan roomMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Serve runs the hub until the context is canceled. Designed for suture
// supervision: on cancellation every client is closed and ctx.Err() is
// returned so the supervisor can restart the hub cleanly.
//
// Selection is priority-based. When multiple channels are ready Go's select
// picks randomly; handling shutdown first, then lifecycle events, then
// broadcasts keeps client state consistent before messages flow.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check).
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle events (non-blocking check).
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: broadcasts, or block until any event arrives.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case rm := <-h.broadcast:
			h.broadcastToRoom(rm.code, rm.msg)
		}
	}
}

// String identifies the service in supervisor logs.
func (h *Hub) String() string {
	return "realtime-hub"
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.partyCode]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[client.partyCode] = room
	}
	room[client] = true
	roomSize := len(room)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().
		Str("party_code", client.partyCode).
		Int("room_clients", roomSize).
		Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.partyCode]
	if ok {
		if _, present := room[client]; present {
			delete(room, client)
			close(client.send)
			metrics.WSConnections.Dec()
		}
		if len(room) == 0 {
			delete(h.rooms, client.partyCode)
		}
	}
	roomSize := len(room)
	h.mu.Unlock()

	logging.Info().
		Str("party_code", client.partyCode).
		Int("room_clients", roomSize).
		Msg("websocket client disconnected")
}

// broadcastToRoom sends a message to every subscriber of one party. Clients
// are visited in ID order so delivery order is reproducible; clients with a
// full send buffer are dropped.
func (h *Hub) broadcastToRoom(code string, message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[code]
	if !ok {
		return
	}

	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(room, client)
		metrics.WSConnections.Dec()
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
	}
	if len(room) == 0 {
		delete(h.rooms, code)
	}
}

// shutdown closes all connected clients and logs the reason. Context
// cancellation is expected behavior, not an error.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	closed := 0
	for code, room := range h.rooms {
		clients := make([]*Client, 0, len(room))
		for client := range room {
			clients = append(clients, client)
		}
		sort.Slice(clients, func(i, j int) bool {
			return clients[i].id < clients[j].id
		})
		for _, client := range clients {
			close(client.send)
			closed++
		}
		delete(h.rooms, code)
	}
	h.mu.Unlock()

	metrics.WSConnections.Sub(float64(closed))

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "realtime-hub").
		Str("reason", reason).
		Int("clients_closed", closed).
		Msg("websocket hub stopped")
}

// BroadcastPartyState sends a full session snapshot to every subscriber of
// the party. Called after any state transition so late events never leave
// clients on a stale view.
func (h *Hub) BroadcastPartyState(s party.Session) {
	h.enqueue(s.Code, Message{Type: MessageTypePartyState, Data: s})
}

// BroadcastChat sends a chat message to every subscriber of the party.
func (h *Hub) BroadcastChat(code string, msg party.ChatMessage) {
	h.enqueue(code, Message{Type: MessageTypeChat, Data: msg})
}

// BroadcastJSON sends an arbitrary typed payload to every subscriber of
// the party.
func (h *Hub) BroadcastJSON(code, messageType string, data interface{}) {
	h.enqueue(code, Message{Type: messageType, Data: data})
}

func (h *Hub) enqueue(code string, message Message) {
	select {
	case h.broadcast <- roomMessage{code: code, msg: message}:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_queue_full").Inc()
		logging.Warn().
			Str("party_code", code).
			Str("message_type", message.Type).
			Msg("broadcast channel full, dropping message")
	}
}

// ClientCount returns the total number of connected clients across all
// parties.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, room := range h.rooms {
		total += len(room)
	}
	return total
}

// RoomCount returns the number of subscribers for one party.
func (h *Hub) RoomCount(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}
