// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/watchparty/internal/party"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, <-chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()
	return hub, cancel, done
}

func register(t *testing.T, hub *Hub, code string) *Client {
	t.Helper()
	c := NewClient(hub, nil, code)
	hub.Register <- c

	deadline := time.After(time.Second)
	for hub.RoomCount(code) == 0 {
		select {
		case <-deadline:
			t.Fatalf("client never registered in room %s", code)
		default:
			time.Sleep(time.Millisecond)
		}
	}
	return c
}

func TestHubRoutesToOwnRoomOnly(t *testing.T) {
	hub, cancel, done := startHub(t)
	defer func() { cancel(); <-done }()

	a1 := register(t, hub, "AAAAAA")
	a2 := register(t, hub, "AAAAAA")
	b1 := register(t, hub, "BBBBBB")

	hub.BroadcastChat("AAAAAA", party.ChatMessage{Content: "hello"})

	for _, c := range []*Client{a1, a2} {
		select {
		case msg := <-c.send:
			if msg.Type != MessageTypeChat {
				t.Errorf("expected chat message, got %q", msg.Type)
			}
		case <-time.After(time.Second):
			t.Fatal("room subscriber did not receive broadcast")
		}
	}

	select {
	case msg := <-b1.send:
		t.Errorf("message leaked into another party's room: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesClient(t *testing.T) {
	hub, cancel, done := startHub(t)
	defer func() { cancel(); <-done }()

	c := register(t, hub, "CCCCCC")
	hub.Unregister <- c

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected closed send channel after unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after unregister")
	}

	if n := hub.RoomCount("CCCCCC"); n != 0 {
		t.Errorf("expected empty room after unregister, got %d", n)
	}
}

func TestHubShutdownClosesAllClients(t *testing.T) {
	hub, cancel, done := startHub(t)

	c1 := register(t, hub, "DDDDDD")
	c2 := register(t, hub, "EEEEEE")

	cancel()
	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled from Serve, got %v", err)
	}

	for _, c := range []*Client{c1, c2} {
		if _, ok := <-c.send; ok {
			t.Error("expected closed send channel after shutdown")
		}
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients after shutdown, got %d", hub.ClientCount())
	}
}

func TestHubPartyStateBroadcast(t *testing.T) {
	hub, cancel, done := startHub(t)
	defer func() { cancel(); <-done }()

	c := register(t, hub, "FFFFFF")

	engine := party.NewEngine()
	s, err := engine.Create("h1", "Host", "url", "Title", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	s.Code = "FFFFFF"

	hub.BroadcastPartyState(s)

	select {
	case msg := <-c.send:
		if msg.Type != MessageTypePartyState {
			t.Errorf("expected party_state, got %q", msg.Type)
		}
		snapshot, ok := msg.Data.(party.Session)
		if !ok {
			t.Fatalf("expected session payload, got %T", msg.Data)
		}
		if snapshot.Code != "FFFFFF" {
			t.Errorf("unexpected code in payload: %q", snapshot.Code)
		}
	case <-time.After(time.Second):
		t.Fatal("party_state broadcast not delivered")
	}
}
