// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

// Package main is the entry point for the Watchparty server.
//
// Watchparty is a self-hosted synchronization service for watching media
// together: one host creates a party, members join with a six-character
// code, and the service keeps every member's playback clock aligned while
// relaying chat in real time.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: load settings from config file and environment (Koanf v2)
//  2. Store: in-memory or BadgerDB-backed session storage
//  3. Realtime hub: websocket fan-out of party state and chat
//  4. HTTP server: REST API (Chi) plus the websocket endpoint
//  5. Supervisor tree: suture v4 supervision of sweeper, hub and server
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults. Common variables:
//
//	HTTP_HOST / HTTP_PORT       listen address (default 0.0.0.0:8090)
//	STORE_BACKEND               "memory" (default) or "badger"
//	STORE_PATH                  data directory for the badger backend
//	SESSION_TTL                 absolute session lifetime (default 24h)
//	PARTY_MAX_MEMBERS           default member ceiling (default 50)
//	CORS_ORIGINS                comma-separated allowed origins
//	LOG_LEVEL / LOG_FORMAT      zerolog level and output format
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits for in-flight requests (10s timeout),
// closes websocket clients and releases the store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/watchparty/internal/api"
	"github.com/tomtom215/watchparty/internal/config"
	"github.com/tomtom215/watchparty/internal/logging"
	"github.com/tomtom215/watchparty/internal/metrics"
	"github.com/tomtom215/watchparty/internal/party"
	"github.com/tomtom215/watchparty/internal/realtime"
	"github.com/tomtom215/watchparty/internal/store"
	"github.com/tomtom215/watchparty/internal/supervisor"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("backend", cfg.Store.Backend).
		Int("port", cfg.Server.Port).
		Msg("Starting Watchparty")

	st, err := newStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize session store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	metrics.SetAppInfo(version)

	engine := party.NewEngine()
	hub := realtime.NewHub()
	sweeper := store.NewSweeper(st, cfg.Store.SessionTTL, cfg.Store.SweepInterval)

	handler := api.NewHandler(st, engine, hub, cfg, version)
	router := api.NewRouter(handler)
	server := api.NewServer(cfg.Server.Addr(), router.Setup(), cfg.Server.Timeout, 10*time.Second)

	// Bridge zerolog to slog for sutureslog compatibility.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(sweeper)
	tree.AddMessagingService(hub)
	tree.AddAPIService(server)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
		os.Exit(1)
	}

	logging.Info().Msg("Shutdown complete")
}

// newStore builds the configured session store backend.
func newStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Backend == "badger" {
		return store.OpenBadgerStore(cfg.Store.Path)
	}
	return store.NewMemoryStore(), nil
}
