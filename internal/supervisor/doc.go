// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

/*
Package supervisor provides process supervision for Watchparty using suture v4.

This package implements a hierarchical supervisor tree that manages the lifecycle
of all long-running services in the application. It provides Erlang/OTP-style
supervision with automatic restart, failure isolation, and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure isolation:

	RootSupervisor ("watchparty")
	├── DataSupervisor ("data-layer")
	│   └── StoreSweeperService (session TTL eviction)
	├── MessagingSupervisor ("messaging-layer")
	│   └── RealtimeHubService (websocket fan-out)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A hub crash doesn't interrupt HTTP request handling
  - Sweeper failures don't impact realtime delivery
  - Each layer can restart independently

# Usage

Basic setup in main.go:

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    log.Fatal(err)
	}

	tree.AddDataService(sweeper)
	tree.AddMessagingService(hub)
	tree.AddAPIService(server)

	// Blocks until the context is canceled.
	if err := tree.Serve(ctx); err != nil {
	    ...
	}

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: service stopped cleanly, will not be restarted
  - Return error: service crashed, will be restarted
  - Context canceled: shutdown requested, return promptly

# Failure Handling

The supervisor uses a failure counter with exponential decay. Each failure
increments the counter, the counter decays over FailureDecay seconds, and
once it exceeds FailureThreshold restarts are delayed by FailureBackoff.
Defaults match suture's production defaults (5 failures, 30s decay, 15s
backoff, 10s shutdown timeout).

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}

Common causes are goroutines not respecting context cancellation and
blocked network I/O without deadlines.
*/
package supervisor
