// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

/*
Package metrics provides Prometheus metrics collection and export.

The package instruments:
  - Party lifecycle (created, joined, left, ended)
  - Playback synchronization plans and drift distribution
  - Chat message throughput and rejections
  - Session store occupancy and TTL evictions
  - WebSocket connections and message counts
  - HTTP request latency and throughput

Metrics are registered via promauto at package load and exposed at the
/metrics endpoint in Prometheus text format:

	curl http://localhost:8090/metrics
*/
package metrics
