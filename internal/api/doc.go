// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

/*
Package api provides the HTTP surface of the watch party service.

Routing uses the Chi router with production-hardened middleware from the
Chi ecosystem (go-chi/cors, go-chi/httprate). Handlers are thin: they
decode and validate requests, run the pure session transitions through the
store's atomic Update, translate silent rejections into HTTP status codes,
and fan results out over the realtime hub.

Endpoints (all JSON, wrapped in the models.APIResponse envelope):

	POST   /api/v1/parties                  create a party
	GET    /api/v1/parties/{code}           fetch a session snapshot
	POST   /api/v1/parties/{code}/join      join
	POST   /api/v1/parties/{code}/leave     leave
	POST   /api/v1/parties/{code}/end       end (host only)
	POST   /api/v1/parties/{code}/playback  update the shared playback clock
	POST   /api/v1/parties/{code}/sync      compute a resync plan for a client
	POST   /api/v1/parties/{code}/chat      post a chat message
	GET    /api/v1/parties/{code}/ws        websocket subscription
	GET    /api/v1/health                   health summary
	GET    /api/v1/health/live              liveness probe
	GET    /api/v1/health/ready             readiness probe
	GET    /metrics                         Prometheus metrics
*/
package api
