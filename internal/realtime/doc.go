// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

/*
Package realtime provides party-scoped WebSocket fan-out.

Each connected client subscribes to exactly one party, identified by its
join code. The Hub routes broadcasts to the subscribers of that party only,
so playback and chat events never leak across parties.

The Hub implements suture.Service: it runs under the application supervisor
and closes every client connection on shutdown.
*/
package realtime
