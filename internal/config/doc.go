// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

/*
Package config provides centralized configuration management for Watchparty.

Configuration is loaded with Koanf v2 from three layered sources, later
layers overriding earlier ones:

 1. Built-in defaults
 2. Optional YAML config file (config.yaml, or CONFIG_PATH)
 3. Environment variables

Configuration is organized into logical groups:

  - ServerConfig: HTTP server settings (host, port, timeouts)
  - StoreConfig: session store backend, persistence path, TTL and sweep
  - PartyConfig: default party settings applied at creation
  - SecurityConfig: rate limiting and CORS
  - LoggingConfig: log level and output format

The resulting Config is immutable after Load and safe for concurrent reads.
*/
package config
