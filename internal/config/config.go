// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Loading order (Koanf v2): defaults, then optional YAML config file, then
// environment variables. ENV > File > Defaults.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Party    PartyConfig    `koanf:"party"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: bind address (default: 0.0.0.0)
//   - HTTP_PORT: listen port (default: 8090)
//   - HTTP_TIMEOUT: read/write timeout (default: 30s)
//   - ENVIRONMENT: development or production (default: development)
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// StoreConfig holds session store settings.
//
// Backend selects the store implementation: "memory" keeps sessions
// in-process (lost on restart), "badger" persists them to disk.
//
// Environment Variables:
//   - STORE_BACKEND: memory or badger (default: memory)
//   - STORE_PATH: BadgerDB directory, required for badger backend
//   - SESSION_TTL: absolute session lifetime (default: 24h)
//   - SWEEP_INTERVAL: how often expired sessions are evicted (default: 5m)
type StoreConfig struct {
	Backend       string        `koanf:"backend"`
	Path          string        `koanf:"path"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// PartyConfig holds defaults applied to newly created parties. Per-party
// settings supplied at creation time override these.
//
// Environment Variables:
//   - PARTY_MAX_MEMBERS: default member ceiling (default: 50)
//   - PARTY_CHAT_ENABLED: default chat toggle (default: true)
//   - PARTY_GUEST_CONTROL: whether guests may control playback (default: false)
type PartyConfig struct {
	MaxMembers        int  `koanf:"max_members"`
	ChatEnabled       bool `koanf:"chat_enabled"`
	AllowGuestControl bool `koanf:"allow_guest_control"`
}

// SecurityConfig holds rate limiting and CORS settings.
//
// Environment Variables:
//   - RATE_LIMIT_REQUESTS: requests per window per client (default: 100)
//   - RATE_LIMIT_WINDOW: rate limit window (default: 1m)
//   - DISABLE_RATE_LIMIT: disable rate limiting entirely (default: false)
//   - CORS_ORIGINS: comma-separated allowed origins (default: *)
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	switch c.Store.Backend {
	case "memory":
	case "badger":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the badger backend")
		}
	default:
		return fmt.Errorf("store.backend must be memory or badger, got %q", c.Store.Backend)
	}
	if c.Store.SessionTTL <= 0 {
		return fmt.Errorf("store.session_ttl must be positive, got %s", c.Store.SessionTTL)
	}
	if c.Store.SweepInterval <= 0 {
		return fmt.Errorf("store.sweep_interval must be positive, got %s", c.Store.SweepInterval)
	}

	if c.Party.MaxMembers < 1 {
		return fmt.Errorf("party.max_members must be at least 1, got %d", c.Party.MaxMembers)
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}

	return nil
}
