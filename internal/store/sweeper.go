// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package store

import (
	"context"
	"time"

	"github.com/tomtom215/watchparty/internal/logging"
	"github.com/tomtom215/watchparty/internal/metrics"
)

// Sweeper periodically evicts expired sessions from a Store. It implements
// suture.Service so it can run under the application supervisor and be
// restarted on failure.
type Sweeper struct {
	store    Store
	maxAge   time.Duration
	interval time.Duration
}

// NewSweeper creates a sweeper that evicts sessions older than maxAge every
// interval. Zero values fall back to DefaultTTL and a 5-minute interval.
func NewSweeper(s Store, maxAge, interval time.Duration) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultTTL
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{store: s, maxAge: maxAge, interval: interval}
}

// Serve runs the sweep loop until the context is canceled.
func (sw *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().
				Str("component", "store-sweeper").
				Msg("session sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			evicted := sw.store.SweepExpired(sw.maxAge)
			metrics.SessionsEvicted.Add(float64(evicted))
			metrics.SessionsActive.Set(float64(sw.store.Len()))
			if evicted > 0 {
				logging.Info().
					Str("component", "store-sweeper").
					Int("evicted", evicted).
					Int("remaining", sw.store.Len()).
					Msg("swept expired sessions")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (sw *Sweeper) String() string {
	return "store-sweeper"
}
