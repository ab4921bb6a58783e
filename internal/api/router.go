// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/watchparty/internal/middleware"
)

// Router wires handlers to routes with the appropriate middleware chains.
type Router struct {
	handler *Handler
	chimw   *ChiMiddleware
}

// NewRouter creates a router for the given handler, deriving the middleware
// configuration from the handler's security settings.
func NewRouter(h *Handler) *Router {
	return &Router{
		handler: h,
		chimw:   NewChiMiddlewareFromSecurity(h.config.Security),
	}
}

// Setup builds the full route tree.
//
// Middleware order matters: request IDs come first so every later log line
// can carry one, RealIP before rate limiting so limits key on the true
// client address, Recoverer outermost among the handlers so a panic in any
// route still yields a 500 instead of a dropped connection.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.chimw.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		r.Route("/health", func(r chi.Router) {
			r.Use(rt.chimw.RateLimitHealth())
			r.Get("/", rt.handler.Health)
			r.Get("/live", rt.handler.HealthLive)
			r.Get("/ready", rt.handler.HealthReady)
		})

		r.Route("/parties", func(r chi.Router) {
			r.Use(chiMiddleware(middleware.PrometheusMetrics))

			r.With(rt.chimw.RateLimitWrite()).Post("/", rt.handler.CreateParty)

			r.Route("/{code}", func(r chi.Router) {
				r.With(rt.chimw.RateLimit()).Get("/", rt.handler.GetParty)
				r.With(rt.chimw.RateLimitWrite()).Post("/join", rt.handler.JoinParty)
				r.With(rt.chimw.RateLimitWrite()).Post("/leave", rt.handler.LeaveParty)
				r.With(rt.chimw.RateLimitWrite()).Post("/end", rt.handler.EndParty)
				r.With(rt.chimw.RateLimitWrite()).Post("/playback", rt.handler.UpdatePlayback)
				r.With(rt.chimw.RateLimitSync()).Post("/sync", rt.handler.SyncCheck)
				r.With(rt.chimw.RateLimitChat()).Post("/chat", rt.handler.PostChat)
				r.With(rt.chimw.RateLimitWebSocket()).Get("/ws", rt.handler.WebSocket)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
