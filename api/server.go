/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/ratecards/*      Rate card catalog and rate resolution
  /api/trips/*          Trip capture and pay calculation
  /api/trippays/*       Trip pay lifecycle
  /api/cutpay           Cut pay claims
  /api/periods/*        Pay period lifecycle and batch operations
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Rate card routes
		r.Route("/ratecards", func(r chi.Router) {
			r.Get("/", h.ListRateCards)
			r.Post("/", h.CreateRateCard)
			r.Post("/resolve", h.ResolveRate)
			r.Get("/{id}", h.GetRateCard)
			r.Post("/{id}/deactivate", h.DeactivateRateCard)
		})

		// Trip routes
		r.Route("/trips", func(r chi.Router) {
			r.Post("/", h.CreateTrip)
			r.Post("/{id}/report", h.SaveTripReport)
			r.Post("/{id}/calculate", h.CalculateTripPay)
		})

		// Trip pay routes
		r.Route("/trippays", func(r chi.Router) {
			r.Post("/bulk-approve", h.BulkApprove)
			r.Get("/{id}", h.GetTripPay)
			r.Get("/{id}/audit", h.GetTripPayAudit)
			r.Post("/{id}/transition", h.TransitionTripPay)
			r.Post("/{id}/adjust", h.AdjustTripPay)
		})

		// Cut pay routes
		r.Post("/cutpay", h.CalculateCutPay)

		// Pay period routes
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/", h.CreatePeriod)
			r.Get("/current", h.GetCurrentPeriod)
			r.Get("/{id}", h.GetPeriod)
			r.Get("/{id}/trippays", h.ListPeriodTripPays)
			r.Post("/{id}/calculate-all", h.CalculateAll)
			r.Post("/{id}/transition", h.TransitionPeriod)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	// API index for anyone hitting the root in a browser
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Freightline Pay Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Freightline Pay Engine API</h1>
<p>The API is running. Endpoints are under <code>/api</code>:</p>
<ul>
<li><code>GET /api/ratecards</code></li>
<li><code>POST /api/ratecards/resolve</code></li>
<li><code>POST /api/trips/{id}/calculate</code></li>
<li><code>GET /api/periods/current</code></li>
</ul>
</body>
</html>`))
	})

	return r
}
