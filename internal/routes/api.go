// Package routes wires handlers to URL patterns.
package routes

import (
	"github.com/dukerupert/usps/internal/router"
)

// RegisterAPIRoutes registers the address verification API
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	h := deps.AddressHandler

	// Verification
	r.Post("/api/addresses/verify", h.Verify)
	r.Post("/api/addresses/standardize", h.Standardize)
	r.Post("/api/addresses/verify-batch", h.VerifyBatch)

	// History
	r.Get("/api/verifications", h.List)
	r.Get("/api/verifications/{id}", h.Get)
}

// RegisterOpsRoutes registers health and metrics endpoints. These are kept
// out of the rate limited API group.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.HealthHandler.Health)

	if deps.MetricsHandler != nil {
		r.Handle("GET", "/metrics", deps.MetricsHandler)
	}
}
