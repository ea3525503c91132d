package routes

import (
	"net/http"

	"github.com/dukerupert/usps/internal/handler/api"
)

// APIDeps contains dependencies for API routes
type APIDeps struct {
	AddressHandler *api.AddressHandler
}

// OpsDeps contains dependencies for operational routes
type OpsDeps struct {
	HealthHandler *api.HealthHandler

	// MetricsHandler serves Prometheus metrics. Nil disables /metrics.
	MetricsHandler http.Handler
}
