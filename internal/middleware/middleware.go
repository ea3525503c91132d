// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"net/http"

	"github.com/dukerupert/usps/internal/domain"
	"github.com/dukerupert/usps/internal/handler"
)

type contextKey string

// respondTooManyRequests is a convenience wrapper for 429 errors.
func respondTooManyRequests(w http.ResponseWriter, r *http.Request) {
	handler.ErrorResponse(w, r, domain.Errorf(domain.ERATELIMIT, "", "Too many requests"))
}

// respondTooLarge is a convenience wrapper for 413 errors.
func respondTooLarge(w http.ResponseWriter, r *http.Request) {
	handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, "", "Request body too large"))
}

// respondTimeout is a convenience wrapper for requests that ran out of time.
func respondTimeout(w http.ResponseWriter, r *http.Request) {
	handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAVAILABLE, "", "Request timeout"))
}
