package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/dukerupert/usps/internal/handler/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]api.Check
		wantStatus int
		wantBody   string
		wantChecks map[string]string
	}{
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
			wantBody:   "ok",
			wantChecks: map[string]string{},
		},
		{
			name:       "all healthy",
			checks:     map[string]api.Check{"postgres": ok, "redis": ok, "nats": nil},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name:       "redis down",
			checks:     map[string]api.Check{"postgres": ok, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "degraded",
			wantChecks: map[string]string{"postgres": "ok", "redis": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := api.NewHealthHandler(tt.checks, nil)

			w := do(h.Health, http.MethodGet, "/health", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody, resp.Status)
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}
