// Package api serves the JSON address verification endpoints.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/usps/internal/address"
	"github.com/dukerupert/usps/internal/domain"
	"github.com/dukerupert/usps/internal/handler"
	"github.com/dukerupert/usps/internal/middleware"
	"github.com/dukerupert/usps/internal/service"
	"github.com/google/uuid"
)

// AddressHandler handles address verification requests
type AddressHandler struct {
	service service.VerificationService
	logger  *slog.Logger
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(svc service.VerificationService, logger *slog.Logger) *AddressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddressHandler{
		service: svc,
		logger:  logger,
	}
}

// VerifyResponse is returned by Verify and for each successful batch item.
type VerifyResponse struct {
	ID      uuid.UUID        `json:"id"`
	Address *address.Address `json:"address"`
	Verdict address.Verdict  `json:"verdict"`
}

// BatchRequest is the body of POST /api/addresses/verify-batch.
type BatchRequest struct {
	Addresses []map[string]any `json:"addresses"`
}

// BatchItemResponse is one entry of a batch response. Exactly one of the
// embedded result and Error is set.
type BatchItemResponse struct {
	Index int `json:"index"`
	*VerifyResponse
	Error *ItemError `json:"error,omitempty"`
}

// ItemError describes why one batch entry failed.
type ItemError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Verify handles POST /api/addresses/verify
func (h *AddressHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	rec, err := h.service.Verify(r.Context(), fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, toVerifyResponse(rec))
}

// Standardize handles POST /api/addresses/standardize
func (h *AddressHandler) Standardize(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	std, err := h.service.Standardize(r.Context(), fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, std)
}

// VerifyBatch handles POST /api/addresses/verify-batch
//
// The response is 200 as long as the batch itself is acceptable; failures of
// individual addresses are reported per item.
func (h *AddressHandler) VerifyBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	items, err := h.service.VerifyMany(r.Context(), req.Addresses)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := make([]BatchItemResponse, len(items))
	failed := 0
	for i, item := range items {
		resp[i] = BatchItemResponse{Index: item.Index}
		if item.Err != nil {
			failed++
			resp[i].Error = &ItemError{
				Code:    domain.ErrorCode(item.Err),
				Message: domain.ErrorMessage(item.Err),
				Fields:  domain.GetValidationFields(item.Err),
			}
			continue
		}
		resp[i].VerifyResponse = toVerifyResponse(item.Verification)
	}

	middleware.GetLogger(r.Context(), h.logger).Info("batch verified",
		"count", len(items),
		"failed", failed,
	)

	handler.WriteJSON(w, http.StatusOK, map[string]any{"items": resp})
}

// Get handles GET /api/verifications/{id}
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("verification.get", "Invalid verification ID"))
		return
	}

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, rec)
}

// List handles GET /api/verifications?limit=N
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handler.ErrorResponse(w, r, domain.Invalid("verification.list", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	recs, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if recs == nil {
		recs = []*domain.Verification{}
	}

	handler.WriteJSON(w, http.StatusOK, map[string]any{"verifications": recs})
}

func (h *AddressHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsValidationError(err) {
		handler.ValidationErrorResponse(w, r, err)
		return
	}
	handler.ErrorResponse(w, r, err)
}

func toVerifyResponse(rec *domain.Verification) *VerifyResponse {
	return &VerifyResponse{
		ID:      rec.ID,
		Address: rec.Standardized,
		Verdict: rec.Verdict,
	}
}

// decodeJSON reads a single JSON value from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	const op = "api.decode"

	if r.Body == nil {
		return domain.Invalid(op, "Request body is required")
	}

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return domain.WrapError(err, domain.ETOOLARGE, op, "Request body too large")
	case errors.Is(err, io.EOF):
		return domain.Invalid(op, "Request body is required")
	default:
		return domain.WrapError(err, domain.EINVALID, op, "Request body must be a JSON object")
	}
}
