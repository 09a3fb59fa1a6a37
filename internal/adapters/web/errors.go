package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"trade-ledger/internal/core"
	"trade-ledger/internal/logger"
)

type errorResponse struct {
	Error          string `json:"error"`
	Code           string `json:"code"`
	RequestID      string `json:"request_id,omitempty"`
	Field          string `json:"field,omitempty"`
	RemainingStock *int64 `json:"remaining_stock,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, status, errorResponse{Error: message, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps an error returned by the application service to an
// HTTP status and error code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *core.ValidationError
		stockErr *core.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		writeErrorResponse(w, r, http.StatusBadRequest, errorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
			Field: verr.Field,
		})
	case errors.Is(err, core.ErrOverpayment):
		writeError(w, r, err.Error(), "OVERPAYMENT", http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &stockErr):
		remaining := stockErr.RemainingStock
		writeErrorResponse(w, r, http.StatusConflict, errorResponse{
			Error:          err.Error(),
			Code:           "INSUFFICIENT_STOCK",
			RemainingStock: &remaining,
		})
	case errors.Is(err, core.ErrConflict):
		w.Header().Set("Retry-After", "1")
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidState):
		writeError(w, r, err.Error(), "INVALID_STATE", http.StatusConflict)
	default:
		log := logger.WithRequestID(requestIDFromContext(r.Context()))
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
