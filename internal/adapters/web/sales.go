package web

import (
	"net/http"

	"trade-ledger/internal/app"

	"github.com/go-chi/chi/v5"
)

// listSales handles GET /api/sales?customerId=&status=&from=&to=.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.ListSales(r.Context(), app.SaleListRequest{
		CustomerID:    q.Get("customerId"),
		Status:        q.Get("status"),
		ReportRequest: reportRequest(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createSale handles POST /api/sales.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.CreateSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sale)
}

// getSale handles GET /api/sales/{id}.
func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.svc.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// updateSale handles PATCH /api/sales/{id}.
func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.UpdateSale(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// deleteSale handles DELETE /api/sales/{id}.
func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// cancelSale handles POST /api/sales/{id}/cancel.
func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.svc.CancelSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// addPayment handles POST /api/sales/{id}/payments.
func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	var req app.AddPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.AddPayment(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// listReceivables handles GET /api/receivables.
func (h *Handler) listReceivables(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListReceivables(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
