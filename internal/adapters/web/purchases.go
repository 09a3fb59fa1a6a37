package web

import (
	"net/http"

	"trade-ledger/internal/app"

	"github.com/go-chi/chi/v5"
)

// listPurchases handles GET /api/purchases?supplierId=&status=&from=&to=.
func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.ListPurchases(r.Context(), app.PurchaseListRequest{
		SupplierID:    q.Get("supplierId"),
		Status:        q.Get("status"),
		ReportRequest: reportRequest(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createPurchase handles POST /api/purchases.
func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreatePurchase(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

// getPurchase handles GET /api/purchases/{id}.
func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPurchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// receivePurchase handles POST /api/purchases/{id}/receive. The body is
// optional; an empty one keeps the stored document numbers.
func (h *Handler) receivePurchase(w http.ResponseWriter, r *http.Request) {
	var req app.ReceivePurchaseRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.ReceivePurchase(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}
