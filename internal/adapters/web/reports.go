package web

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"trade-ledger/internal/app"
	"trade-ledger/internal/report"
)

// dashboard handles GET /api/dashboard.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, d)
}

// lowStock handles GET /api/stock/low.
func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.GetLowStock(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, items)
}

// salesReport handles GET /api/reports/sales?from=&to=.
func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.GetSalesReport(r.Context(), reportRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rep)
}

// purchaseReport handles GET /api/reports/purchases?from=&to=.
func (h *Handler) purchaseReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.GetPurchaseReport(r.Context(), reportRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rep)
}

// salesReportXLSX handles GET /api/reports/sales.xlsx.
func (h *Handler) salesReportXLSX(w http.ResponseWriter, r *http.Request) {
	req := reportRequest(r)
	var buf bytes.Buffer
	if err := h.svc.ExportSalesReport(r.Context(), req, &buf); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeWorkbook(w, "sales", req, buf.Bytes())
}

// purchaseReportXLSX handles GET /api/reports/purchases.xlsx.
func (h *Handler) purchaseReportXLSX(w http.ResponseWriter, r *http.Request) {
	req := reportRequest(r)
	var buf bytes.Buffer
	if err := h.svc.ExportPurchaseReport(r.Context(), req, &buf); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeWorkbook(w, "purchases", req, buf.Bytes())
}

// writeWorkbook sends a generated workbook. The export is buffered so a
// failure can still be reported as JSON.
func writeWorkbook(w http.ResponseWriter, kind string, req app.ReportRequest, body []byte) {
	stamp := req.To
	if stamp == "" {
		stamp = time.Now().Format("2006-01-02")
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-report-%s.xlsx"`, kind, stamp))
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	_, _ = w.Write(body)
}

// listSettings handles GET /api/settings.
func (h *Handler) listSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSettings(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// setSetting handles PUT /api/settings.
func (h *Handler) setSetting(w http.ResponseWriter, r *http.Request) {
	var req app.SetSettingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.svc.SetSetting(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, s)
}
