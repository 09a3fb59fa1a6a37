package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"trade-ledger/internal/app"

	"github.com/go-chi/chi/v5"
)

// HTTPMetrics is the part of internal/metrics the router needs.
type HTTPMetrics interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
	Handler() http.Handler
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes. m may be nil,
// in which case /metrics is not served.
func NewHandler(svc app.ApplicationService, allowedOrigins string, m HTTPMetrics) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	if m != nil {
		r.Use(Metrics(m))
	}
	r.Use(CORS(allowedOrigins))

	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/health", h.health)

		// ── Master data ───────────────────────────────────────────────────────
		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/suppliers", h.listSuppliers)
		r.Post("/suppliers", h.createSupplier)
		r.Get("/supplier-products", h.listSupplierProducts)
		r.Post("/supplier-products", h.createSupplierProduct)
		r.Get("/supplier-products/{id}", h.getSupplierProduct)
		r.Get("/customers", h.listCustomers)
		r.Post("/customers", h.createCustomer)
		r.Get("/customers/{id}", h.getCustomer)
		r.Patch("/customers/{id}/status", h.setCustomerStatus)

		// ── Stock ─────────────────────────────────────────────────────────────
		r.Get("/stock", h.stockLevels)
		r.Post("/stock/adjustments", h.adjustStock)
		r.Get("/stock/low", h.lowStock)

		// ── Sales & receivables ───────────────────────────────────────────────
		r.Get("/sales", h.listSales)
		r.Post("/sales", h.createSale)
		r.Get("/sales/{id}", h.getSale)
		r.Patch("/sales/{id}", h.updateSale)
		r.Delete("/sales/{id}", h.deleteSale)
		r.Post("/sales/{id}/cancel", h.cancelSale)
		r.Post("/sales/{id}/payments", h.addPayment)
		r.Get("/receivables", h.listReceivables)

		// ── Purchases ─────────────────────────────────────────────────────────
		r.Get("/purchases", h.listPurchases)
		r.Post("/purchases", h.createPurchase)
		r.Get("/purchases/{id}", h.getPurchase)
		r.Post("/purchases/{id}/receive", h.receivePurchase)

		// ── Reporting & settings ──────────────────────────────────────────────
		r.Get("/dashboard", h.dashboard)
		r.Get("/reports/sales", h.salesReport)
		r.Get("/reports/sales.xlsx", h.salesReportXLSX)
		r.Get("/reports/purchases", h.purchaseReport)
		r.Get("/reports/purchases.xlsx", h.purchaseReportXLSX)
		r.Get("/settings", h.listSettings)
		r.Put("/settings", h.setSetting)

		r.Get("/schemas/{name}", h.schema)
	})

	h.router = r
	return r
}

// health reports liveness.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

func reportRequest(r *http.Request) app.ReportRequest {
	q := r.URL.Query()
	return app.ReportRequest{From: q.Get("from"), To: q.Get("to")}
}
