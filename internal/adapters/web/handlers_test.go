package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"trade-ledger/internal/adapters/web"
	"trade-ledger/internal/app"
	"trade-ledger/internal/core"
	"trade-ledger/internal/metrics"
	"trade-ledger/internal/report"
	"trade-ledger/internal/store"
	"trade-ledger/internal/store/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler   http.Handler
	svc       app.ApplicationService
	conflicts *conflictSwitch
}

// conflictSwitch makes every transaction end in a commit conflict while on.
type conflictSwitch struct {
	store.Store
	on atomic.Bool
}

func (c *conflictSwitch) RunTransaction(ctx context.Context, fn store.TxFunc) error {
	if !c.on.Load() {
		return c.Store.RunTransaction(ctx, fn)
	}
	return c.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return store.ErrConflict
	})
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	m := metrics.New()
	conflicts := &conflictSwitch{Store: memstore.New()}
	policy := store.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
	runner := core.NewTxRunner(conflicts, policy, m)
	svc := app.Wire(runner, core.SettingsDefaults{TaxRate: decimal.RequireFromString("0.11"), LowStockThreshold: 10})
	_, err := svc.Seed(context.Background())
	require.NoError(t, err)
	return &testServer{handler: web.NewHandler(svc, "http://localhost:3000", m), svc: svc, conflicts: conflicts}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// listing returns the seeded supplier product with the given stock.
func (s *testServer) listing(t *testing.T, stock int64) core.SupplierProduct {
	t.Helper()
	res, err := s.svc.ListSupplierProducts(context.Background(), "", "")
	require.NoError(t, err)
	for _, sp := range res.SupplierProducts {
		if sp.Stock == stock {
			return sp
		}
	}
	t.Fatalf("no seeded listing with stock %d", stock)
	return core.SupplierProduct{}
}

func (s *testServer) customerID(t *testing.T) string {
	t.Helper()
	res, err := s.svc.ListCustomers(context.Background())
	require.NoError(t, err)
	return res.Customers[0].ID
}

type apiError struct {
	Error          string `json:"error"`
	Code           string `json:"code"`
	RequestID      string `json:"request_id"`
	Field          string `json:"field"`
	RemainingStock *int64 `json:"remaining_stock"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateSale_AndFetch(t *testing.T) {
	s := newServer(t)
	sp := s.listing(t, 200)

	rec := s.do(t, http.MethodPost, "/api/sales", map[string]any{
		"customerId": s.customerID(t),
		"date":       "2026-04-01",
		"items":      []map[string]any{{"supplierProductId": sp.ID, "qty": 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sale core.SaleDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sale))
	assert.Equal(t, "INV/20260401/0001", sale.InvoiceNumber)
	assert.Equal(t, "SJ/20260401/0001", sale.DeliveryNoteNumber)
	assert.Equal(t, core.SaleStatusUnpaid, sale.Status)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "156000", sale.Total.String())

	rec = s.do(t, http.MethodGet, "/api/sales/"+sale.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/sales?status=Unpaid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list app.SaleListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	s := newServer(t)
	sp := s.listing(t, 8)

	rec := s.do(t, http.MethodPost, "/api/sales", map[string]any{
		"customerId": s.customerID(t),
		"items":      []map[string]any{{"supplierProductId": sp.ID, "qty": 9}},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
	require.NotNil(t, e.RemainingStock)
	assert.Equal(t, int64(8), *e.RemainingStock)
	assert.NotEmpty(t, e.RequestID)
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t)
	sp := s.listing(t, 200)
	created := s.do(t, http.MethodPost, "/api/sales", map[string]any{
		"customerId": s.customerID(t),
		"items":      []map[string]any{{"supplierProductId": sp.ID, "qty": 1}},
	})
	require.Equal(t, http.StatusCreated, created.Code)
	var sale core.SaleDetail
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &sale))

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		status   int
		code     string
		conflict bool
	}{
		{"validation", http.MethodPost, "/api/products", map[string]any{"unit": "sak"}, http.StatusBadRequest, "VALIDATION_ERROR", false},
		{"unknown field", http.MethodPost, "/api/products", map[string]any{"name": "x", "unit": "sak", "colour": "red"}, http.StatusBadRequest, "BAD_REQUEST", false},
		{"not found", http.MethodGet, "/api/sales/missing", nil, http.StatusNotFound, "NOT_FOUND", false},
		{"overpayment", http.MethodPost, "/api/sales/" + sale.ID + "/payments", map[string]any{"amount": "999999", "method": "Tunai"}, http.StatusBadRequest, "OVERPAYMENT", false},
		{"bad range", http.MethodGet, "/api/reports/sales?from=2026-05-01&to=2026-04-01", nil, http.StatusBadRequest, "VALIDATION_ERROR", false},
		{"unknown schema", http.MethodGet, "/api/schemas/nope", nil, http.StatusNotFound, "NOT_FOUND", false},
		{"conflict", http.MethodPost, "/api/sales/" + sale.ID + "/payments", map[string]any{"amount": "1000", "method": "Tunai"}, http.StatusConflict, "CONFLICT", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.conflicts.on.Store(tt.conflict)
			defer s.conflicts.on.Store(false)

			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
			if tt.conflict {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			} else {
				assert.Empty(t, rec.Header().Get("Retry-After"))
			}
		})
	}

	got := s.do(t, http.MethodGet, "/api/sales/"+sale.ID, nil)
	require.Equal(t, http.StatusOK, got.Code)
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &sale))
	assert.Empty(t, sale.PaymentHistory, "a conflicted payment is not recorded")

	rec := s.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATE", decodeError(t, rec).Code)
}

func TestPaymentsAndReceivables(t *testing.T) {
	s := newServer(t)
	sp := s.listing(t, 200)
	created := s.do(t, http.MethodPost, "/api/sales", map[string]any{
		"customerId": s.customerID(t),
		"items":      []map[string]any{{"supplierProductId": sp.ID, "qty": 2}},
	})
	require.Equal(t, http.StatusCreated, created.Code)
	var sale core.SaleDetail
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &sale))

	rec := s.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/payments", map[string]any{"amount": "4000", "method": "Transfer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/receivables", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recv app.ReceivablesResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recv))
	require.Len(t, recv.Receivables, 1)
	assert.Equal(t, "100000", recv.TotalRemaining.String())

	rec = s.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/payments", map[string]any{"amount": 100000, "method": "Tunai"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paid core.SaleDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paid))
	assert.Equal(t, core.SaleStatusPaid, paid.Status)
	assert.Len(t, paid.PaymentHistory, 2)
}

func TestPurchaseReceive(t *testing.T) {
	s := newServer(t)
	sp := s.listing(t, 25)

	rec := s.do(t, http.MethodPost, "/api/purchases", map[string]any{
		"supplierId": sp.SupplierID,
		"items":      []map[string]any{{"supplierProductId": sp.ID, "qty": 5}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p core.PurchaseDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))

	req := httptest.NewRequest(http.MethodPost, "/api/purchases/"+p.ID+"/receive", nil)
	out := httptest.NewRecorder()
	s.handler.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())

	rec = s.do(t, http.MethodGet, "/api/supplier-products/"+sp.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got core.SupplierProduct
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(30), got.Stock)

	rec = s.do(t, http.MethodPost, "/api/purchases/"+p.ID+"/receive", map[string]any{})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSalesReportXLSX(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/api/reports/sales.xlsx?to=2026-04-30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales-report-2026-04-30.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestSchemaEndpoint(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/api/schemas/sale", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/schema+json", rec.Header().Get("Content-Type"))

	var schema map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "customerId")
	assert.Contains(t, props, "items")
	assert.Contains(t, schema["required"], "customerId")
}

func TestMetricsEndpoint_UsesRoutePattern(t *testing.T) {
	s := newServer(t)
	s.do(t, http.MethodGet, "/api/sales/abc", nil)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `path="/api/sales/{id}"`)
	assert.Contains(t, body, "trade_ledger_transactions_committed_total")
}

func TestCORS(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/sales", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestBodyLimit(t *testing.T) {
	s := newServer(t)
	big := `{"name":"` + strings.Repeat("x", 2<<20) + `","unit":"sak"}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(big))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
