package app_test

import (
	"bytes"
	"context"
	"testing"

	"trade-ledger/internal/app"
	"trade-ledger/internal/core"
	"trade-ledger/internal/store"
	"trade-ledger/internal/store/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) app.ApplicationService {
	t.Helper()
	runner := core.NewTxRunner(memstore.New(), store.DefaultRetryPolicy(), nil)
	return app.Wire(runner, core.SettingsDefaults{
		TaxRate:           decimal.RequireFromString("0.11"),
		LowStockThreshold: 10,
	})
}

// seeded returns a seeded service plus the first customer and the first listing.
func seeded(t *testing.T) (app.ApplicationService, *core.Customer, *core.SupplierProduct) {
	t.Helper()
	ctx := context.Background()
	svc := newApp(t)
	_, err := svc.Seed(ctx)
	require.NoError(t, err)
	customers, err := svc.ListCustomers(ctx)
	require.NoError(t, err)
	listings, err := svc.ListSupplierProducts(ctx, "", "")
	require.NoError(t, err)
	require.NotEmpty(t, customers.Customers)
	require.NotEmpty(t, listings.SupplierProducts)
	for i := range listings.SupplierProducts {
		if listings.SupplierProducts[i].Stock >= 100 {
			return svc, &customers.Customers[0], &listings.SupplierProducts[i]
		}
	}
	t.Fatal("no seeded listing with stock")
	return nil, nil, nil
}

func TestSeed_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newApp(t)

	first, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	assert.Equal(t, 5, first.Products)
	assert.Equal(t, 2, first.Suppliers)
	assert.Equal(t, 6, first.SupplierProducts)
	assert.Equal(t, 3, first.Customers)

	second, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products.Products, 5)
}

func TestValidation_ReportsJSONFieldNames(t *testing.T) {
	ctx := context.Background()
	svc := newApp(t)

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{
			name: "missing product name",
			call: func() error {
				_, err := svc.CreateProduct(ctx, app.CreateProductRequest{Unit: "sak"})
				return err
			},
			field: "name",
		},
		{
			name: "sale without items",
			call: func() error {
				_, err := svc.CreateSale(ctx, app.CreateSaleRequest{CustomerID: "c1"})
				return err
			},
			field: "items",
		},
		{
			name: "sale line with zero qty",
			call: func() error {
				_, err := svc.CreateSale(ctx, app.CreateSaleRequest{
					CustomerID: "c1",
					Items:      []app.SaleLineRequest{{SupplierProductID: "sp1", Qty: 0}},
				})
				return err
			},
			field: "items[0].qty",
		},
		{
			name: "bad sale date",
			call: func() error {
				_, err := svc.CreateSale(ctx, app.CreateSaleRequest{
					CustomerID: "c1",
					Date:       "01/04/2026",
					Items:      []app.SaleLineRequest{{SupplierProductID: "sp1", Qty: 1}},
				})
				return err
			},
			field: "date",
		},
		{
			name: "status outside Paid and Unpaid",
			call: func() error {
				st := "Cancelled"
				_, err := svc.UpdateSale(ctx, "s1", app.UpdateSaleRequest{Status: &st})
				return err
			},
			field: "status",
		},
		{
			name: "payment without method",
			call: func() error {
				_, err := svc.AddPayment(ctx, "s1", app.AddPaymentRequest{Amount: decimal.NewFromInt(10)})
				return err
			},
			field: "method",
		},
		{
			name: "zero stock adjustment",
			call: func() error {
				_, err := svc.AdjustStock(ctx, app.AdjustStockRequest{SupplierProductID: "sp1", Reason: "opname"})
				return err
			},
			field: "delta",
		},
		{
			name: "bad customer email",
			call: func() error {
				_, err := svc.CreateCustomer(ctx, app.CreateCustomerRequest{Name: "Budi", Email: "not-an-email"})
				return err
			},
			field: "email",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestSaleLifecycle_ThroughRequests(t *testing.T) {
	ctx := context.Background()
	svc, cust, sp := seeded(t)

	sale, err := svc.CreateSale(ctx, app.CreateSaleRequest{
		CustomerID: cust.ID,
		Date:       "2026-04-01",
		Items:      []app.SaleLineRequest{{SupplierProductID: sp.ID, Qty: 2}},
		PaymentTerms: &app.PaymentTermsRequest{
			DueDate:       "2026-05-01",
			PaymentMethod: "Transfer",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV/20260401/0001", sale.InvoiceNumber)
	require.NotNil(t, sale.DueDate)
	assert.Equal(t, "2026-05-01", sale.DueDate.Format("2006-01-02"))
	total := sale.Total

	half := total.Div(decimal.NewFromInt(2))
	_, err = svc.AddPayment(ctx, sale.ID, app.AddPaymentRequest{Amount: half, Method: "Tunai"})
	require.NoError(t, err)

	recs, err := svc.ListReceivables(ctx)
	require.NoError(t, err)
	require.Len(t, recs.Receivables, 1)
	assert.True(t, total.Sub(half).Equal(recs.TotalRemaining))

	notes := "kirim sore"
	updated, err := svc.UpdateSale(ctx, sale.ID, app.UpdateSaleRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)

	listed, err := svc.ListSales(ctx, app.SaleListRequest{CustomerID: cust.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, listed.Count)

	_, err = svc.CancelSale(ctx, sale.ID)
	require.NoError(t, err)
	_, err = svc.CancelSale(ctx, sale.ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestPurchase_ReceiveThroughRequests(t *testing.T) {
	ctx := context.Background()
	svc, _, sp := seeded(t)

	p, err := svc.CreatePurchase(ctx, app.CreatePurchaseRequest{
		SupplierID: sp.SupplierID,
		Date:       "2026-04-02",
		Items:      []app.PurchaseLineRequest{{SupplierProductID: sp.ID, Qty: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, core.PurchaseStatusPending, p.Status)

	got, err := svc.ReceivePurchase(ctx, p.ID, app.ReceivePurchaseRequest{ReceiptNote: "RN-7"})
	require.NoError(t, err)
	assert.Equal(t, core.PurchaseStatusCompleted, got.Status)
	assert.Equal(t, "RN-7", got.ReceiptNote)

	levels, err := svc.GetStockLevels(ctx)
	require.NoError(t, err)
	for _, l := range levels.Levels {
		if l.SupplierProductID == sp.ID {
			assert.Equal(t, sp.Stock+10, l.Stock)
		}
	}

	list, err := svc.ListPurchases(ctx, app.PurchaseListRequest{Status: "Completed"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)
}

func TestExportSalesReport_WritesWorkbook(t *testing.T) {
	ctx := context.Background()
	svc, cust, sp := seeded(t)
	_, err := svc.CreateSale(ctx, app.CreateSaleRequest{
		CustomerID: cust.ID,
		Items:      []app.SaleLineRequest{{SupplierProductID: sp.ID, Qty: 1}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportSalesReport(ctx, app.ReportRequest{}, &buf))
	// xlsx files are zip archives.
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))

	err = svc.ExportSalesReport(ctx, app.ReportRequest{From: "2026-05-01", To: "2026-04-01"}, &buf)
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSettings_ThroughRequests(t *testing.T) {
	ctx := context.Background()
	svc := newApp(t)

	_, err := svc.SetSetting(ctx, app.SetSettingRequest{Key: "currency", Value: "IDR"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "key", verr.Field)

	_, err = svc.SetSetting(ctx, app.SetSettingRequest{Key: core.SettingLowStockThreshold, Value: "500", Priority: 1})
	require.NoError(t, err)
	_, err = svc.Seed(ctx)
	require.NoError(t, err)

	low, err := svc.GetLowStock(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, low)

	all, err := svc.ListSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all.Settings, 1)
}
