package core_test

import (
	"testing"
	"time"

	"trade-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporting_Dashboard(t *testing.T) {
	f := newFixture(t)
	s1, s2 := f.supplier(t), f.supplier(t)
	semen := f.listing(t, s1, "Semen", 30, 10000)
	// Same product from a second supplier: stock is summed per product.
	_, err := f.master.CreateSupplierProduct(f.ctx, core.SupplierProductInput{SupplierID: s2.ID, ProductID: semen.ProductID, InitialStock: 2})
	require.NoError(t, err)
	f.listing(t, s1, "Cat", 3, 5000)
	f.listing(t, s1, "Paku", 0, 100)
	cust := f.customer(t, "Budi")

	kept, err := f.sales.CreateSale(f.ctx, core.SaleInput{CustomerID: cust.ID, Items: []core.SaleLineInput{line(semen, 5)}})
	require.NoError(t, err)
	dropped, err := f.sales.CreateSale(f.ctx, core.SaleInput{CustomerID: cust.ID, Items: []core.SaleLineInput{line(semen, 2)}})
	require.NoError(t, err)
	_, err = f.sales.CancelSale(f.ctx, dropped.ID)
	require.NoError(t, err)
	_, err = f.recv.AddPayment(f.ctx, kept.ID, core.PaymentInput{Amount: dec("20000"), Method: "Tunai"})
	require.NoError(t, err)
	_, err = f.purchases.CreatePurchase(f.ctx, core.PurchaseInput{SupplierID: s1.ID, Items: []core.PurchaseLineInput{{SupplierProductID: semen.ID, Qty: 10}}})
	require.NoError(t, err)

	d, err := f.reports.Dashboard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalProducts)
	assert.Equal(t, 1, d.TotalCustomers)
	assert.Equal(t, 2, d.TotalSuppliers)
	assert.Equal(t, 2, d.TotalSales)
	assert.Equal(t, 1, d.TotalPurchases)
	assert.Equal(t, "50000", d.TotalRevenue.String())
	assert.Equal(t, "30000", d.TotalReceivable.String())
	assert.Equal(t, "80000", d.TotalExpenses.String())
	assert.Equal(t, int64(10), d.LowStockThreshold)

	require.Len(t, d.LowStock, 2)
	assert.Equal(t, "Paku", d.LowStock[0].Name)
	assert.Equal(t, "Cat", d.LowStock[1].Name)
	require.Len(t, d.RecentSales, 2)
	assert.Equal(t, "Toko Budi", d.RecentSales[0].Party)
	require.Len(t, d.RecentPurchases, 1)
	assert.Equal(t, s1.Name, d.RecentPurchases[0].Party)
}

func TestReporting_LowStockHonoursSetting(t *testing.T) {
	f := newFixture(t)
	f.listing(t, f.supplier(t), "Semen", 30, 10000)

	low, err := f.reports.LowStock(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, low)

	_, err = f.settings.Set(f.ctx, core.SettingLowStockThreshold, "50", 10)
	require.NoError(t, err)
	low, err = f.reports.LowStock(f.ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(50), low[0].Threshold)
}

func TestReporting_SalesReportExcludesCancelledFromTotals(t *testing.T) {
	f := newFixture(t)
	sp := f.listing(t, f.supplier(t), "A", 100, 1000)
	cust := f.customer(t, "Budi")
	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for _, qty := range []int64{2, 3} {
		_, err := f.sales.CreateSale(f.ctx, core.SaleInput{CustomerID: cust.ID, Date: day, Items: []core.SaleLineInput{line(sp, qty)}})
		require.NoError(t, err)
	}
	gone, err := f.sales.CreateSale(f.ctx, core.SaleInput{CustomerID: cust.ID, Date: day.AddDate(0, 0, 1), Items: []core.SaleLineInput{line(sp, 4)}})
	require.NoError(t, err)
	_, err = f.sales.CancelSale(f.ctx, gone.ID)
	require.NoError(t, err)
	_, err = f.sales.CreateSale(f.ctx, core.SaleInput{CustomerID: cust.ID, Date: day.AddDate(0, 1, 0), Items: []core.SaleLineInput{line(sp, 9)}})
	require.NoError(t, err)

	rep, err := f.reports.SalesReport(f.ctx, core.ReportRange{From: day, To: day.AddDate(0, 0, 7)})
	require.NoError(t, err)
	assert.Len(t, rep.Rows, 3)
	assert.Equal(t, 2, rep.Count)
	assert.Equal(t, 1, rep.Cancelled)
	assert.Equal(t, "5000", rep.Total.String())
	assert.Equal(t, "5000", rep.Outstanding.String())
	assert.False(t, rep.Rows[0].Date.After(rep.Rows[2].Date))

	_, err = f.reports.SalesReport(f.ctx, core.ReportRange{From: day, To: day.AddDate(0, 0, -1)})
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReporting_PurchaseReport(t *testing.T) {
	f := newFixture(t)
	sup := f.supplier(t)
	sp := f.listing(t, sup, "A", 0, 1000)
	for _, st := range []core.PurchaseStatus{core.PurchaseStatusPending, core.PurchaseStatusCompleted} {
		_, err := f.purchases.CreatePurchase(f.ctx, core.PurchaseInput{
			SupplierID: sup.ID,
			Status:     st,
			Items:      []core.PurchaseLineInput{{SupplierProductID: sp.ID, Qty: 5}},
		})
		require.NoError(t, err)
	}

	rep, err := f.reports.PurchaseReport(f.ctx, core.ReportRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Count)
	assert.Equal(t, 1, rep.Pending)
	assert.Equal(t, 1, rep.Completed)
	assert.Equal(t, "8000", rep.Total.String())
}

func TestSettings_HighestPriorityWins(t *testing.T) {
	f := newFixture(t)
	rate, err := f.settings.TaxRate(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.11", rate.String())

	_, err = f.settings.Set(f.ctx, core.SettingTaxRate, "0.12", 1)
	require.NoError(t, err)
	_, err = f.settings.Set(f.ctx, core.SettingTaxRate, "0.1", 5)
	require.NoError(t, err)
	rate, err = f.settings.TaxRate(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.1", rate.String())

	_, err = f.settings.Set(f.ctx, core.SettingTaxRate, "1.5", 9)
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
	_, err = f.settings.Set(f.ctx, "currency", "IDR", 1)
	assert.ErrorAs(t, err, &verr)

	all, err := f.settings.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 5, all[0].Priority)
}
