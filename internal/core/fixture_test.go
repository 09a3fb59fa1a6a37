package core_test

import (
	"context"
	"fmt"
	"testing"

	"trade-ledger/internal/core"
	"trade-ledger/internal/store"
	"trade-ledger/internal/store/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture wires every service against a fresh in-memory store.
type fixture struct {
	ctx       context.Context
	store     *memstore.Store
	runner    *core.TxRunner
	seq       core.SequenceService
	stock     core.StockLedger
	settings  core.SettingsResolver
	master    core.MasterDataService
	sales     core.SaleService
	purchases core.PurchaseService
	recv      core.ReceivablesService
	reports   core.ReportingService

	suppliers int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memstore.New()
	runner := core.NewTxRunner(s, store.DefaultRetryPolicy(), nil)
	settings := core.NewSettingsResolver(runner, core.SettingsDefaults{
		TaxRate:           decimal.RequireFromString("0.11"),
		LowStockThreshold: 10,
	})
	stock := core.NewStockLedger(runner)
	sales := core.NewSaleService(runner, stock, settings)
	purchases := core.NewPurchaseService(runner, stock)
	return &fixture{
		ctx:       context.Background(),
		store:     s,
		runner:    runner,
		seq:       core.NewSequenceService(runner),
		stock:     stock,
		settings:  settings,
		master:    core.NewMasterDataService(runner),
		sales:     sales,
		purchases: purchases,
		recv:      core.NewReceivablesService(runner, sales),
		reports:   core.NewReportingService(runner, sales, purchases, settings),
	}
}

func (f *fixture) supplier(t *testing.T) *core.Supplier {
	t.Helper()
	f.suppliers++
	sup, err := f.master.CreateSupplier(f.ctx, core.SupplierInput{
		Code: fmt.Sprintf("SUP-%02d", f.suppliers),
		Name: fmt.Sprintf("Supplier %d", f.suppliers),
	})
	require.NoError(t, err)
	return sup
}

// listing creates a product listed under sup with the given stock and sell price.
func (f *fixture) listing(t *testing.T, sup *core.Supplier, name string, stock int64, sellPrice int64) *core.SupplierProduct {
	t.Helper()
	p, err := f.master.CreateProduct(f.ctx, core.ProductInput{Name: name, Unit: "sak", Category: "Bahan"})
	require.NoError(t, err)
	sp, err := f.master.CreateSupplierProduct(f.ctx, core.SupplierProductInput{
		SupplierID:   sup.ID,
		ProductID:    p.ID,
		BuyPrice:     decimal.NewFromInt(sellPrice * 8 / 10),
		SellPrice:    decimal.NewFromInt(sellPrice),
		InitialStock: stock,
	})
	require.NoError(t, err)
	return sp
}

func (f *fixture) customer(t *testing.T, name string) *core.Customer {
	t.Helper()
	c, err := f.master.CreateCustomer(f.ctx, core.CustomerInput{Name: name, StoreName: "Toko " + name})
	require.NoError(t, err)
	return c
}

func (f *fixture) stockOf(t *testing.T, supplierProductID string) int64 {
	t.Helper()
	sp, err := f.master.GetSupplierProduct(f.ctx, supplierProductID)
	require.NoError(t, err)
	return sp.Stock
}

func (f *fixture) count(t *testing.T, coll string) int {
	t.Helper()
	var docs []map[string]any
	require.NoError(t, f.store.Query(f.ctx, coll, store.Query{}, &docs))
	return len(docs)
}

// deleteDoc removes master data behind the services' back.
func deleteDoc(t *testing.T, f *fixture, coll, id string) {
	t.Helper()
	err := f.store.RunTransaction(f.ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Delete(ctx, coll, id)
	})
	require.NoError(t, err)
}

func line(sp *core.SupplierProduct, qty int64) core.SaleLineInput {
	return core.SaleLineInput{SupplierProductID: sp.ID, Qty: qty}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
