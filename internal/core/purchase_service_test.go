package core_test

import (
	"testing"

	"trade-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchase_PendingReceivesStockExactlyOnce(t *testing.T) {
	f := newFixture(t)
	sup := f.supplier(t)
	sp := f.listing(t, sup, "Semen 40kg", 5, 10000)

	p, err := f.purchases.CreatePurchase(f.ctx, core.PurchaseInput{
		SupplierID: sup.ID,
		Items:      []core.PurchaseLineInput{{SupplierProductID: sp.ID, Qty: 20}},
	})
	require.NoError(t, err)
	assert.Equal(t, core.PurchaseStatusPending, p.Status)
	assert.Nil(t, p.CompletedAt)
	assert.Equal(t, "160000", p.Total.String(), "defaults to the buy price")
	assert.Equal(t, int64(5), f.stockOf(t, sp.ID))

	done, err := f.purchases.CompleteReceipt(f.ctx, p.ID, core.ReceiptFields{DeliveryNote: "DO-778", InvoiceNumber: "INV-S-01"})
	require.NoError(t, err)
	assert.Equal(t, core.PurchaseStatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, "DO-778", done.DeliveryNote)
	assert.Equal(t, "INV-S-01", done.InvoiceNumber)
	assert.Equal(t, int64(25), f.stockOf(t, sp.ID))

	_, err = f.purchases.CompleteReceipt(f.ctx, p.ID, core.ReceiptFields{})
	assert.ErrorIs(t, err, core.ErrAlreadyCompleted)
	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.Equal(t, int64(25), f.stockOf(t, sp.ID))
}

func TestPurchase_CreatedCompletedAddsStock(t *testing.T) {
	f := newFixture(t)
	sup := f.supplier(t)
	a := f.listing(t, sup, "A", 0, 1000)
	b := f.listing(t, sup, "B", 3, 1000)

	p, err := f.purchases.CreatePurchase(f.ctx, core.PurchaseInput{
		SupplierID: sup.ID,
		Status:     core.PurchaseStatusCompleted,
		Items: []core.PurchaseLineInput{
			{SupplierProductID: a.ID, Qty: 10, UnitPrice: dec("750")},
			{SupplierProductID: b.ID, Qty: 2},
		},
	})
	require.NoError(t, err)
	assert.NotNil(t, p.CompletedAt)
	assert.Equal(t, "9100", p.Total.String())
	assert.Equal(t, sup.Name, p.SupplierName)
	require.Len(t, p.Items, 2)
	assert.Equal(t, "A", p.Items[0].ProductName)
	assert.Equal(t, int64(10), f.stockOf(t, a.ID))
	assert.Equal(t, int64(5), f.stockOf(t, b.ID))
}

func TestPurchase_RejectsForeignSupplierProduct(t *testing.T) {
	f := newFixture(t)
	mine := f.supplier(t)
	other := f.supplier(t)
	sp := f.listing(t, other, "A", 0, 1000)

	_, err := f.purchases.CreatePurchase(f.ctx, core.PurchaseInput{
		SupplierID: mine.ID,
		Status:     core.PurchaseStatusCompleted,
		Items:      []core.PurchaseLineInput{{SupplierProductID: sp.ID, Qty: 1}},
	})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, f.count(t, core.CollPurchases))
	assert.Equal(t, int64(0), f.stockOf(t, sp.ID))
}

func TestPurchase_Validation(t *testing.T) {
	f := newFixture(t)
	sup := f.supplier(t)
	sp := f.listing(t, sup, "A", 0, 1000)

	tests := []struct {
		name  string
		input core.PurchaseInput
		field string
	}{
		{"no supplier", core.PurchaseInput{Items: []core.PurchaseLineInput{{SupplierProductID: sp.ID, Qty: 1}}}, "supplierId"},
		{"no items", core.PurchaseInput{SupplierID: sup.ID}, "items"},
		{"negative qty", core.PurchaseInput{SupplierID: sup.ID, Items: []core.PurchaseLineInput{{SupplierProductID: sp.ID, Qty: -1}}}, "items[0].qty"},
		{"bad status", core.PurchaseInput{SupplierID: sup.ID, Status: "Shipped", Items: []core.PurchaseLineInput{{SupplierProductID: sp.ID, Qty: 1}}}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.purchases.CreatePurchase(f.ctx, tt.input)
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestPurchase_ListUsesSupplierPlaceholder(t *testing.T) {
	f := newFixture(t)
	sup := f.supplier(t)
	sp := f.listing(t, sup, "A", 0, 1000)
	_, err := f.purchases.CreatePurchase(f.ctx, core.PurchaseInput{
		SupplierID: sup.ID,
		Items:      []core.PurchaseLineInput{{SupplierProductID: sp.ID, Qty: 1}},
	})
	require.NoError(t, err)
	deleteDoc(t, f, core.CollSuppliers, sup.ID)

	list, err := f.purchases.ListPurchases(f.ctx, core.PurchaseFilter{Status: core.PurchaseStatusPending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, core.UnknownSupplierLabel, list[0].SupplierName)
	assert.Equal(t, "A", list[0].Items[0].ProductName)

	_, err = f.purchases.GetPurchase(f.ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
