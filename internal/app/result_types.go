package app

import (
	"trade-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product `json:"products"`
}

// SupplierListResult is returned by ListSuppliers.
type SupplierListResult struct {
	Suppliers []core.Supplier `json:"suppliers"`
}

// SupplierProductListResult is returned by ListSupplierProducts.
type SupplierProductListResult struct {
	SupplierProducts []core.SupplierProduct `json:"supplierProducts"`
}

// CustomerListResult is returned by ListCustomers.
type CustomerListResult struct {
	Customers []core.Customer `json:"customers"`
}

// StockResult is returned by GetStockLevels.
type StockResult struct {
	Levels []core.StockLevel `json:"levels"`
}

// SaleListResult is returned by ListSales.
type SaleListResult struct {
	Sales []core.SaleDetail `json:"sales"`
	Count int               `json:"count"`
}

// PurchaseListResult is returned by ListPurchases.
type PurchaseListResult struct {
	Purchases []core.PurchaseDetail `json:"purchases"`
	Count     int                   `json:"count"`
}

// ReceivablesResult is returned by ListReceivables.
type ReceivablesResult struct {
	Receivables    []core.Receivable `json:"receivables"`
	TotalRemaining decimal.Decimal   `json:"totalRemaining"`
}

// SettingsResult is returned by ListSettings.
type SettingsResult struct {
	Settings []core.Setting `json:"settings"`
}

// SeedResult reports what Seed created.
type SeedResult struct {
	Products         int  `json:"products"`
	Suppliers        int  `json:"suppliers"`
	SupplierProducts int  `json:"supplierProducts"`
	Customers        int  `json:"customers"`
	Skipped          bool `json:"skipped"`
}
