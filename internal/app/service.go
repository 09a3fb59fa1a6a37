package app

import (
	"context"
	"io"

	"trade-ledger/internal/core"
)

// ApplicationService is the single interface the CLI and web adapters call.
// Requests arrive as plain structs with string dates; validation happens here
// so every adapter rejects the same input the same way. Implementations hold
// no presentation logic.
type ApplicationService interface {
	// ── Master data ─────────────────────────────────────────────────────────

	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)
	ListProducts(ctx context.Context) (*ProductListResult, error)
	GetProduct(ctx context.Context, id string) (*core.Product, error)
	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*core.Supplier, error)
	ListSuppliers(ctx context.Context) (*SupplierListResult, error)
	CreateSupplierProduct(ctx context.Context, req CreateSupplierProductRequest) (*core.SupplierProduct, error)
	// ListSupplierProducts filters by supplier and/or product when given.
	ListSupplierProducts(ctx context.Context, supplierID, productID string) (*SupplierProductListResult, error)
	GetSupplierProduct(ctx context.Context, id string) (*core.SupplierProduct, error)
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error)
	ListCustomers(ctx context.Context) (*CustomerListResult, error)
	GetCustomer(ctx context.Context, id string) (*core.Customer, error)
	SetCustomerStatus(ctx context.Context, id string, req SetCustomerStatusRequest) (*core.Customer, error)

	// ── Stock ───────────────────────────────────────────────────────────────

	GetStockLevels(ctx context.Context) (*StockResult, error)
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*core.SupplierProduct, error)

	// ── Sales ───────────────────────────────────────────────────────────────

	// CreateSale decrements stock and assigns invoice and delivery note numbers
	// in one transaction.
	CreateSale(ctx context.Context, req CreateSaleRequest) (*core.SaleDetail, error)
	GetSale(ctx context.Context, id string) (*core.SaleDetail, error)
	ListSales(ctx context.Context, req SaleListRequest) (*SaleListResult, error)
	UpdateSale(ctx context.Context, id string, req UpdateSaleRequest) (*core.SaleDetail, error)
	// CancelSale restores stock and marks the sale Cancelled. The record is kept.
	CancelSale(ctx context.Context, id string) (*core.SaleDetail, error)
	// DeleteSale removes the sale, restoring stock unless it was already cancelled.
	DeleteSale(ctx context.Context, id string) error

	// ── Receivables ─────────────────────────────────────────────────────────

	AddPayment(ctx context.Context, saleID string, req AddPaymentRequest) (*core.SaleDetail, error)
	ListReceivables(ctx context.Context) (*ReceivablesResult, error)

	// ── Purchases ───────────────────────────────────────────────────────────

	CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*core.PurchaseDetail, error)
	// ReceivePurchase completes a Pending purchase and adds its quantities to stock.
	ReceivePurchase(ctx context.Context, id string, req ReceivePurchaseRequest) (*core.PurchaseDetail, error)
	GetPurchase(ctx context.Context, id string) (*core.PurchaseDetail, error)
	ListPurchases(ctx context.Context, req PurchaseListRequest) (*PurchaseListResult, error)

	// ── Reporting ───────────────────────────────────────────────────────────

	GetDashboard(ctx context.Context) (*core.Dashboard, error)
	GetLowStock(ctx context.Context) ([]core.LowStockItem, error)
	GetSalesReport(ctx context.Context, req ReportRequest) (*core.SalesReport, error)
	GetPurchaseReport(ctx context.Context, req ReportRequest) (*core.PurchaseReport, error)
	// ExportSalesReport writes the sales report as an .xlsx workbook to w.
	ExportSalesReport(ctx context.Context, req ReportRequest, w io.Writer) error
	// ExportPurchaseReport writes the purchase report as an .xlsx workbook to w.
	ExportPurchaseReport(ctx context.Context, req ReportRequest, w io.Writer) error

	// ── Settings ────────────────────────────────────────────────────────────

	SetSetting(ctx context.Context, req SetSettingRequest) (*core.Setting, error)
	ListSettings(ctx context.Context) (*SettingsResult, error)

	// Seed loads demo master data into an empty store. It does nothing when
	// products already exist.
	Seed(ctx context.Context) (*SeedResult, error)
}
