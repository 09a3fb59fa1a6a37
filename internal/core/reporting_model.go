package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Dashboard is the back-office landing summary.
type Dashboard struct {
	TotalProducts     int                 `json:"totalProducts"`
	TotalCustomers    int                 `json:"totalCustomers"`
	TotalSuppliers    int                 `json:"totalSuppliers"`
	TotalSales        int                 `json:"totalSales"`
	TotalPurchases    int                 `json:"totalPurchases"`
	TotalRevenue      decimal.Decimal     `json:"totalRevenue"`
	TotalExpenses     decimal.Decimal     `json:"totalExpenses"`
	TotalReceivable   decimal.Decimal     `json:"totalReceivable"`
	LowStockThreshold int64               `json:"lowStockThreshold"`
	LowStock          []LowStockItem      `json:"lowStock"`
	RecentSales       []RecentTransaction `json:"recentSales"`
	RecentPurchases   []RecentTransaction `json:"recentPurchases"`
}

// LowStockItem is a product whose stock, summed over all suppliers, is
// below the threshold.
type LowStockItem struct {
	ProductID string `json:"productId"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Stock     int64  `json:"stock"`
	Threshold int64  `json:"threshold"`
}

type RecentTransaction struct {
	ID     string          `json:"id"`
	Number string          `json:"number"`
	Date   time.Time       `json:"date"`
	Total  decimal.Decimal `json:"total"`
	Status string          `json:"status"`
	Party  string          `json:"party"`
}

type ReportRange struct {
	From, To time.Time
}

type SalesReportRow struct {
	SaleID             string           `json:"saleId"`
	InvoiceNumber      string           `json:"invoiceNumber"`
	DeliveryNoteNumber string           `json:"deliveryNoteNumber"`
	Date               time.Time        `json:"date"`
	CustomerName       string           `json:"customerName"`
	Status             SaleStatus       `json:"status"`
	Items              []SaleLineDetail `json:"items"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
	DiscountAmount     decimal.Decimal  `json:"discountAmount"`
	TaxAmount          decimal.Decimal  `json:"taxAmount"`
	Total              decimal.Decimal  `json:"total"`
	AmountPaid         decimal.Decimal  `json:"amountPaid"`
	Remaining          decimal.Decimal  `json:"remaining"`
}

// SalesReport totals exclude cancelled sales; the rows include them.
type SalesReport struct {
	From        time.Time        `json:"from"`
	To          time.Time        `json:"to"`
	Rows        []SalesReportRow `json:"rows"`
	Count       int              `json:"count"`
	Cancelled   int              `json:"cancelled"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	Discount    decimal.Decimal  `json:"discount"`
	Tax         decimal.Decimal  `json:"tax"`
	Total       decimal.Decimal  `json:"total"`
	Paid        decimal.Decimal  `json:"paid"`
	Outstanding decimal.Decimal  `json:"outstanding"`
}

type PurchaseReportRow struct {
	PurchaseID    string               `json:"purchaseId"`
	Date          time.Time            `json:"date"`
	SupplierName  string               `json:"supplierName"`
	DeliveryNote  string               `json:"deliveryNote"`
	ReceiptNote   string               `json:"receiptNote"`
	InvoiceNumber string               `json:"invoiceNumber"`
	Status        PurchaseStatus       `json:"status"`
	Items         []PurchaseLineDetail `json:"items"`
	Total         decimal.Decimal      `json:"total"`
}

type PurchaseReport struct {
	From      time.Time           `json:"from"`
	To        time.Time           `json:"to"`
	Rows      []PurchaseReportRow `json:"rows"`
	Count     int                 `json:"count"`
	Pending   int                 `json:"pending"`
	Completed int                 `json:"completed"`
	Total     decimal.Decimal     `json:"total"`
}

// ReportingService is the read side: dashboard, low stock and reports.
type ReportingService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	LowStock(ctx context.Context) ([]LowStockItem, error)
	SalesReport(ctx context.Context, r ReportRange) (*SalesReport, error)
	PurchaseReport(ctx context.Context, r ReportRange) (*PurchaseReport, error)
}
