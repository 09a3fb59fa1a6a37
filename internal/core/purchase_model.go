package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is a supplier purchase header. Stock is applied once, when the
// purchase reaches Completed.
type Purchase struct {
	ID            string          `json:"id" bson:"_id"`
	SupplierID    string          `json:"supplierId" bson:"supplierId"`
	Date          time.Time       `json:"date" bson:"date"`
	DeliveryNote  string          `json:"deliveryNote,omitempty" bson:"deliveryNote,omitempty"`
	ReceiptNote   string          `json:"receiptNote,omitempty" bson:"receiptNote,omitempty"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty" bson:"invoiceNumber,omitempty"`
	Total         decimal.Decimal `json:"total" bson:"total"`
	Status        PurchaseStatus  `json:"status" bson:"status"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt" bson:"updatedAt"`
}

type PurchaseLineItem struct {
	ID                string          `json:"id" bson:"_id"`
	PurchaseID        string          `json:"purchaseId" bson:"purchaseId"`
	SupplierProductID string          `json:"supplierProductId" bson:"supplierProductId"`
	Qty               int64           `json:"qty" bson:"qty"`
	UnitPrice         decimal.Decimal `json:"unitPrice" bson:"unitPrice"`
	Subtotal          decimal.Decimal `json:"subtotal" bson:"subtotal"`
	Position          int             `json:"position" bson:"position"`
}

type PurchaseDetail struct {
	Purchase
	SupplierName string               `json:"supplierName"`
	Items        []PurchaseLineDetail `json:"items"`
}

type PurchaseLineDetail struct {
	PurchaseLineItem
	ProductName string `json:"productName"`
	Unit        string `json:"unit"`
}

// PurchaseLineInput is one requested line. A zero UnitPrice means the
// supplier product's buy price.
type PurchaseLineInput struct {
	SupplierProductID string          `json:"supplierProductId"`
	Qty               int64           `json:"qty"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
}

type PurchaseInput struct {
	SupplierID    string
	Date          time.Time
	DeliveryNote  string
	ReceiptNote   string
	InvoiceNumber string
	Status        PurchaseStatus // empty means Pending
	Items         []PurchaseLineInput
}

// ReceiptFields are merged into a purchase on completion. Empty fields keep
// the stored value.
type ReceiptFields struct {
	DeliveryNote  string
	ReceiptNote   string
	InvoiceNumber string
}

type PurchaseFilter struct {
	SupplierID string
	Status     PurchaseStatus
	From, To   time.Time
}

// PurchaseService records purchases and receives their stock.
type PurchaseService interface {
	// CreatePurchase writes the purchase and its lines in one transaction,
	// adding stock immediately when created as Completed.
	CreatePurchase(ctx context.Context, input PurchaseInput) (*PurchaseDetail, error)
	// CompleteReceipt moves a Pending purchase to Completed and adds its
	// stock. A second call fails with ErrAlreadyCompleted.
	CompleteReceipt(ctx context.Context, id string, fields ReceiptFields) (*PurchaseDetail, error)
	GetPurchase(ctx context.Context, id string) (*PurchaseDetail, error)
	ListPurchases(ctx context.Context, filter PurchaseFilter) ([]PurchaseDetail, error)
}
