package app

import (
	"github.com/shopspring/decimal"
)

// Dates in requests are calendar days formatted as YYYY-MM-DD.

// CreateProductRequest is the input for adding a product to the catalog.
type CreateProductRequest struct {
	Name     string `json:"name" validate:"required,max=120" jsonschema:"example=Semen 40kg"`
	Unit     string `json:"unit" validate:"required,max=20" jsonschema:"example=sak"`
	Category string `json:"category,omitempty" validate:"max=60"`
}

// CreateSupplierRequest is the input for registering a supplier.
type CreateSupplierRequest struct {
	Code    string `json:"code" validate:"required,max=20"`
	Name    string `json:"name" validate:"required,max=120"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty" validate:"max=30"`
}

// CreateSupplierProductRequest lists a product under a supplier.
type CreateSupplierProductRequest struct {
	SupplierID   string          `json:"supplierId" validate:"required"`
	ProductID    string          `json:"productId" validate:"required"`
	BuyPrice     decimal.Decimal `json:"buyPrice"`
	SellPrice    decimal.Decimal `json:"sellPrice"`
	InitialStock int64           `json:"initialStock,omitempty" validate:"gte=0"`
}

// CreateCustomerRequest is the input for registering a customer.
type CreateCustomerRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	StoreName string `json:"storeName,omitempty" validate:"max=120"`
	NIB       string `json:"nib,omitempty" validate:"max=20"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty" validate:"max=30"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// SetCustomerStatusRequest toggles a customer.
type SetCustomerStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=aktif nonaktif" jsonschema:"enum=aktif,enum=nonaktif"`
}

// SaleLineRequest is one line of a sale. A zero unitPrice uses the sell price.
type SaleLineRequest struct {
	SupplierProductID string          `json:"supplierProductId" validate:"required"`
	Qty               int64           `json:"qty" validate:"gt=0"`
	UnitPrice         decimal.Decimal `json:"unitPrice,omitempty"`
}

// PaymentTermsRequest carries optional invoice payment instructions.
type PaymentTermsRequest struct {
	DueDate       string `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	AccountHolder string `json:"accountHolder,omitempty"`
}

// CreateSaleRequest is the input for recording a sale.
type CreateSaleRequest struct {
	CustomerID      string               `json:"customerId" validate:"required"`
	Date            string               `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes           string               `json:"notes,omitempty"`
	Items           []SaleLineRequest    `json:"items" validate:"required,min=1,dive"`
	DiscountPercent decimal.Decimal      `json:"discountPercent,omitempty"`
	TaxEnabled      bool                 `json:"taxEnabled,omitempty"`
	PaymentTerms    *PaymentTermsRequest `json:"paymentTerms,omitempty"`
}

// UpdateSaleRequest patches a sale. Omitted fields are left unchanged;
// items, when present, replace every line.
type UpdateSaleRequest struct {
	Items           *[]SaleLineRequest   `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	Status          *string              `json:"status,omitempty" validate:"omitempty,oneof=Paid Unpaid" jsonschema:"enum=Paid,enum=Unpaid"`
	Notes           *string              `json:"notes,omitempty"`
	Date            *string              `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DiscountPercent *decimal.Decimal     `json:"discountPercent,omitempty"`
	TaxEnabled      *bool                `json:"taxEnabled,omitempty"`
	PaymentTerms    *PaymentTermsRequest `json:"paymentTerms,omitempty"`
}

// AddPaymentRequest records money received against a sale.
type AddPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Method    string          `json:"method" validate:"required" jsonschema:"example=Transfer"`
	PayerName string          `json:"payerName,omitempty"`
}

// PurchaseLineRequest is one line of a purchase. A zero unitPrice uses the buy price.
type PurchaseLineRequest struct {
	SupplierProductID string          `json:"supplierProductId" validate:"required"`
	Qty               int64           `json:"qty" validate:"gt=0"`
	UnitPrice         decimal.Decimal `json:"unitPrice,omitempty"`
}

// CreatePurchaseRequest is the input for recording a purchase.
type CreatePurchaseRequest struct {
	SupplierID    string                `json:"supplierId" validate:"required"`
	Date          string                `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DeliveryNote  string                `json:"deliveryNote,omitempty"`
	ReceiptNote   string                `json:"receiptNote,omitempty"`
	InvoiceNumber string                `json:"invoiceNumber,omitempty"`
	Status        string                `json:"status,omitempty" validate:"omitempty,oneof=Pending Completed" jsonschema:"enum=Pending,enum=Completed"`
	Items         []PurchaseLineRequest `json:"items" validate:"required,min=1,dive"`
}

// ReceivePurchaseRequest completes a pending purchase.
type ReceivePurchaseRequest struct {
	DeliveryNote  string `json:"deliveryNote,omitempty"`
	ReceiptNote   string `json:"receiptNote,omitempty"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
}

// AdjustStockRequest corrects the stock of one supplier product.
type AdjustStockRequest struct {
	SupplierProductID string `json:"supplierProductId" validate:"required"`
	Delta             int64  `json:"delta" validate:"ne=0"`
	Reason            string `json:"reason" validate:"required"`
}

// SetSettingRequest overrides a runtime setting.
type SetSettingRequest struct {
	Key      string `json:"key" validate:"required,oneof=taxRate lowStockThreshold" jsonschema:"enum=taxRate,enum=lowStockThreshold"`
	Value    string `json:"value" validate:"required"`
	Priority int    `json:"priority"`
}

// ReportRequest selects a date range. Empty bounds are open.
type ReportRequest struct {
	From string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// SaleListRequest filters the sales list.
type SaleListRequest struct {
	CustomerID string `json:"customerId,omitempty"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=Paid Unpaid Cancelled"`
	ReportRequest
}

// PurchaseListRequest filters the purchase list.
type PurchaseListRequest struct {
	SupplierID string `json:"supplierId,omitempty"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=Pending Completed"`
	ReportRequest
}
