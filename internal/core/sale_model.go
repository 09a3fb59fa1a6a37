package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a customer sale header. Line items live in their own collection.
// Status is derived from AmountPaid unless the sale is cancelled:
//
//	Unpaid ⇄ Paid
//	any → Cancelled (terminal, stock restored)
type Sale struct {
	ID                 string          `json:"id" bson:"_id"`
	CustomerID         string          `json:"customerId" bson:"customerId"`
	Date               time.Time       `json:"date" bson:"date"`
	Notes              string          `json:"notes,omitempty" bson:"notes,omitempty"`
	InvoiceNumber      string          `json:"invoiceNumber" bson:"invoiceNumber"`
	DeliveryNoteNumber string          `json:"deliveryNoteNumber" bson:"deliveryNoteNumber"`
	Subtotal           decimal.Decimal `json:"subtotal" bson:"subtotal"`
	DiscountPercent    decimal.Decimal `json:"discountPercent" bson:"discountPercent"`
	DiscountAmount     decimal.Decimal `json:"discountAmount" bson:"discountAmount"`
	TaxEnabled         bool            `json:"taxEnabled" bson:"taxEnabled"`
	TaxRate            decimal.Decimal `json:"taxRate" bson:"taxRate"`
	TaxAmount          decimal.Decimal `json:"taxAmount" bson:"taxAmount"`
	Total              decimal.Decimal `json:"total" bson:"total"`
	AmountPaid         decimal.Decimal `json:"amountPaid" bson:"amountPaid"`
	Status             SaleStatus      `json:"status" bson:"status"`
	PaymentHistory     []PaymentRecord `json:"paymentHistory" bson:"paymentHistory"`
	PaymentTerms       `bson:",inline"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// PaymentTerms are the optional payment instructions printed on an invoice.
type PaymentTerms struct {
	DueDate       *time.Time `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty" bson:"paymentMethod,omitempty"`
	BankName      string     `json:"bankName,omitempty" bson:"bankName,omitempty"`
	AccountNumber string     `json:"accountNumber,omitempty" bson:"accountNumber,omitempty"`
	AccountHolder string     `json:"accountHolder,omitempty" bson:"accountHolder,omitempty"`
}

// Remaining is the unpaid balance.
func (s *Sale) Remaining() decimal.Decimal {
	return s.Total.Sub(s.AmountPaid)
}

// derivedStatus is Paid once nothing remains.
func (s *Sale) derivedStatus() SaleStatus {
	if s.Remaining().LessThanOrEqual(decimal.Zero) {
		return SaleStatusPaid
	}
	return SaleStatusUnpaid
}

type SaleLineItem struct {
	ID                string          `json:"id" bson:"_id"`
	SaleID            string          `json:"saleId" bson:"saleId"`
	SupplierProductID string          `json:"supplierProductId" bson:"supplierProductId"`
	Qty               int64           `json:"qty" bson:"qty"`
	UnitPrice         decimal.Decimal `json:"unitPrice" bson:"unitPrice"`
	Subtotal          decimal.Decimal `json:"subtotal" bson:"subtotal"`
	Position          int             `json:"position" bson:"position"`
}

// PaymentRecord is append-only.
type PaymentRecord struct {
	Date       time.Time       `json:"date" bson:"date"`
	Amount     decimal.Decimal `json:"amount" bson:"amount"`
	Method     string          `json:"method" bson:"method"`
	PayerName  string          `json:"payerName" bson:"payerName"`
	RecordedAt time.Time       `json:"recordedAt" bson:"recordedAt"`
}

// SaleDetail is a sale with its line items and customer name joined.
type SaleDetail struct {
	Sale
	CustomerName string           `json:"customerName"`
	Items        []SaleLineDetail `json:"items"`
}

type SaleLineDetail struct {
	SaleLineItem
	ProductName string `json:"productName"`
	Unit        string `json:"unit"`
}

// SaleLineInput is one requested line. A zero UnitPrice means the supplier
// product's sell price.
type SaleLineInput struct {
	SupplierProductID string          `json:"supplierProductId"`
	Qty               int64           `json:"qty"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
}

type SaleInput struct {
	CustomerID      string
	Date            time.Time
	Notes           string
	Items           []SaleLineInput
	DiscountPercent decimal.Decimal
	TaxEnabled      bool
	PaymentTerms    PaymentTerms
}

// SalePatch updates a sale. Nil fields are left alone; a non-nil Items
// replaces every line item and rebalances stock.
type SalePatch struct {
	Items           *[]SaleLineInput
	Status          *SaleStatus
	Notes           *string
	Date            *time.Time
	DiscountPercent *decimal.Decimal
	TaxEnabled      *bool
	PaymentTerms    *PaymentTerms
}

type SaleFilter struct {
	CustomerID string
	Status     SaleStatus
	From, To   time.Time // inclusive day range on Sale.Date; zero means open
}

// SaleTotals is the money breakdown of a sale.
type SaleTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ComputeSaleTotals applies the discount to the subtotal and tax to what is
// left: total = subtotal − discount + tax. Amounts are rounded to 2 places.
func ComputeSaleTotals(subtotal, discountPercent decimal.Decimal, taxEnabled bool, taxRate decimal.Decimal) SaleTotals {
	discount := subtotal.Mul(discountPercent).Div(hundred).Round(2)
	taxable := subtotal.Sub(discount)
	tax := decimal.Zero
	if taxEnabled {
		tax = taxable.Mul(taxRate).Round(2)
	}
	return SaleTotals{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          taxable.Add(tax).Round(2),
	}
}

// SaleService manages sales and the stock they consume.
type SaleService interface {
	// CreateSale validates stock for every line and, in one transaction,
	// writes the sale, its line items and counters and decrements stock.
	CreateSale(ctx context.Context, input SaleInput) (*SaleDetail, error)
	// UpdateSale patches a sale. Replacing items restores the old quantities
	// and takes the new ones in the same transaction.
	UpdateSale(ctx context.Context, id string, patch SalePatch) (*SaleDetail, error)
	// CancelSale restores stock and marks the sale Cancelled. Cancelling twice
	// fails with ErrAlreadyCancelled.
	CancelSale(ctx context.Context, id string) (*SaleDetail, error)
	// DeleteSale removes a sale and its items, restoring stock unless the
	// sale was already cancelled.
	DeleteSale(ctx context.Context, id string) error
	GetSale(ctx context.Context, id string) (*SaleDetail, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]SaleDetail, error)
}
