package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection names in the document store.
const (
	CollProducts         = "products"
	CollSuppliers        = "suppliers"
	CollSupplierProducts = "supplierProducts"
	CollCustomers        = "customers"
	CollSales            = "sales"
	CollSaleItems        = "saleItems"
	CollPurchases        = "purchases"
	CollPurchaseItems    = "purchaseItems"
	CollCounters         = "counters"
	CollSettings         = "settings"
	CollSupplierCodes    = "supplierCodes"
)

// Placeholder labels used by read-side joins when related master data is gone.
const (
	UnknownCustomerLabel = "Pelanggan tidak ditemukan"
	UnknownSupplierLabel = "Unknown"
	UnknownProductLabel  = "Produk Tidak Ditemukan"
)

type SaleStatus string

const (
	SaleStatusUnpaid    SaleStatus = "Unpaid"
	SaleStatusPaid      SaleStatus = "Paid"
	SaleStatusCancelled SaleStatus = "Cancelled"
)

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "Pending"
	PurchaseStatusCompleted PurchaseStatus = "Completed"
)

type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "aktif"
	CustomerInactive CustomerStatus = "nonaktif"
)

// Product is a catalog item. Stock is not tracked here but per SupplierProduct.
type Product struct {
	ID            string    `json:"id" bson:"_id"`
	ProductNumber string    `json:"productNumber" bson:"productNumber"` // PRD-00001
	Code          string    `json:"code" bson:"code"`                   // SKU-00001
	Name          string    `json:"name" bson:"name"`
	Unit          string    `json:"unit" bson:"unit"`
	Category      string    `json:"category" bson:"category"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Supplier struct {
	ID        string    `json:"id" bson:"_id"`
	Code      string    `json:"code" bson:"code"`
	Name      string    `json:"name" bson:"name"`
	Address   string    `json:"address" bson:"address"`
	Phone     string    `json:"phone" bson:"phone"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SupplierProduct is one supplier's listing of a product. Stock is the
// authoritative quantity on hand for the pairing and is never negative.
type SupplierProduct struct {
	ID         string          `json:"id" bson:"_id"`
	SupplierID string          `json:"supplierId" bson:"supplierId"`
	ProductID  string          `json:"productId" bson:"productId"`
	BuyPrice   decimal.Decimal `json:"buyPrice" bson:"buyPrice"`
	SellPrice  decimal.Decimal `json:"sellPrice" bson:"sellPrice"`
	Stock      int64           `json:"stock" bson:"stock"`
	CreatedAt  time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt" bson:"updatedAt"`
}

type Customer struct {
	ID             string         `json:"id" bson:"_id"`
	CustomerNumber string         `json:"customerNumber" bson:"customerNumber"`
	Code           string         `json:"code" bson:"code"`
	Name           string         `json:"name" bson:"name"`
	StoreName      string         `json:"storeName" bson:"storeName"`
	NIB            string         `json:"nib" bson:"nib"`
	Address        string         `json:"address" bson:"address"`
	Phone          string         `json:"phone" bson:"phone"`
	Email          string         `json:"email,omitempty" bson:"email,omitempty"`
	Status         CustomerStatus `json:"status" bson:"status"`
	CreatedAt      time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// Counter backs one named sequence.
type Counter struct {
	Name       string `json:"name" bson:"_id"`
	LastNumber int64  `json:"lastNumber" bson:"lastNumber"`
}

// Setting is a runtime override. For a given key the highest priority wins.
type Setting struct {
	ID        string    `json:"id" bson:"_id"`
	Key       string    `json:"key" bson:"key"`
	Value     string    `json:"value" bson:"value"`
	Priority  int       `json:"priority" bson:"priority"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// calendarDay maps t to midnight UTC of the day t falls on in its own zone.
// Document dates are stored this way so the invoice stamp and day-range
// filters agree regardless of the server's zone.
func calendarDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
