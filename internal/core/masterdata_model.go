package core

import (
	"context"

	"github.com/shopspring/decimal"
)

type ProductInput struct {
	Name     string
	Unit     string
	Category string
}

type SupplierInput struct {
	Code    string
	Name    string
	Address string
	Phone   string
}

// supplierCodeClaim reserves a supplier code. Its document ID is the code.
type supplierCodeClaim struct {
	SupplierID string `json:"supplierId" bson:"supplierId"`
	Name       string `json:"name" bson:"name"`
}

// SupplierProductInput lists a product under a supplier. InitialStock seeds
// the pairing's stock and defaults to 0.
type SupplierProductInput struct {
	SupplierID   string
	ProductID    string
	BuyPrice     decimal.Decimal
	SellPrice    decimal.Decimal
	InitialStock int64
}

type CustomerInput struct {
	Name      string
	StoreName string
	NIB       string
	Address   string
	Phone     string
	Email     string
}

type SupplierProductFilter struct {
	SupplierID string
	ProductID  string
}

// MasterDataService manages the catalog and the parties the ledger trades with.
type MasterDataService interface {
	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)

	CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error)
	GetSupplier(ctx context.Context, id string) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)

	CreateSupplierProduct(ctx context.Context, input SupplierProductInput) (*SupplierProduct, error)
	GetSupplierProduct(ctx context.Context, id string) (*SupplierProduct, error)
	ListSupplierProducts(ctx context.Context, filter SupplierProductFilter) ([]SupplierProduct, error)

	CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	// SetCustomerStatus toggles a customer between aktif and nonaktif.
	SetCustomerStatus(ctx context.Context, id string, status CustomerStatus) (*Customer, error)
}
