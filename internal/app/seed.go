package app

import (
	"context"
	"fmt"

	"trade-ledger/internal/core"

	"github.com/shopspring/decimal"
)

type seedListing struct {
	product   int
	supplier  int
	buyPrice  int64
	sellPrice int64
	stock     int64
}

var (
	seedProducts = []core.ProductInput{
		{Name: "Semen Gresik 40kg", Unit: "sak", Category: "Semen"},
		{Name: "Semen Tiga Roda 50kg", Unit: "sak", Category: "Semen"},
		{Name: "Besi Beton 10mm", Unit: "batang", Category: "Besi"},
		{Name: "Paku 5cm", Unit: "kg", Category: "Paku"},
		{Name: "Cat Tembok Putih 5kg", Unit: "pail", Category: "Cat"},
	}
	seedSuppliers = []core.SupplierInput{
		{Code: "SUP-001", Name: "PT Bangun Abadi", Address: "Jl. Raya Industri 12, Surabaya", Phone: "031-555-0101"},
		{Code: "SUP-002", Name: "CV Sinar Logam", Address: "Jl. Veteran 8, Semarang", Phone: "024-555-0202"},
	}
	seedListings = []seedListing{
		{product: 0, supplier: 0, buyPrice: 48000, sellPrice: 52000, stock: 200},
		{product: 1, supplier: 0, buyPrice: 56000, sellPrice: 61000, stock: 120},
		{product: 2, supplier: 1, buyPrice: 72000, sellPrice: 80000, stock: 300},
		{product: 3, supplier: 1, buyPrice: 18000, sellPrice: 21000, stock: 8},
		{product: 4, supplier: 0, buyPrice: 95000, sellPrice: 110000, stock: 25},
		{product: 0, supplier: 1, buyPrice: 47500, sellPrice: 52000, stock: 40},
	}
	seedCustomers = []core.CustomerInput{
		{Name: "Budi Santoso", StoreName: "Toko Maju Jaya", Address: "Jl. Pahlawan 3, Sidoarjo", Phone: "0812-0000-1111"},
		{Name: "Siti Rahma", StoreName: "UD Sumber Rejeki", Address: "Jl. Diponegoro 45, Gresik", Phone: "0813-0000-2222"},
		{Name: "Agus Wijaya", Phone: "0815-0000-3333"},
	}
)

func (s *appService) Seed(ctx context.Context) (*SeedResult, error) {
	existing, err := s.master.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &SeedResult{Skipped: true}, nil
	}

	res := &SeedResult{}
	products := make([]*core.Product, len(seedProducts))
	for i, in := range seedProducts {
		p, err := s.master.CreateProduct(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("failed to seed product %q: %w", in.Name, err)
		}
		products[i] = p
		res.Products++
	}

	suppliers := make([]*core.Supplier, len(seedSuppliers))
	for i, in := range seedSuppliers {
		sup, err := s.master.CreateSupplier(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("failed to seed supplier %q: %w", in.Code, err)
		}
		suppliers[i] = sup
		res.Suppliers++
	}

	for _, l := range seedListings {
		_, err := s.master.CreateSupplierProduct(ctx, core.SupplierProductInput{
			SupplierID:   suppliers[l.supplier].ID,
			ProductID:    products[l.product].ID,
			BuyPrice:     decimal.NewFromInt(l.buyPrice),
			SellPrice:    decimal.NewFromInt(l.sellPrice),
			InitialStock: l.stock,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed listing for %q: %w", products[l.product].Name, err)
		}
		res.SupplierProducts++
	}

	for _, in := range seedCustomers {
		if _, err := s.master.CreateCustomer(ctx, in); err != nil {
			return nil, fmt.Errorf("failed to seed customer %q: %w", in.Name, err)
		}
		res.Customers++
	}
	return res, nil
}
