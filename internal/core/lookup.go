package core

import (
	"context"
	"errors"
	"fmt"

	"trade-ledger/internal/store"
)

// lookup resolves related master data for read-side joins. Results, misses
// included, are cached for the lifetime of one request. A missing document
// never fails the read; callers substitute a placeholder label.
type lookup struct {
	r                store.Reader
	customers        map[string]*Customer
	suppliers        map[string]*Supplier
	products         map[string]*Product
	supplierProducts map[string]*SupplierProduct
}

func newLookup(r store.Reader) *lookup {
	return &lookup{
		r:                r,
		customers:        make(map[string]*Customer),
		suppliers:        make(map[string]*Supplier),
		products:         make(map[string]*Product),
		supplierProducts: make(map[string]*SupplierProduct),
	}
}

// fetch reads one document into a fresh T, returning nil when it is missing.
func fetch[T any](ctx context.Context, r store.Reader, cache map[string]*T, coll, id string) (*T, error) {
	if v, ok := cache[id]; ok {
		return v, nil
	}
	v := new(T)
	err := r.Get(ctx, coll, id, v)
	switch {
	case errors.Is(err, store.ErrNotFound):
		v = nil
	case err != nil:
		return nil, fmt.Errorf("failed to read %s %s: %w", coll, id, err)
	}
	cache[id] = v
	return v, nil
}

func (l *lookup) customerName(ctx context.Context, id string) (string, error) {
	c, err := fetch(ctx, l.r, l.customers, CollCustomers, id)
	if err != nil {
		return "", err
	}
	if c == nil {
		return UnknownCustomerLabel, nil
	}
	return c.Name, nil
}

func (l *lookup) supplierName(ctx context.Context, id string) (string, error) {
	s, err := fetch(ctx, l.r, l.suppliers, CollSuppliers, id)
	if err != nil {
		return "", err
	}
	if s == nil {
		return UnknownSupplierLabel, nil
	}
	return s.Name, nil
}

// productOf returns the product name and unit behind a supplier product.
func (l *lookup) productOf(ctx context.Context, supplierProductID string) (name, unit string, err error) {
	sp, err := fetch(ctx, l.r, l.supplierProducts, CollSupplierProducts, supplierProductID)
	if err != nil {
		return "", "", err
	}
	if sp == nil {
		return UnknownProductLabel, "", nil
	}
	p, err := fetch(ctx, l.r, l.products, CollProducts, sp.ProductID)
	if err != nil {
		return "", "", err
	}
	if p == nil {
		return UnknownProductLabel, "", nil
	}
	return p.Name, p.Unit, nil
}
