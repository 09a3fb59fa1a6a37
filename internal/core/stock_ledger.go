package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"trade-ledger/internal/logger"
	"trade-ledger/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StockLevel is one supplier product's stock joined with master data.
type StockLevel struct {
	SupplierProductID string          `json:"supplierProductId"`
	ProductID         string          `json:"productId"`
	ProductCode       string          `json:"productCode"`
	ProductName       string          `json:"productName"`
	Unit              string          `json:"unit"`
	SupplierID        string          `json:"supplierId"`
	SupplierName      string          `json:"supplierName"`
	BuyPrice          decimal.Decimal `json:"buyPrice"`
	SellPrice         decimal.Decimal `json:"sellPrice"`
	Stock             int64           `json:"stock"`
}

// StockPlan is built in a transaction's read phase. Take, Release and
// Receive validate and record movements against the loaded stock; Apply
// issues them as atomic increments in the write phase.
type StockPlan struct {
	items     map[string]*SupplierProduct
	names     map[string]string
	units     map[string]string
	available map[string]int64
	taken     map[string]int64
	moves     []stockMove
}

type stockMove struct {
	id    string
	delta int64
}

// SupplierProduct returns a loaded supplier product, or nil.
func (p *StockPlan) SupplierProduct(id string) *SupplierProduct { return p.items[id] }

// ProductName returns the display name of the product behind a supplier product.
func (p *StockPlan) ProductName(id string) string { return p.names[id] }

// Unit returns the product unit behind a supplier product.
func (p *StockPlan) Unit(id string) string { return p.units[id] }

// Available is the stock left for id after the movements planned so far.
func (p *StockPlan) Available(id string) int64 { return p.available[id] }

// Take plans a decrement. It fails with InsufficientStockError when qty is
// more than what is available, counting stock released earlier in the plan.
// The error reports the stock on hand for the whole request and the summed
// quantity of every take of id, so repeated lines read as one request.
func (p *StockPlan) Take(id string, qty int64) error {
	if err := p.check(id, qty); err != nil {
		return err
	}
	if p.available[id] < qty {
		return &InsufficientStockError{
			SupplierProductID: id,
			ProductName:       p.names[id],
			RemainingStock:    p.available[id] + p.taken[id],
			Requested:         p.taken[id] + qty,
		}
	}
	p.available[id] -= qty
	p.taken[id] += qty
	p.moves = append(p.moves, stockMove{id: id, delta: -qty})
	return nil
}

// Release plans the return of previously taken stock.
func (p *StockPlan) Release(id string, qty int64) error {
	if err := p.check(id, qty); err != nil {
		return err
	}
	p.available[id] += qty
	p.moves = append(p.moves, stockMove{id: id, delta: qty})
	return nil
}

// Receive plans incoming stock from a purchase.
func (p *StockPlan) Receive(id string, qty int64) error {
	return p.Release(id, qty)
}

func (p *StockPlan) check(id string, qty int64) error {
	if _, ok := p.items[id]; !ok {
		return fmt.Errorf("supplier product %s was not loaded in this transaction", id)
	}
	if qty <= 0 {
		return invalid("qty", "must be greater than zero")
	}
	return nil
}

// Apply writes every planned movement, in plan order, as an atomic increment.
func (p *StockPlan) Apply(ctx context.Context, tx store.Tx) error {
	for _, m := range p.moves {
		if err := tx.Increment(ctx, CollSupplierProducts, m.id, "stock", m.delta); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("supplier product", m.id)
			}
			return fmt.Errorf("failed to move stock of %s by %d: %w", m.id, m.delta, err)
		}
	}
	return nil
}

// StockLedger owns SupplierProduct.stock.
type StockLedger interface {
	// Plan loads the given supplier products and their product names inside tx.
	Plan(ctx context.Context, tx store.Tx, supplierProductIDs []string) (*StockPlan, error)
	// Adjust corrects the stock of one supplier product, e.g. after a stock take.
	Adjust(ctx context.Context, supplierProductID string, delta int64, reason string) (*SupplierProduct, error)
	// Levels returns every supplier product's stock with names joined.
	Levels(ctx context.Context) ([]StockLevel, error)
}

type stockLedger struct {
	tx  *TxRunner
	log zerolog.Logger
}

// NewStockLedger constructs a StockLedger.
func NewStockLedger(tx *TxRunner) StockLedger {
	return &stockLedger{tx: tx, log: logger.WithComponent("stock")}
}

func (l *stockLedger) Plan(ctx context.Context, tx store.Tx, supplierProductIDs []string) (*StockPlan, error) {
	p := &StockPlan{
		items:     make(map[string]*SupplierProduct),
		names:     make(map[string]string),
		units:     make(map[string]string),
		available: make(map[string]int64),
		taken:     make(map[string]int64),
	}
	for _, id := range supplierProductIDs {
		if _, seen := p.items[id]; seen {
			continue
		}
		var sp SupplierProduct
		if err := tx.Get(ctx, CollSupplierProducts, id, &sp); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, notFound("supplier product", id)
			}
			return nil, fmt.Errorf("failed to read supplier product %s: %w", id, err)
		}
		p.items[id] = &sp
		p.available[id] = sp.Stock
	}

	for id, sp := range p.items {
		var prod Product
		err := tx.Get(ctx, CollProducts, sp.ProductID, &prod)
		switch {
		case err == nil:
			p.names[id] = prod.Name
			p.units[id] = prod.Unit
		case errors.Is(err, store.ErrNotFound):
			p.names[id] = UnknownProductLabel
		default:
			return nil, fmt.Errorf("failed to read product %s: %w", sp.ProductID, err)
		}
	}
	return p, nil
}

func (l *stockLedger) Adjust(ctx context.Context, supplierProductID string, delta int64, reason string) (*SupplierProduct, error) {
	if delta == 0 {
		return nil, invalid("delta", "must not be zero")
	}
	if reason == "" {
		return nil, invalid("reason", "is required")
	}

	err := l.tx.Run(ctx, "stock.adjust", func(ctx context.Context, tx store.Tx) error {
		plan, err := l.Plan(ctx, tx, []string{supplierProductID})
		if err != nil {
			return err
		}
		if delta < 0 {
			err = plan.Take(supplierProductID, -delta)
		} else {
			err = plan.Receive(supplierProductID, delta)
		}
		if err != nil {
			return err
		}
		return plan.Apply(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info().Str("supplier_product_id", supplierProductID).Int64("delta", delta).Str("reason", reason).Msg("stock adjusted")

	var sp SupplierProduct
	if err := l.tx.Store().Get(ctx, CollSupplierProducts, supplierProductID, &sp); err != nil {
		return nil, fmt.Errorf("failed to reload supplier product: %w", err)
	}
	return &sp, nil
}

func (l *stockLedger) Levels(ctx context.Context) ([]StockLevel, error) {
	s := l.tx.Store()
	var sps []SupplierProduct
	if err := s.Query(ctx, CollSupplierProducts, store.Query{}, &sps); err != nil {
		return nil, fmt.Errorf("failed to list supplier products: %w", err)
	}
	products, err := productIndex(ctx, s)
	if err != nil {
		return nil, err
	}
	suppliers, err := supplierIndex(ctx, s)
	if err != nil {
		return nil, err
	}

	levels := make([]StockLevel, 0, len(sps))
	for _, sp := range sps {
		lvl := StockLevel{
			SupplierProductID: sp.ID,
			ProductID:         sp.ProductID,
			ProductName:       UnknownProductLabel,
			SupplierID:        sp.SupplierID,
			SupplierName:      UnknownSupplierLabel,
			BuyPrice:          sp.BuyPrice,
			SellPrice:         sp.SellPrice,
			Stock:             sp.Stock,
		}
		if p, ok := products[sp.ProductID]; ok {
			lvl.ProductCode = p.Code
			lvl.ProductName = p.Name
			lvl.Unit = p.Unit
		}
		if sup, ok := suppliers[sp.SupplierID]; ok {
			lvl.SupplierName = sup.Name
		}
		levels = append(levels, lvl)
	}
	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].ProductName != levels[j].ProductName {
			return levels[i].ProductName < levels[j].ProductName
		}
		return levels[i].SupplierName < levels[j].SupplierName
	})
	return levels, nil
}

// ── Read-side indexes ─────────────────────────────────────────────────────────

func productIndex(ctx context.Context, s store.Reader) (map[string]Product, error) {
	var products []Product
	if err := s.Query(ctx, CollProducts, store.Query{}, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	m := make(map[string]Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m, nil
}

func supplierIndex(ctx context.Context, s store.Reader) (map[string]Supplier, error) {
	var suppliers []Supplier
	if err := s.Query(ctx, CollSuppliers, store.Query{}, &suppliers); err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	m := make(map[string]Supplier, len(suppliers))
	for _, sp := range suppliers {
		m[sp.ID] = sp
	}
	return m, nil
}

func customerIndex(ctx context.Context, s store.Reader) (map[string]Customer, error) {
	var customers []Customer
	if err := s.Query(ctx, CollCustomers, store.Query{}, &customers); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	m := make(map[string]Customer, len(customers))
	for _, c := range customers {
		m[c.ID] = c
	}
	return m, nil
}

func supplierProductIndex(ctx context.Context, s store.Reader) (map[string]SupplierProduct, error) {
	var sps []SupplierProduct
	if err := s.Query(ctx, CollSupplierProducts, store.Query{}, &sps); err != nil {
		return nil, fmt.Errorf("failed to list supplier products: %w", err)
	}
	m := make(map[string]SupplierProduct, len(sps))
	for _, sp := range sps {
		m[sp.ID] = sp
	}
	return m, nil
}
