package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"trade-ledger/internal/logger"
	"trade-ledger/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type purchaseService struct {
	tx    *TxRunner
	stock StockLedger
	log   zerolog.Logger
	now   func() time.Time
}

// NewPurchaseService constructs a PurchaseService.
func NewPurchaseService(tx *TxRunner, stock StockLedger) PurchaseService {
	return &purchaseService{
		tx:    tx,
		stock: stock,
		log:   logger.WithComponent("purchases"),
		now:   time.Now,
	}
}

func (s *purchaseService) CreatePurchase(ctx context.Context, input PurchaseInput) (*PurchaseDetail, error) {
	if input.SupplierID == "" {
		return nil, invalid("supplierId", "a supplier must be selected")
	}
	if len(input.Items) == 0 {
		return nil, invalid("items", "at least one item is required")
	}
	for i, it := range input.Items {
		if it.SupplierProductID == "" {
			return nil, invalid(fmt.Sprintf("items[%d].supplierProductId", i), "is required")
		}
		if it.Qty <= 0 {
			return nil, invalid(fmt.Sprintf("items[%d].qty", i), "must be greater than zero")
		}
		if it.UnitPrice.IsNegative() {
			return nil, invalid(fmt.Sprintf("items[%d].unitPrice", i), "must not be negative")
		}
	}
	status := input.Status
	if status == "" {
		status = PurchaseStatusPending
	}
	if status != PurchaseStatusPending && status != PurchaseStatusCompleted {
		return nil, invalid("status", "must be %s or %s", PurchaseStatusPending, PurchaseStatusCompleted)
	}
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	date = calendarDay(date)
	purchaseID := uuid.NewString()

	err := s.tx.Run(ctx, "purchase.create", func(ctx context.Context, tx store.Tx) error {
		var sup Supplier
		if err := tx.Get(ctx, CollSuppliers, input.SupplierID, &sup); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("supplier", input.SupplierID)
			}
			return fmt.Errorf("failed to read supplier: %w", err)
		}

		ids := make([]string, 0, len(input.Items))
		for _, it := range input.Items {
			ids = append(ids, it.SupplierProductID)
		}
		plan, err := s.stock.Plan(ctx, tx, ids)
		if err != nil {
			return err
		}
		for i, it := range input.Items {
			if sp := plan.SupplierProduct(it.SupplierProductID); sp.SupplierID != input.SupplierID {
				return invalid(fmt.Sprintf("items[%d].supplierProductId", i),
					"%s is not supplied by %s", it.SupplierProductID, sup.Name)
			}
			if status == PurchaseStatusCompleted {
				if err := plan.Receive(it.SupplierProductID, it.Qty); err != nil {
					return err
				}
			}
		}

		// All reads done.
		now := s.now().UTC()
		total := decimal.Zero
		lines := make([]PurchaseLineItem, 0, len(input.Items))
		for i, it := range input.Items {
			price := it.UnitPrice
			if price.IsZero() {
				price = plan.SupplierProduct(it.SupplierProductID).BuyPrice
			}
			l := PurchaseLineItem{
				ID:                uuid.NewString(),
				PurchaseID:        purchaseID,
				SupplierProductID: it.SupplierProductID,
				Qty:               it.Qty,
				UnitPrice:         price,
				Subtotal:          price.Mul(decimal.NewFromInt(it.Qty)),
				Position:          i,
			}
			total = total.Add(l.Subtotal)
			lines = append(lines, l)
		}

		p := Purchase{
			ID:            purchaseID,
			SupplierID:    input.SupplierID,
			Date:          date,
			DeliveryNote:  input.DeliveryNote,
			ReceiptNote:   input.ReceiptNote,
			InvoiceNumber: input.InvoiceNumber,
			Total:         total.Round(2),
			Status:        status,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if status == PurchaseStatusCompleted {
			p.CompletedAt = &now
		}
		if err := tx.Set(ctx, CollPurchases, p.ID, p); err != nil {
			return fmt.Errorf("failed to write purchase: %w", err)
		}
		for _, l := range lines {
			if err := tx.Set(ctx, CollPurchaseItems, l.ID, l); err != nil {
				return fmt.Errorf("failed to write purchase item: %w", err)
			}
		}
		return plan.Apply(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("purchase_id", purchaseID).Str("status", string(status)).Int("items", len(input.Items)).Msg("purchase created")
	return s.GetPurchase(ctx, purchaseID)
}

func (s *purchaseService) CompleteReceipt(ctx context.Context, id string, fields ReceiptFields) (*PurchaseDetail, error) {
	err := s.tx.Run(ctx, "purchase.receive", func(ctx context.Context, tx store.Tx) error {
		p, err := readPurchase(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Status == PurchaseStatusCompleted {
			return fmt.Errorf("purchase %s: %w", id, ErrAlreadyCompleted)
		}
		lines, err := readPurchaseLines(ctx, tx, id)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.SupplierProductID)
		}
		plan, err := s.stock.Plan(ctx, tx, ids)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := plan.Receive(l.SupplierProductID, l.Qty); err != nil {
				return err
			}
		}

		// All reads done.
		now := s.now().UTC()
		if fields.DeliveryNote != "" {
			p.DeliveryNote = fields.DeliveryNote
		}
		if fields.ReceiptNote != "" {
			p.ReceiptNote = fields.ReceiptNote
		}
		if fields.InvoiceNumber != "" {
			p.InvoiceNumber = fields.InvoiceNumber
		}
		p.Status = PurchaseStatusCompleted
		p.CompletedAt = &now
		p.UpdatedAt = now
		if err := tx.Set(ctx, CollPurchases, p.ID, p); err != nil {
			return fmt.Errorf("failed to write purchase: %w", err)
		}
		return plan.Apply(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("purchase_id", id).Msg("purchase received")
	return s.GetPurchase(ctx, id)
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (*PurchaseDetail, error) {
	r := s.tx.Store()
	p, err := readPurchase(ctx, r, id)
	if err != nil {
		return nil, err
	}
	lines, err := readPurchaseLines(ctx, r, id)
	if err != nil {
		return nil, err
	}
	return joinPurchase(ctx, newLookup(r), p, lines)
}

func (s *purchaseService) ListPurchases(ctx context.Context, filter PurchaseFilter) ([]PurchaseDetail, error) {
	r := s.tx.Store()
	q := store.Query{}
	if filter.SupplierID != "" {
		q = q.And("supplierId", filter.SupplierID)
	}
	if filter.Status != "" {
		q = q.And("status", string(filter.Status))
	}
	var purchases []Purchase
	if err := r.Query(ctx, CollPurchases, q, &purchases); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	var all []PurchaseLineItem
	if len(purchases) > 0 {
		if err := r.Query(ctx, CollPurchaseItems, store.Query{}, &all); err != nil {
			return nil, fmt.Errorf("failed to list purchase items: %w", err)
		}
	}
	byPurchase := make(map[string][]PurchaseLineItem)
	for _, l := range all {
		byPurchase[l.PurchaseID] = append(byPurchase[l.PurchaseID], l)
	}

	lk := newLookup(r)
	out := make([]PurchaseDetail, 0, len(purchases))
	for i := range purchases {
		if !inDayRange(purchases[i].Date, filter.From, filter.To) {
			continue
		}
		lines := byPurchase[purchases[i].ID]
		sortPurchaseLines(lines)
		d, err := joinPurchase(ctx, lk, &purchases[i], lines)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func readPurchase(ctx context.Context, r store.Reader, id string) (*Purchase, error) {
	var p Purchase
	if err := r.Get(ctx, CollPurchases, id, &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("purchase", id)
		}
		return nil, fmt.Errorf("failed to read purchase %s: %w", id, err)
	}
	return &p, nil
}

func readPurchaseLines(ctx context.Context, r store.Reader, purchaseID string) ([]PurchaseLineItem, error) {
	var lines []PurchaseLineItem
	if err := r.Query(ctx, CollPurchaseItems, store.Where("purchaseId", purchaseID), &lines); err != nil {
		return nil, fmt.Errorf("failed to read items of purchase %s: %w", purchaseID, err)
	}
	sortPurchaseLines(lines)
	return lines, nil
}

func sortPurchaseLines(lines []PurchaseLineItem) {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })
}

func joinPurchase(ctx context.Context, lk *lookup, p *Purchase, lines []PurchaseLineItem) (*PurchaseDetail, error) {
	name, err := lk.supplierName(ctx, p.SupplierID)
	if err != nil {
		return nil, err
	}
	d := &PurchaseDetail{Purchase: *p, SupplierName: name, Items: make([]PurchaseLineDetail, 0, len(lines))}
	for _, l := range lines {
		pname, unit, err := lk.productOf(ctx, l.SupplierProductID)
		if err != nil {
			return nil, err
		}
		d.Items = append(d.Items, PurchaseLineDetail{PurchaseLineItem: l, ProductName: pname, Unit: unit})
	}
	return d, nil
}
