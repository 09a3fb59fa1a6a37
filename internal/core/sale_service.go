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

type saleService struct {
	tx       *TxRunner
	stock    StockLedger
	settings SettingsResolver
	log      zerolog.Logger
	now      func() time.Time
}

// NewSaleService constructs a SaleService.
func NewSaleService(tx *TxRunner, stock StockLedger, settings SettingsResolver) SaleService {
	return &saleService{
		tx:       tx,
		stock:    stock,
		settings: settings,
		log:      logger.WithComponent("sales"),
		now:      time.Now,
	}
}

// ── Validation ────────────────────────────────────────────────────────────────

func validateSaleLines(items []SaleLineInput) error {
	if len(items) == 0 {
		return invalid("items", "at least one item is required")
	}
	for i, it := range items {
		if it.SupplierProductID == "" {
			return invalid(fmt.Sprintf("items[%d].supplierProductId", i), "is required")
		}
		if it.Qty <= 0 {
			return invalid(fmt.Sprintf("items[%d].qty", i), "must be greater than zero")
		}
		if it.UnitPrice.IsNegative() {
			return invalid(fmt.Sprintf("items[%d].unitPrice", i), "must not be negative")
		}
	}
	return nil
}

func validateDiscount(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return invalid("discountPercent", "must be between 0 and 100")
	}
	return nil
}

// ── Writes ────────────────────────────────────────────────────────────────────

func (s *saleService) CreateSale(ctx context.Context, input SaleInput) (*SaleDetail, error) {
	if input.CustomerID == "" {
		return nil, invalid("customerId", "a customer must be selected")
	}
	if err := validateSaleLines(input.Items); err != nil {
		return nil, err
	}
	if err := validateDiscount(input.DiscountPercent); err != nil {
		return nil, err
	}
	taxRate, err := s.settings.TaxRate(ctx)
	if err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	date = calendarDay(date)
	saleID := uuid.NewString()

	err = s.tx.Run(ctx, "sale.create", func(ctx context.Context, tx store.Tx) error {
		var cust Customer
		if err := tx.Get(ctx, CollCustomers, input.CustomerID, &cust); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("customer", input.CustomerID)
			}
			return fmt.Errorf("failed to read customer: %w", err)
		}

		plan, err := s.stock.Plan(ctx, tx, saleLineIDs(input.Items))
		if err != nil {
			return err
		}
		for _, it := range input.Items {
			if err := plan.Take(it.SupplierProductID, it.Qty); err != nil {
				return err
			}
		}

		invoice, err := ClaimSequence(ctx, tx, SeqInvoice)
		if err != nil {
			return err
		}
		delivery, err := ClaimSequence(ctx, tx, SeqDeliveryNote)
		if err != nil {
			return err
		}

		// All reads done.
		now := s.now().UTC()
		lines := buildSaleLines(saleID, input.Items, plan)
		totals := ComputeSaleTotals(sumSaleLines(lines), input.DiscountPercent, input.TaxEnabled, taxRate)

		sale := Sale{
			ID:                 saleID,
			CustomerID:         input.CustomerID,
			Date:               date,
			Notes:              input.Notes,
			InvoiceNumber:      invoice.Format(date),
			DeliveryNoteNumber: delivery.Format(date),
			Subtotal:           totals.Subtotal,
			DiscountPercent:    input.DiscountPercent,
			DiscountAmount:     totals.DiscountAmount,
			TaxEnabled:         input.TaxEnabled,
			TaxRate:            taxRate,
			TaxAmount:          totals.TaxAmount,
			Total:              totals.Total,
			AmountPaid:         decimal.Zero,
			PaymentHistory:     []PaymentRecord{},
			PaymentTerms:       input.PaymentTerms,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		sale.Status = sale.derivedStatus()

		if err := tx.Set(ctx, CollSales, sale.ID, sale); err != nil {
			return fmt.Errorf("failed to write sale: %w", err)
		}
		for _, l := range lines {
			if err := tx.Set(ctx, CollSaleItems, l.ID, l); err != nil {
				return fmt.Errorf("failed to write sale item: %w", err)
			}
		}
		if err := invoice.Write(ctx, tx); err != nil {
			return err
		}
		if err := delivery.Write(ctx, tx); err != nil {
			return err
		}
		return plan.Apply(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("sale_id", saleID).Str("customer_id", input.CustomerID).Int("items", len(input.Items)).Msg("sale created")
	return s.GetSale(ctx, saleID)
}

func (s *saleService) UpdateSale(ctx context.Context, id string, patch SalePatch) (*SaleDetail, error) {
	if patch.Items != nil {
		if err := validateSaleLines(*patch.Items); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && *patch.Status != SaleStatusPaid && *patch.Status != SaleStatusUnpaid {
		return nil, invalid("status", "must be %s or %s; cancel the sale instead", SaleStatusPaid, SaleStatusUnpaid)
	}
	if patch.DiscountPercent != nil {
		if err := validateDiscount(*patch.DiscountPercent); err != nil {
			return nil, err
		}
	}
	recompute := patch.Items != nil || patch.DiscountPercent != nil || patch.TaxEnabled != nil
	taxRate := decimal.Zero
	if recompute {
		var err error
		if taxRate, err = s.settings.TaxRate(ctx); err != nil {
			return nil, err
		}
	}

	err := s.tx.Run(ctx, "sale.update", func(ctx context.Context, tx store.Tx) error {
		sale, err := readSale(ctx, tx, id)
		if err != nil {
			return err
		}
		if sale.Status == SaleStatusCancelled {
			return fmt.Errorf("sale %s: %w", id, ErrSaleCancelled)
		}
		oldLines, err := readSaleLines(ctx, tx, id)
		if err != nil {
			return err
		}

		var plan *StockPlan
		if patch.Items != nil {
			ids := saleLineIDs(*patch.Items)
			for _, l := range oldLines {
				ids = append(ids, l.SupplierProductID)
			}
			if plan, err = s.stock.Plan(ctx, tx, ids); err != nil {
				return err
			}
			for _, l := range oldLines {
				if err := plan.Release(l.SupplierProductID, l.Qty); err != nil {
					return err
				}
			}
			for _, it := range *patch.Items {
				if err := plan.Take(it.SupplierProductID, it.Qty); err != nil {
					return err
				}
			}
		}

		// All reads done.
		lines := oldLines
		if patch.Items != nil {
			lines = buildSaleLines(id, *patch.Items, plan)
		}
		if patch.Notes != nil {
			sale.Notes = *patch.Notes
		}
		if patch.Date != nil {
			sale.Date = calendarDay(*patch.Date)
		}
		if patch.PaymentTerms != nil {
			sale.PaymentTerms = *patch.PaymentTerms
		}
		if patch.DiscountPercent != nil {
			sale.DiscountPercent = *patch.DiscountPercent
		}
		if patch.TaxEnabled != nil {
			sale.TaxEnabled = *patch.TaxEnabled
		}
		if recompute {
			// Existing invoices keep the rate they were issued at; replacing
			// the items re-issues them at the current rate.
			rate := sale.TaxRate
			if patch.Items != nil || rate.IsZero() {
				rate = taxRate
			}
			totals := ComputeSaleTotals(sumSaleLines(lines), sale.DiscountPercent, sale.TaxEnabled, rate)
			if totals.Total.LessThan(sale.AmountPaid) {
				return invalid("items", "new total %s is below the %s already paid", totals.Total, sale.AmountPaid)
			}
			sale.Subtotal = totals.Subtotal
			sale.DiscountAmount = totals.DiscountAmount
			sale.TaxRate = rate
			sale.TaxAmount = totals.TaxAmount
			sale.Total = totals.Total
			sale.Status = sale.derivedStatus()
		}
		if patch.Status != nil {
			sale.Status = *patch.Status
		}
		sale.UpdatedAt = s.now().UTC()

		if patch.Items != nil {
			for _, l := range oldLines {
				if err := tx.Delete(ctx, CollSaleItems, l.ID); err != nil {
					return fmt.Errorf("failed to delete sale item: %w", err)
				}
			}
			for _, l := range lines {
				if err := tx.Set(ctx, CollSaleItems, l.ID, l); err != nil {
					return fmt.Errorf("failed to write sale item: %w", err)
				}
			}
		}
		if err := tx.Set(ctx, CollSales, sale.ID, sale); err != nil {
			return fmt.Errorf("failed to write sale: %w", err)
		}
		if plan != nil {
			return plan.Apply(ctx, tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("sale_id", id).Bool("items_replaced", patch.Items != nil).Msg("sale updated")
	return s.GetSale(ctx, id)
}

func (s *saleService) CancelSale(ctx context.Context, id string) (*SaleDetail, error) {
	var restored int
	err := s.tx.Run(ctx, "sale.cancel", func(ctx context.Context, tx store.Tx) error {
		sale, err := readSale(ctx, tx, id)
		if err != nil {
			return err
		}
		if sale.Status == SaleStatusCancelled {
			return fmt.Errorf("sale %s: %w", id, ErrAlreadyCancelled)
		}
		lines, err := readSaleLines(ctx, tx, id)
		if err != nil {
			return err
		}
		plan, err := s.releaseLines(ctx, tx, lines)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		sale.Status = SaleStatusCancelled
		sale.CancelledAt = &now
		sale.UpdatedAt = now
		if err := tx.Set(ctx, CollSales, sale.ID, sale); err != nil {
			return fmt.Errorf("failed to write sale: %w", err)
		}
		restored = len(lines)
		return plan.Apply(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("sale_id", id).Int("lines_restored", restored).Msg("sale cancelled")
	return s.GetSale(ctx, id)
}

func (s *saleService) DeleteSale(ctx context.Context, id string) error {
	err := s.tx.Run(ctx, "sale.delete", func(ctx context.Context, tx store.Tx) error {
		sale, err := readSale(ctx, tx, id)
		if err != nil {
			return err
		}
		lines, err := readSaleLines(ctx, tx, id)
		if err != nil {
			return err
		}
		// A cancelled sale already gave its stock back.
		var plan *StockPlan
		if sale.Status != SaleStatusCancelled {
			if plan, err = s.releaseLines(ctx, tx, lines); err != nil {
				return err
			}
		}

		for _, l := range lines {
			if err := tx.Delete(ctx, CollSaleItems, l.ID); err != nil {
				return fmt.Errorf("failed to delete sale item: %w", err)
			}
		}
		if err := tx.Delete(ctx, CollSales, id); err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}
		if plan != nil {
			return plan.Apply(ctx, tx)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Warn().Str("sale_id", id).Msg("sale deleted")
	return nil
}

func (s *saleService) releaseLines(ctx context.Context, tx store.Tx, lines []SaleLineItem) (*StockPlan, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.SupplierProductID)
	}
	plan, err := s.stock.Plan(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if err := plan.Release(l.SupplierProductID, l.Qty); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, id string) (*SaleDetail, error) {
	r := s.tx.Store()
	sale, err := readSale(ctx, r, id)
	if err != nil {
		return nil, err
	}
	lines, err := readSaleLines(ctx, r, id)
	if err != nil {
		return nil, err
	}
	return joinSale(ctx, newLookup(r), sale, lines)
}

func (s *saleService) ListSales(ctx context.Context, filter SaleFilter) ([]SaleDetail, error) {
	r := s.tx.Store()
	q := store.Query{}
	if filter.CustomerID != "" {
		q = q.And("customerId", filter.CustomerID)
	}
	if filter.Status != "" {
		q = q.And("status", string(filter.Status))
	}
	var sales []Sale
	if err := r.Query(ctx, CollSales, q, &sales); err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	var all []SaleLineItem
	if len(sales) > 0 {
		if err := r.Query(ctx, CollSaleItems, store.Query{}, &all); err != nil {
			return nil, fmt.Errorf("failed to list sale items: %w", err)
		}
	}
	bySale := make(map[string][]SaleLineItem)
	for _, l := range all {
		bySale[l.SaleID] = append(bySale[l.SaleID], l)
	}

	lk := newLookup(r)
	out := make([]SaleDetail, 0, len(sales))
	for i := range sales {
		if !inDayRange(sales[i].Date, filter.From, filter.To) {
			continue
		}
		lines := bySale[sales[i].ID]
		sortSaleLines(lines)
		d, err := joinSale(ctx, lk, &sales[i], lines)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func readSale(ctx context.Context, r store.Reader, id string) (*Sale, error) {
	var sale Sale
	if err := r.Get(ctx, CollSales, id, &sale); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("sale", id)
		}
		return nil, fmt.Errorf("failed to read sale %s: %w", id, err)
	}
	return &sale, nil
}

func readSaleLines(ctx context.Context, r store.Reader, saleID string) ([]SaleLineItem, error) {
	var lines []SaleLineItem
	if err := r.Query(ctx, CollSaleItems, store.Where("saleId", saleID), &lines); err != nil {
		return nil, fmt.Errorf("failed to read items of sale %s: %w", saleID, err)
	}
	sortSaleLines(lines)
	return lines, nil
}

func sortSaleLines(lines []SaleLineItem) {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })
}

func saleLineIDs(items []SaleLineInput) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.SupplierProductID)
	}
	return ids
}

// buildSaleLines prices each input line, falling back to the loaded sell price.
func buildSaleLines(saleID string, items []SaleLineInput, plan *StockPlan) []SaleLineItem {
	lines := make([]SaleLineItem, 0, len(items))
	for i, it := range items {
		price := it.UnitPrice
		if price.IsZero() {
			if sp := plan.SupplierProduct(it.SupplierProductID); sp != nil {
				price = sp.SellPrice
			}
		}
		lines = append(lines, SaleLineItem{
			ID:                uuid.NewString(),
			SaleID:            saleID,
			SupplierProductID: it.SupplierProductID,
			Qty:               it.Qty,
			UnitPrice:         price,
			Subtotal:          price.Mul(decimal.NewFromInt(it.Qty)),
			Position:          i,
		})
	}
	return lines
}

func sumSaleLines(lines []SaleLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	return total
}

func joinSale(ctx context.Context, lk *lookup, sale *Sale, lines []SaleLineItem) (*SaleDetail, error) {
	name, err := lk.customerName(ctx, sale.CustomerID)
	if err != nil {
		return nil, err
	}
	d := &SaleDetail{Sale: *sale, CustomerName: name, Items: make([]SaleLineDetail, 0, len(lines))}
	for _, l := range lines {
		pname, unit, err := lk.productOf(ctx, l.SupplierProductID)
		if err != nil {
			return nil, err
		}
		d.Items = append(d.Items, SaleLineDetail{SaleLineItem: l, ProductName: pname, Unit: unit})
	}
	return d, nil
}

// inDayRange reports whether the calendar day of t lies between the days of
// from and to, inclusive. Zero bounds are open.
func inDayRange(t, from, to time.Time) bool {
	day := calendarDay(t)
	if !from.IsZero() && day.Before(calendarDay(from)) {
		return false
	}
	if !to.IsZero() && day.After(calendarDay(to)) {
		return false
	}
	return true
}
