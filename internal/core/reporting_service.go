package core

import (
	"context"
	"fmt"
	"sort"

	"trade-ledger/internal/store"

	"github.com/shopspring/decimal"
)

const (
	lowStockLimit = 5
	recentLimit   = 5
)

type reportingService struct {
	tx        *TxRunner
	sales     SaleService
	purchases PurchaseService
	settings  SettingsResolver
}

// NewReportingService constructs a ReportingService.
func NewReportingService(tx *TxRunner, sales SaleService, purchases PurchaseService, settings SettingsResolver) ReportingService {
	return &reportingService{tx: tx, sales: sales, purchases: purchases, settings: settings}
}

func (s *reportingService) Dashboard(ctx context.Context) (*Dashboard, error) {
	r := s.tx.Store()

	products, err := productIndex(ctx, r)
	if err != nil {
		return nil, err
	}
	customers, err := customerIndex(ctx, r)
	if err != nil {
		return nil, err
	}
	suppliers, err := supplierIndex(ctx, r)
	if err != nil {
		return nil, err
	}
	var sales []Sale
	if err := r.Query(ctx, CollSales, store.Query{}, &sales); err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	var purchases []Purchase
	if err := r.Query(ctx, CollPurchases, store.Query{}, &purchases); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	threshold, err := s.settings.LowStockThreshold(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.lowStock(ctx, r, products, threshold)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalProducts:     len(products),
		TotalCustomers:    len(customers),
		TotalSuppliers:    len(suppliers),
		TotalSales:        len(sales),
		TotalPurchases:    len(purchases),
		TotalRevenue:      decimal.Zero,
		TotalExpenses:     decimal.Zero,
		TotalReceivable:   decimal.Zero,
		LowStockThreshold: threshold,
		LowStock:          low,
	}
	for i := range sales {
		if sales[i].Status == SaleStatusCancelled {
			continue
		}
		d.TotalRevenue = d.TotalRevenue.Add(sales[i].Total)
		if sales[i].Status == SaleStatusUnpaid {
			d.TotalReceivable = d.TotalReceivable.Add(sales[i].Remaining())
		}
	}
	for _, p := range purchases {
		d.TotalExpenses = d.TotalExpenses.Add(p.Total)
	}

	sort.SliceStable(sales, func(i, j int) bool { return sales[i].CreatedAt.After(sales[j].CreatedAt) })
	d.RecentSales = make([]RecentTransaction, 0, recentLimit)
	for _, sale := range sales[:min(recentLimit, len(sales))] {
		name := UnknownCustomerLabel
		if c, ok := customers[sale.CustomerID]; ok {
			name = c.Name
			if c.StoreName != "" {
				name = c.StoreName
			}
		}
		d.RecentSales = append(d.RecentSales, RecentTransaction{
			ID:     sale.ID,
			Number: sale.InvoiceNumber,
			Date:   sale.Date,
			Total:  sale.Total,
			Status: string(sale.Status),
			Party:  name,
		})
	}

	sort.SliceStable(purchases, func(i, j int) bool { return purchases[i].CreatedAt.After(purchases[j].CreatedAt) })
	d.RecentPurchases = make([]RecentTransaction, 0, recentLimit)
	for _, p := range purchases[:min(recentLimit, len(purchases))] {
		name := UnknownSupplierLabel
		if sup, ok := suppliers[p.SupplierID]; ok {
			name = sup.Name
		}
		d.RecentPurchases = append(d.RecentPurchases, RecentTransaction{
			ID:     p.ID,
			Number: p.InvoiceNumber,
			Date:   p.Date,
			Total:  p.Total,
			Status: string(p.Status),
			Party:  name,
		})
	}
	return d, nil
}

func (s *reportingService) LowStock(ctx context.Context) ([]LowStockItem, error) {
	r := s.tx.Store()
	products, err := productIndex(ctx, r)
	if err != nil {
		return nil, err
	}
	threshold, err := s.settings.LowStockThreshold(ctx)
	if err != nil {
		return nil, err
	}
	return s.lowStock(ctx, r, products, threshold)
}

// lowStock sums stock per product across suppliers and returns the lowest
// few below threshold. Products with no supplier listing count as 0.
func (s *reportingService) lowStock(ctx context.Context, r store.Reader, products map[string]Product, threshold int64) ([]LowStockItem, error) {
	sps, err := supplierProductIndex(ctx, r)
	if err != nil {
		return nil, err
	}
	stock := make(map[string]int64, len(products))
	for _, sp := range sps {
		stock[sp.ProductID] += sp.Stock
	}

	items := make([]LowStockItem, 0)
	for id, p := range products {
		if stock[id] >= threshold {
			continue
		}
		items = append(items, LowStockItem{
			ProductID: id,
			Code:      p.Code,
			Name:      p.Name,
			Unit:      p.Unit,
			Stock:     stock[id],
			Threshold: threshold,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Stock != items[j].Stock {
			return items[i].Stock < items[j].Stock
		}
		return items[i].Code < items[j].Code
	})
	if len(items) > lowStockLimit {
		items = items[:lowStockLimit]
	}
	return items, nil
}

func (s *reportingService) SalesReport(ctx context.Context, rng ReportRange) (*SalesReport, error) {
	if err := checkRange(rng); err != nil {
		return nil, err
	}
	sales, err := s.sales.ListSales(ctx, SaleFilter{From: rng.From, To: rng.To})
	if err != nil {
		return nil, err
	}

	rep := &SalesReport{
		From:        rng.From,
		To:          rng.To,
		Rows:        make([]SalesReportRow, 0, len(sales)),
		Subtotal:    decimal.Zero,
		Discount:    decimal.Zero,
		Tax:         decimal.Zero,
		Total:       decimal.Zero,
		Paid:        decimal.Zero,
		Outstanding: decimal.Zero,
	}
	// Oldest first reads better on paper.
	for i := len(sales) - 1; i >= 0; i-- {
		sd := sales[i]
		rep.Rows = append(rep.Rows, SalesReportRow{
			SaleID:             sd.ID,
			InvoiceNumber:      sd.InvoiceNumber,
			DeliveryNoteNumber: sd.DeliveryNoteNumber,
			Date:               sd.Date,
			CustomerName:       sd.CustomerName,
			Status:             sd.Status,
			Items:              sd.Items,
			Subtotal:           sd.Subtotal,
			DiscountAmount:     sd.DiscountAmount,
			TaxAmount:          sd.TaxAmount,
			Total:              sd.Total,
			AmountPaid:         sd.AmountPaid,
			Remaining:          sd.Remaining(),
		})
		if sd.Status == SaleStatusCancelled {
			rep.Cancelled++
			continue
		}
		rep.Count++
		rep.Subtotal = rep.Subtotal.Add(sd.Subtotal)
		rep.Discount = rep.Discount.Add(sd.DiscountAmount)
		rep.Tax = rep.Tax.Add(sd.TaxAmount)
		rep.Total = rep.Total.Add(sd.Total)
		rep.Paid = rep.Paid.Add(sd.AmountPaid)
		rep.Outstanding = rep.Outstanding.Add(sd.Remaining())
	}
	return rep, nil
}

func (s *reportingService) PurchaseReport(ctx context.Context, rng ReportRange) (*PurchaseReport, error) {
	if err := checkRange(rng); err != nil {
		return nil, err
	}
	purchases, err := s.purchases.ListPurchases(ctx, PurchaseFilter{From: rng.From, To: rng.To})
	if err != nil {
		return nil, err
	}

	rep := &PurchaseReport{
		From:  rng.From,
		To:    rng.To,
		Rows:  make([]PurchaseReportRow, 0, len(purchases)),
		Total: decimal.Zero,
	}
	sort.SliceStable(purchases, func(i, j int) bool { return purchases[i].Date.Before(purchases[j].Date) })
	for _, pd := range purchases {
		rep.Rows = append(rep.Rows, PurchaseReportRow{
			PurchaseID:    pd.ID,
			Date:          pd.Date,
			SupplierName:  pd.SupplierName,
			DeliveryNote:  pd.DeliveryNote,
			ReceiptNote:   pd.ReceiptNote,
			InvoiceNumber: pd.InvoiceNumber,
			Status:        pd.Status,
			Items:         pd.Items,
			Total:         pd.Total,
		})
		rep.Count++
		if pd.Status == PurchaseStatusCompleted {
			rep.Completed++
		} else {
			rep.Pending++
		}
		rep.Total = rep.Total.Add(pd.Total)
	}
	return rep, nil
}

func checkRange(rng ReportRange) error {
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return invalid("to", "must not be before from")
	}
	return nil
}
