package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"trade-ledger/internal/logger"
	"trade-ledger/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PaymentInput is one payment against a sale. A zero Date means today.
type PaymentInput struct {
	Amount    decimal.Decimal
	Date      time.Time
	Method    string
	PayerName string
}

// Receivable is an unpaid sale with its outstanding balance.
type Receivable struct {
	SaleID         string          `json:"saleId"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	CustomerID     string          `json:"customerId"`
	CustomerName   string          `json:"customerName"`
	Date           time.Time       `json:"date"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	Total          decimal.Decimal `json:"total"`
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	Remaining      decimal.Decimal `json:"remaining"`
	PaymentHistory []PaymentRecord `json:"paymentHistory"`
}

// ReceivablesService tracks what customers still owe.
type ReceivablesService interface {
	// AddPayment appends a payment and re-derives the sale status. Payments
	// above the remaining balance are rejected with ErrOverpayment.
	AddPayment(ctx context.Context, saleID string, payment PaymentInput) (*SaleDetail, error)
	// ListReceivables returns every Unpaid sale, oldest first.
	ListReceivables(ctx context.Context) ([]Receivable, error)
}

type receivablesService struct {
	tx    *TxRunner
	sales SaleService
	rec   Recorder
	log   zerolog.Logger
	now   func() time.Time
}

// NewReceivablesService constructs a ReceivablesService.
func NewReceivablesService(tx *TxRunner, sales SaleService) ReceivablesService {
	return &receivablesService{
		tx:    tx,
		sales: sales,
		rec:   tx.rec,
		log:   logger.WithComponent("receivables"),
		now:   time.Now,
	}
}

func (s *receivablesService) AddPayment(ctx context.Context, saleID string, payment PaymentInput) (*SaleDetail, error) {
	if !payment.Amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	if strings.TrimSpace(payment.Method) == "" {
		return nil, invalid("method", "is required")
	}
	date := payment.Date
	if date.IsZero() {
		date = s.now()
	}
	date = calendarDay(date)

	var status SaleStatus
	err := s.tx.Run(ctx, "payment.add", func(ctx context.Context, tx store.Tx) error {
		sale, err := readSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status == SaleStatusCancelled {
			return fmt.Errorf("sale %s: %w", saleID, ErrSaleCancelled)
		}
		paid := sale.AmountPaid.Add(payment.Amount)
		if paid.GreaterThan(sale.Total) {
			return fmt.Errorf("%w: paying %s with %s remaining", ErrOverpayment, payment.Amount, sale.Remaining())
		}

		now := s.now().UTC()
		sale.AmountPaid = paid
		sale.Status = sale.derivedStatus()
		sale.PaymentHistory = append(sale.PaymentHistory, PaymentRecord{
			Date:       date,
			Amount:     payment.Amount,
			Method:     payment.Method,
			PayerName:  payment.PayerName,
			RecordedAt: now,
		})
		sale.UpdatedAt = now
		status = sale.Status
		if err := tx.Set(ctx, CollSales, sale.ID, sale); err != nil {
			return fmt.Errorf("failed to write sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.rec.PaymentRecorded(payment.Amount)
	s.log.Info().Str("sale_id", saleID).Str("amount", payment.Amount.String()).Str("status", string(status)).Msg("payment recorded")
	return s.sales.GetSale(ctx, saleID)
}

func (s *receivablesService) ListReceivables(ctx context.Context) ([]Receivable, error) {
	r := s.tx.Store()
	var sales []Sale
	if err := r.Query(ctx, CollSales, store.Where("status", string(SaleStatusUnpaid)), &sales); err != nil {
		return nil, fmt.Errorf("failed to list unpaid sales: %w", err)
	}

	lk := newLookup(r)
	out := make([]Receivable, 0, len(sales))
	for i := range sales {
		sale := &sales[i]
		name, err := lk.customerName(ctx, sale.CustomerID)
		if err != nil {
			return nil, err
		}
		history := sale.PaymentHistory
		if history == nil {
			history = []PaymentRecord{}
		}
		out = append(out, Receivable{
			SaleID:         sale.ID,
			InvoiceNumber:  sale.InvoiceNumber,
			CustomerID:     sale.CustomerID,
			CustomerName:   name,
			Date:           sale.Date,
			DueDate:        sale.DueDate,
			Total:          sale.Total,
			AmountPaid:     sale.AmountPaid,
			Remaining:      sale.Remaining(),
			PaymentHistory: history,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
