package core

import (
	"context"
	"errors"
	"fmt"

	"trade-ledger/internal/logger"
	"trade-ledger/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Recorder receives ledger events. internal/metrics implements it.
type Recorder interface {
	TransactionCommitted(op string)
	TransactionRetried(op string)
	TransactionConflicted(op string)
	StockRejected(supplierProductID string)
	PaymentRecorded(amount decimal.Decimal)
}

type nopRecorder struct{}

func (nopRecorder) TransactionCommitted(string)     {}
func (nopRecorder) TransactionRetried(string)       {}
func (nopRecorder) TransactionConflicted(string)    {}
func (nopRecorder) StockRejected(string)            {}
func (nopRecorder) PaymentRecorded(decimal.Decimal) {}

// TxRunner runs store transactions with a bounded retry on conflicts and is
// shared by every service.
type TxRunner struct {
	store  store.Store
	policy store.RetryPolicy
	rec    Recorder
	log    zerolog.Logger
}

// NewTxRunner wires a store, its retry policy and an optional recorder.
func NewTxRunner(s store.Store, policy store.RetryPolicy, rec Recorder) *TxRunner {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &TxRunner{store: s, policy: policy, rec: rec, log: logger.WithComponent("tx")}
}

// Store returns the underlying store for reads outside a transaction.
func (r *TxRunner) Store() store.Store { return r.store }

// Run executes fn, re-running it on store conflicts. Errors returned by fn
// are passed through untouched.
func (r *TxRunner) Run(ctx context.Context, op string, fn store.TxFunc) error {
	p := r.policy
	p.OnConflict = func(attempt int, err error) {
		r.rec.TransactionRetried(op)
		r.log.Debug().Str("op", op).Int("attempt", attempt).Err(err).Msg("transaction conflict, retrying")
	}

	err := store.RunWithRetry(ctx, r.store, p, fn)
	switch {
	case err == nil:
		r.rec.TransactionCommitted(op)
		return nil
	case errors.Is(err, store.ErrConflict):
		r.rec.TransactionConflicted(op)
		r.log.Warn().Str("op", op).Err(err).Msg("transaction gave up")
		return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
	default:
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			r.rec.StockRejected(stockErr.SupplierProductID)
		}
		return err
	}
}
