package core_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"trade-ledger/internal/core"
	"trade-ledger/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// conflictingStore runs each transaction body against the wrapped store and
// then reports a commit conflict, so the writes are rolled back. It does so
// for the next failures transactions, or for every one when always is set.
type conflictingStore struct {
	store.Store
	mu       sync.Mutex
	failures int
	always   bool
}

func (s *conflictingStore) RunTransaction(ctx context.Context, fn store.TxFunc) error {
	s.mu.Lock()
	fail := s.always || s.failures > 0
	if s.failures > 0 {
		s.failures--
	}
	s.mu.Unlock()
	if !fail {
		return s.Store.RunTransaction(ctx, fn)
	}
	return s.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return fmt.Errorf("commit: %w", store.ErrConflict)
	})
}

type countingRecorder struct {
	mu         sync.Mutex
	committed  map[string]int
	retried    map[string]int
	conflicted map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{committed: map[string]int{}, retried: map[string]int{}, conflicted: map[string]int{}}
}

func (r *countingRecorder) TransactionCommitted(op string)  { r.inc(r.committed, op) }
func (r *countingRecorder) TransactionRetried(op string)    { r.inc(r.retried, op) }
func (r *countingRecorder) TransactionConflicted(op string) { r.inc(r.conflicted, op) }
func (r *countingRecorder) StockRejected(string)            {}
func (r *countingRecorder) PaymentRecorded(decimal.Decimal) {}

func (r *countingRecorder) inc(m map[string]int, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m[op]++
}

// conflictingSales wires a sale service over f's store behind a conflictingStore.
func conflictingSales(f *fixture, rec core.Recorder) (*conflictingStore, core.SaleService) {
	cs := &conflictingStore{Store: f.store}
	policy := store.RetryPolicy{MaxAttempts: 5, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
	runner := core.NewTxRunner(cs, policy, rec)
	settings := core.NewSettingsResolver(runner, core.SettingsDefaults{TaxRate: dec("0.11"), LowStockThreshold: 10})
	return cs, core.NewSaleService(runner, core.NewStockLedger(runner), settings)
}

func TestTxRunner_SaleRetriesThroughConflicts(t *testing.T) {
	f := newFixture(t)
	sp := f.listing(t, f.supplier(t), "Semen 40kg", 10, 10000)
	cust := f.customer(t, "Budi")
	rec := newCountingRecorder()
	cs, sales := conflictingSales(f, rec)
	cs.failures = 2

	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	sale, err := sales.CreateSale(f.ctx, core.SaleInput{CustomerID: cust.ID, Date: day, Items: []core.SaleLineInput{line(sp, 4)}})
	require.NoError(t, err)

	assert.Equal(t, "INV/20260305/0001", sale.InvoiceNumber)
	assert.Equal(t, "SJ/20260305/0001", sale.DeliveryNoteNumber)
	assert.Equal(t, int64(6), f.stockOf(t, sp.ID))
	assert.Equal(t, 1, f.count(t, core.CollSales))
	assert.Equal(t, 1, f.count(t, core.CollSaleItems))
	assert.Equal(t, 2, rec.retried["sale.create"])
	assert.Equal(t, 1, rec.committed["sale.create"])
	assert.Zero(t, rec.conflicted["sale.create"])

	next, err := f.seq.Current(f.ctx, core.SeqInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next, "rolled-back attempts must not consume numbers")
}

func TestTxRunner_ExhaustedConflictsSurfaceAsErrConflict(t *testing.T) {
	f := newFixture(t)
	sp := f.listing(t, f.supplier(t), "Semen 40kg", 10, 10000)
	cust := f.customer(t, "Budi")
	rec := newCountingRecorder()
	cs, sales := conflictingSales(f, rec)
	cs.always = true

	_, err := sales.CreateSale(f.ctx, core.SaleInput{CustomerID: cust.ID, Items: []core.SaleLineInput{line(sp, 4)}})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConflict)

	assert.Equal(t, int64(10), f.stockOf(t, sp.ID))
	assert.Zero(t, f.count(t, core.CollSales))
	assert.Equal(t, 4, rec.retried["sale.create"])
	assert.Equal(t, 1, rec.conflicted["sale.create"])
	assert.Zero(t, rec.committed["sale.create"])
}
