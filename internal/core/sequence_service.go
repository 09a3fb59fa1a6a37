package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trade-ledger/internal/store"
)

// SequenceKind names a counter document.
type SequenceKind string

const (
	SeqProduct      SequenceKind = "product"
	SeqProductCode  SequenceKind = "productCode"
	SeqCustomer     SequenceKind = "customer"
	SeqCustomerCode SequenceKind = "customerCode"
	SeqInvoice      SequenceKind = "invoice"
	SeqDeliveryNote SequenceKind = "deliveryNote"
)

// FormatSequence renders a counter value as a business identifier.
// Dated kinds use the document date as YYYYMMDD.
func FormatSequence(kind SequenceKind, n int64, date time.Time) (string, error) {
	switch kind {
	case SeqProduct:
		return fmt.Sprintf("PRD-%05d", n), nil
	case SeqProductCode:
		return fmt.Sprintf("SKU-%05d", n), nil
	case SeqCustomer, SeqCustomerCode:
		return fmt.Sprintf("PLG-%05d", n), nil
	case SeqInvoice:
		return fmt.Sprintf("INV/%s/%04d", date.Format("20060102"), n), nil
	case SeqDeliveryNote:
		return fmt.Sprintf("SJ/%s/%04d", date.Format("20060102"), n), nil
	}
	return "", fmt.Errorf("unknown sequence %q", kind)
}

// SequenceClaim is a counter value read in a transaction's read phase.
// Write must be called in the same transaction's write phase.
type SequenceClaim struct {
	Kind   SequenceKind
	Number int64
}

// ClaimSequence reads the counter and reserves its next value. An absent
// counter starts at 1.
func ClaimSequence(ctx context.Context, tx store.Tx, kind SequenceKind) (*SequenceClaim, error) {
	if _, err := FormatSequence(kind, 0, time.Time{}); err != nil {
		return nil, invalid("kind", "%v", err)
	}
	var c Counter
	err := tx.Get(ctx, CollCounters, string(kind), &c)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &SequenceClaim{Kind: kind, Number: 1}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read counter %s: %w", kind, err)
	}
	return &SequenceClaim{Kind: kind, Number: c.LastNumber + 1}, nil
}

// Format renders the claimed number.
func (c *SequenceClaim) Format(date time.Time) string {
	s, _ := FormatSequence(c.Kind, c.Number, date) // kind checked by ClaimSequence
	return s
}

// Write stores the claimed number as the counter's last value.
func (c *SequenceClaim) Write(ctx context.Context, tx store.Tx) error {
	if err := tx.Set(ctx, CollCounters, string(c.Kind), Counter{Name: string(c.Kind), LastNumber: c.Number}); err != nil {
		return fmt.Errorf("failed to update counter %s: %w", c.Kind, err)
	}
	return nil
}

// SequenceService hands out identifiers outside of a larger transaction.
type SequenceService interface {
	// Next allocates and formats the next identifier for kind.
	Next(ctx context.Context, kind SequenceKind, date time.Time) (string, error)
	// Current returns the last number issued for kind, 0 if none.
	Current(ctx context.Context, kind SequenceKind) (int64, error)
}

type sequenceService struct {
	tx *TxRunner
}

// NewSequenceService constructs a SequenceService.
func NewSequenceService(tx *TxRunner) SequenceService {
	return &sequenceService{tx: tx}
}

// Next runs a read-increment-write transaction on the counter.
func (s *sequenceService) Next(ctx context.Context, kind SequenceKind, date time.Time) (string, error) {
	var id string
	err := s.tx.Run(ctx, "sequence.next", func(ctx context.Context, tx store.Tx) error {
		claim, err := ClaimSequence(ctx, tx, kind)
		if err != nil {
			return err
		}
		if err := claim.Write(ctx, tx); err != nil {
			return err
		}
		id = claim.Format(date)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *sequenceService) Current(ctx context.Context, kind SequenceKind) (int64, error) {
	var c Counter
	err := s.tx.Store().Get(ctx, CollCounters, string(kind), &c)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter %s: %w", kind, err)
	}
	return c.LastNumber, nil
}
