package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"trade-ledger/internal/store"

	"github.com/shopspring/decimal"
)

// Setting keys understood by the resolver.
const (
	SettingTaxRate           = "taxRate"
	SettingLowStockThreshold = "lowStockThreshold"
)

// SettingsDefaults come from the environment and apply when no setting
// document overrides them.
type SettingsDefaults struct {
	TaxRate           decimal.Decimal
	LowStockThreshold int64
}

// SettingsResolver resolves runtime overrides. Several documents may exist
// for one key; the highest priority wins.
type SettingsResolver interface {
	TaxRate(ctx context.Context) (decimal.Decimal, error)
	LowStockThreshold(ctx context.Context) (int64, error)
	Set(ctx context.Context, key, value string, priority int) (*Setting, error)
	List(ctx context.Context) ([]Setting, error)
}

type settingsResolver struct {
	tx       *TxRunner
	defaults SettingsDefaults
}

// NewSettingsResolver constructs a SettingsResolver.
func NewSettingsResolver(tx *TxRunner, defaults SettingsDefaults) SettingsResolver {
	return &settingsResolver{tx: tx, defaults: defaults}
}

func (r *settingsResolver) TaxRate(ctx context.Context) (decimal.Decimal, error) {
	s, err := r.winner(ctx, SettingTaxRate)
	if err != nil || s == nil {
		return r.defaults.TaxRate, err
	}
	return parseTaxRate(s.Value)
}

func (r *settingsResolver) LowStockThreshold(ctx context.Context) (int64, error) {
	s, err := r.winner(ctx, SettingLowStockThreshold)
	if err != nil || s == nil {
		return r.defaults.LowStockThreshold, err
	}
	return parseThreshold(s.Value)
}

func (r *settingsResolver) winner(ctx context.Context, key string) (*Setting, error) {
	var all []Setting
	if err := r.tx.Store().Query(ctx, CollSettings, store.Where("key", key), &all); err != nil {
		return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	best := all[0]
	for _, s := range all[1:] {
		if s.Priority > best.Priority {
			best = s
		}
	}
	return &best, nil
}

// Set writes the value of key at priority, replacing any earlier value at
// the same priority.
func (r *settingsResolver) Set(ctx context.Context, key, value string, priority int) (*Setting, error) {
	var err error
	switch key {
	case SettingTaxRate:
		_, err = parseTaxRate(value)
	case SettingLowStockThreshold:
		_, err = parseThreshold(value)
	default:
		err = invalid("key", "unknown setting %q", key)
	}
	if err != nil {
		return nil, err
	}

	s := Setting{
		ID:        fmt.Sprintf("%s@%d", key, priority),
		Key:       key,
		Value:     value,
		Priority:  priority,
		UpdatedAt: time.Now().UTC(),
	}
	err = r.tx.Run(ctx, "settings.set", func(ctx context.Context, tx store.Tx) error {
		return tx.Set(ctx, CollSettings, s.ID, s)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsResolver) List(ctx context.Context) ([]Setting, error) {
	var all []Setting
	if err := r.tx.Store().Query(ctx, CollSettings, store.Query{}, &all); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Key != all[j].Key {
			return all[i].Key < all[j].Key
		}
		return all[i].Priority > all[j].Priority
	})
	return all, nil
}

func parseTaxRate(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, invalid("value", "tax rate %q is not a number", v)
	}
	if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, invalid("value", "tax rate must be in [0, 1)")
	}
	return d, nil
}

func parseThreshold(v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, invalid("value", "low stock threshold must be a non-negative integer")
	}
	return n, nil
}
