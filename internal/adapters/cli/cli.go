package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"trade-ledger/internal/app"
	"trade-ledger/internal/bootstrap"
	"trade-ledger/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Opener connects the configured store. It is called once per invocation,
// after flag parsing, so --help works without a database.
type Opener func(ctx context.Context) (*bootstrap.Runtime, error)

type runner struct {
	open          Opener
	migrationsDir string
	rt            *bootstrap.Runtime
	asJSON        bool
}

// NewRootCommand builds the trade-ledger command tree.
func NewRootCommand(open Opener, migrationsDir string) *cobra.Command {
	r := &runner{open: open, migrationsDir: migrationsDir}

	root := &cobra.Command{
		Use:   "trade-ledger",
		Short: "Sales, purchases and stock for a trading back office",
		Long: `trade-ledger records sales and purchases against per-supplier stock,
tracks receivables and produces dashboard figures and reports.

The store backend is selected with STORE_BACKEND (memory, postgres or mongo).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			r.rt = rt
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if r.rt == nil {
				return nil
			}
			return r.rt.Close(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&r.asJSON, "json", false, "Print results as JSON")

	root.AddCommand(
		r.migrateCmd(),
		r.seedCmd(),
		r.stockCmd(),
		r.saleCmd(),
		r.payCmd(),
		r.purchaseCmd(),
		r.receivablesCmd(),
		r.dashboardCmd(),
		r.reportCmd(),
	)
	return root
}

// Execute runs the command tree and returns the error, if any, for main to report.
func Execute(ctx context.Context, open Opener, migrationsDir string, args []string) error {
	log := logger.WithComponent("cli")
	root := NewRootCommand(open, migrationsDir)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Debug().Err(err).Msg("command failed")
		return err
	}
	return nil
}

func (r *runner) svc() app.ApplicationService { return r.rt.Service }

// printJSON writes v indented when --json is set and reports whether it did.
func (r *runner) printJSON(cmd *cobra.Command, v any) (bool, error) {
	if !r.asJSON {
		return false, nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

// parseSaleItems reads --item values of the form SUPPLIER_PRODUCT_ID:QTY[:UNIT_PRICE].
func parseSaleItems(values []string) ([]app.SaleLineRequest, error) {
	out := make([]app.SaleLineRequest, 0, len(values))
	for _, v := range values {
		id, qty, price, err := parseItem(v)
		if err != nil {
			return nil, err
		}
		out = append(out, app.SaleLineRequest{SupplierProductID: id, Qty: qty, UnitPrice: price})
	}
	return out, nil
}

func parsePurchaseItems(values []string) ([]app.PurchaseLineRequest, error) {
	out := make([]app.PurchaseLineRequest, 0, len(values))
	for _, v := range values {
		id, qty, price, err := parseItem(v)
		if err != nil {
			return nil, err
		}
		out = append(out, app.PurchaseLineRequest{SupplierProductID: id, Qty: qty, UnitPrice: price})
	}
	return out, nil
}

func parseItem(v string) (string, int64, decimal.Decimal, error) {
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return "", 0, decimal.Zero, fmt.Errorf("invalid item %q, want SUPPLIER_PRODUCT_ID:QTY[:UNIT_PRICE]", v)
	}
	qty, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, decimal.Zero, fmt.Errorf("invalid quantity in item %q: %w", v, err)
	}
	price := decimal.Zero
	if len(parts) == 3 {
		if price, err = decimal.NewFromString(parts[2]); err != nil {
			return "", 0, decimal.Zero, fmt.Errorf("invalid unit price in item %q: %w", v, err)
		}
	}
	return parts[0], qty, price, nil
}
