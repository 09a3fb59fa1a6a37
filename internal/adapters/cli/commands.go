package cli

import (
	"fmt"
	"os"

	"trade-ledger/internal/app"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func (r *runner) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations (postgres backend only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applied, err := r.rt.Migrate(cmd.Context(), r.migrationsDir)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if ok, err := r.printJSON(cmd, applied); ok {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to apply.")
				return nil
			}
			for _, f := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", f)
			}
			return nil
		},
	}
}

func (r *runner) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo products, suppliers and customers into an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := r.svc().Seed(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, res); ok {
				return err
			}
			if res.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "Store already has products; seed skipped.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products, %d suppliers, %d supplier products, %d customers.\n",
				res.Products, res.Suppliers, res.SupplierProducts, res.Customers)
			return nil
		},
	}
}

func (r *runner) stockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Show stock per supplier product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := r.svc().GetStockLevels(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, res); ok {
				return err
			}
			printStock(cmd.OutOrStdout(), res)
			return nil
		},
	}

	var req app.AdjustStockRequest
	adjust := &cobra.Command{
		Use:     "adjust",
		Short:   "Correct the stock of one supplier product",
		Example: `  trade-ledger stock adjust --id 3f2c... --delta -2 --reason "broken sacks"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sp, err := r.svc().AdjustStock(cmd.Context(), req)
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, sp); ok {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stock of %s is now %d.\n", sp.ID, sp.Stock)
			return nil
		},
	}
	adjust.Flags().StringVar(&req.SupplierProductID, "id", "", "Supplier product ID")
	adjust.Flags().Int64Var(&req.Delta, "delta", 0, "Quantity to add (negative to remove)")
	adjust.Flags().StringVar(&req.Reason, "reason", "", "Reason for the correction")
	cmd.AddCommand(adjust)
	return cmd
}

func (r *runner) saleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Create and cancel sales",
	}

	var (
		req      app.CreateSaleRequest
		items    []string
		discount string
		dueDate  string
	)
	create := &cobra.Command{
		Use:     "create",
		Short:   "Record a sale, decrementing stock and assigning invoice numbers",
		Example: `  trade-ledger sale create --customer c1 --item sp1:5 --item sp2:2:61000 --tax
  trade-ledger sale create --customer c1 --item sp1:10 --discount 5 --date 2026-04-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := parseSaleItems(items)
			if err != nil {
				return err
			}
			req.Items = lines
			if discount != "" {
				if req.DiscountPercent, err = decimal.NewFromString(discount); err != nil {
					return fmt.Errorf("invalid --discount: %w", err)
				}
			}
			if dueDate != "" {
				req.PaymentTerms = &app.PaymentTermsRequest{DueDate: dueDate}
			}
			sale, err := r.svc().CreateSale(cmd.Context(), req)
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, sale); ok {
				return err
			}
			printSale(cmd.OutOrStdout(), sale)
			return nil
		},
	}
	create.Flags().StringVar(&req.CustomerID, "customer", "", "Customer ID")
	create.Flags().StringArrayVar(&items, "item", nil, "Line as SUPPLIER_PRODUCT_ID:QTY[:UNIT_PRICE] (repeatable)")
	create.Flags().StringVar(&req.Date, "date", "", "Sale date (YYYY-MM-DD, default today)")
	create.Flags().StringVar(&req.Notes, "notes", "", "Free-text notes")
	create.Flags().StringVar(&discount, "discount", "", "Discount percent (0-100)")
	create.Flags().BoolVar(&req.TaxEnabled, "tax", false, "Apply the configured tax rate")
	create.Flags().StringVar(&dueDate, "due", "", "Payment due date (YYYY-MM-DD)")

	cancel := &cobra.Command{
		Use:   "cancel SALE_ID",
		Short: "Cancel a sale and restore its stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sale, err := r.svc().CancelSale(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, sale); ok {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sale %s cancelled; stock restored.\n", sale.InvoiceNumber)
			return nil
		},
	}

	cmd.AddCommand(create, cancel)
	return cmd
}

func (r *runner) payCmd() *cobra.Command {
	var (
		req    app.AddPaymentRequest
		amount string
	)
	cmd := &cobra.Command{
		Use:     "pay SALE_ID",
		Short:   "Record a payment against a sale",
		Example: `  trade-ledger pay 9a1b... --amount 250000 --method Transfer --payer "Budi"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			sale, err := r.svc().AddPayment(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, sale); ok {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Payment recorded on %s. Paid %s of %s (%s).\n",
				sale.InvoiceNumber, sale.AmountPaid.StringFixed(2), sale.Total.StringFixed(2), sale.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Amount paid")
	cmd.Flags().StringVar(&req.Method, "method", "", "Payment method, e.g. Tunai or Transfer")
	cmd.Flags().StringVar(&req.PayerName, "payer", "", "Name of the payer")
	cmd.Flags().StringVar(&req.Date, "date", "", "Payment date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (r *runner) purchaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Record and receive purchases",
	}

	var (
		req   app.CreatePurchaseRequest
		items []string
	)
	create := &cobra.Command{
		Use:     "create",
		Short:   "Record a purchase from a supplier",
		Example: `  trade-ledger purchase create --supplier s1 --item sp1:100
  trade-ledger purchase create --supplier s1 --item sp1:100:47000 --status Completed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := parsePurchaseItems(items)
			if err != nil {
				return err
			}
			req.Items = lines
			p, err := r.svc().CreatePurchase(cmd.Context(), req)
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, p); ok {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purchase %s from %s recorded: %s, total %s.\n",
				p.ID, p.SupplierName, p.Status, p.Total.StringFixed(2))
			return nil
		},
	}
	create.Flags().StringVar(&req.SupplierID, "supplier", "", "Supplier ID")
	create.Flags().StringArrayVar(&items, "item", nil, "Line as SUPPLIER_PRODUCT_ID:QTY[:UNIT_PRICE] (repeatable)")
	create.Flags().StringVar(&req.Date, "date", "", "Purchase date (YYYY-MM-DD, default today)")
	create.Flags().StringVar(&req.Status, "status", "", "Pending (default) or Completed")
	create.Flags().StringVar(&req.InvoiceNumber, "invoice", "", "Supplier invoice number")

	var receipt app.ReceivePurchaseRequest
	receive := &cobra.Command{
		Use:   "receive PURCHASE_ID",
		Short: "Mark a pending purchase received and add its stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := r.svc().ReceivePurchase(cmd.Context(), args[0], receipt)
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, p); ok {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purchase %s received; %d line(s) added to stock.\n", p.ID, len(p.Items))
			return nil
		},
	}
	receive.Flags().StringVar(&receipt.DeliveryNote, "delivery-note", "", "Supplier delivery note number")
	receive.Flags().StringVar(&receipt.ReceiptNote, "receipt-note", "", "Goods receipt note number")
	receive.Flags().StringVar(&receipt.InvoiceNumber, "invoice", "", "Supplier invoice number")

	cmd.AddCommand(create, receive)
	return cmd
}

func (r *runner) receivablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receivables",
		Short: "List unpaid sales, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := r.svc().ListReceivables(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, res); ok {
				return err
			}
			printReceivables(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func (r *runner) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show totals, low stock and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := r.svc().GetDashboard(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, d); ok {
				return err
			}
			printDashboard(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func (r *runner) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Sales and purchase reports",
	}

	var (
		rng  app.ReportRequest
		xlsx string
	)
	sales := &cobra.Command{
		Use:     "sales",
		Short:   "Sales report for a date range",
		Example: `  trade-ledger report sales --from 2026-04-01 --to 2026-04-30 --xlsx april.xlsx`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if xlsx != "" {
				return r.exportSales(cmd, rng, xlsx)
			}
			rep, err := r.svc().GetSalesReport(cmd.Context(), rng)
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, rep); ok {
				return err
			}
			printSalesReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	sales.Flags().StringVar(&rng.From, "from", "", "First day (YYYY-MM-DD)")
	sales.Flags().StringVar(&rng.To, "to", "", "Last day, inclusive (YYYY-MM-DD)")
	sales.Flags().StringVar(&xlsx, "xlsx", "", "Write the report to this .xlsx file instead of printing it")

	var prng app.ReportRequest
	purchases := &cobra.Command{
		Use:   "purchases",
		Short: "Purchase report for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := r.svc().GetPurchaseReport(cmd.Context(), prng)
			if err != nil {
				return err
			}
			if ok, err := r.printJSON(cmd, rep); ok {
				return err
			}
			printPurchaseReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	purchases.Flags().StringVar(&prng.From, "from", "", "First day (YYYY-MM-DD)")
	purchases.Flags().StringVar(&prng.To, "to", "", "Last day, inclusive (YYYY-MM-DD)")

	cmd.AddCommand(sales, purchases)
	return cmd
}

func (r *runner) exportSales(cmd *cobra.Command, rng app.ReportRequest, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := r.svc().ExportSalesReport(cmd.Context(), rng, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sales report written to %s\n", path)
	return nil
}
