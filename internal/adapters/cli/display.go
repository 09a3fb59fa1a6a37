package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"trade-ledger/internal/app"
	"trade-ledger/internal/core"
)

const dateOnly = "2006-01-02"

func rule(w io.Writer, ch string, n int) {
	fmt.Fprintln(w, strings.Repeat(ch, n))
}

func printStock(w io.Writer, res *app.StockResult) {
	fmt.Fprintln(w)
	rule(w, "=", 78)
	fmt.Fprintf(w, "  %-58s\n", "STOCK")
	rule(w, "=", 78)
	if len(res.Levels) == 0 {
		fmt.Fprintln(w, "  No supplier products found.")
		rule(w, "=", 78)
		return
	}
	fmt.Fprintf(w, "  %-10s %-26s %-20s %8s %-6s\n", "CODE", "PRODUCT", "SUPPLIER", "STOCK", "UNIT")
	rule(w, "-", 78)
	for _, l := range res.Levels {
		fmt.Fprintf(w, "  %-10s %-26s %-20s %8d %-6s\n",
			l.ProductCode, truncate(l.ProductName, 26), truncate(l.SupplierName, 20), l.Stock, l.Unit)
	}
	rule(w, "=", 78)
}

func printSale(w io.Writer, s *core.SaleDetail) {
	fmt.Fprintf(w, "\nINVOICE:   %s\n", s.InvoiceNumber)
	fmt.Fprintf(w, "DELIVERY:  %s\n", s.DeliveryNoteNumber)
	fmt.Fprintf(w, "CUSTOMER:  %s\n", s.CustomerName)
	fmt.Fprintf(w, "DATE:      %s\n", s.Date.Format(dateOnly))
	fmt.Fprintln(w, "ITEMS:")
	for _, it := range s.Items {
		fmt.Fprintf(w, "  %-28s %6d %-6s x %12s = %14s\n",
			truncate(it.ProductName, 28), it.Qty, it.Unit, it.UnitPrice.StringFixed(2), it.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(w, "SUBTOTAL:  %s\n", s.Subtotal.StringFixed(2))
	if s.DiscountAmount.IsPositive() {
		fmt.Fprintf(w, "DISCOUNT:  %s (%s%%)\n", s.DiscountAmount.StringFixed(2), s.DiscountPercent.String())
	}
	if s.TaxEnabled {
		fmt.Fprintf(w, "TAX:       %s\n", s.TaxAmount.StringFixed(2))
	}
	fmt.Fprintf(w, "TOTAL:     %s\n", s.Total.StringFixed(2))
	fmt.Fprintf(w, "STATUS:    %s\n", s.Status)
}

func printReceivables(w io.Writer, res *app.ReceivablesResult) {
	fmt.Fprintln(w)
	rule(w, "=", 84)
	fmt.Fprintf(w, "  %-58s\n", "RECEIVABLES")
	rule(w, "=", 84)
	if len(res.Receivables) == 0 {
		fmt.Fprintln(w, "  Nothing outstanding.")
		rule(w, "=", 84)
		return
	}
	fmt.Fprintf(w, "  %-20s %-10s %-22s %13s %13s\n", "INVOICE", "DATE", "CUSTOMER", "TOTAL", "REMAINING")
	rule(w, "-", 84)
	for _, r := range res.Receivables {
		fmt.Fprintf(w, "  %-20s %-10s %-22s %13s %13s\n",
			r.InvoiceNumber, r.Date.Format(dateOnly), truncate(r.CustomerName, 22),
			r.Total.StringFixed(2), r.Remaining.StringFixed(2))
	}
	rule(w, "-", 84)
	fmt.Fprintf(w, "  %-68s %13s\n", "TOTAL OUTSTANDING", res.TotalRemaining.StringFixed(2))
	rule(w, "=", 84)
}

func printDashboard(w io.Writer, d *core.Dashboard) {
	fmt.Fprintln(w)
	rule(w, "=", 62)
	fmt.Fprintf(w, "  %-58s\n", "DASHBOARD")
	rule(w, "=", 62)
	fmt.Fprintf(w, "  Products %d   Suppliers %d   Customers %d\n", d.TotalProducts, d.TotalSuppliers, d.TotalCustomers)
	fmt.Fprintf(w, "  Sales %d   Purchases %d\n", d.TotalSales, d.TotalPurchases)
	fmt.Fprintf(w, "  %-20s %20s\n", "Revenue", d.TotalRevenue.StringFixed(2))
	fmt.Fprintf(w, "  %-20s %20s\n", "Expenses", d.TotalExpenses.StringFixed(2))
	fmt.Fprintf(w, "  %-20s %20s\n", "Receivable", d.TotalReceivable.StringFixed(2))
	rule(w, "-", 62)
	fmt.Fprintf(w, "  Low stock (below %d)\n", d.LowStockThreshold)
	if len(d.LowStock) == 0 {
		fmt.Fprintln(w, "    none")
	}
	for _, l := range d.LowStock {
		fmt.Fprintf(w, "    %-36s %8d %s\n", truncate(l.Name, 36), l.Stock, l.Unit)
	}
	rule(w, "-", 62)
	fmt.Fprintln(w, "  Recent sales")
	for _, s := range d.RecentSales {
		fmt.Fprintf(w, "    %-20s %-20s %14s\n", s.Number, truncate(s.Party, 20), s.Total.StringFixed(2))
	}
	rule(w, "=", 62)
}

func printSalesReport(w io.Writer, rep *core.SalesReport) {
	fmt.Fprintln(w)
	rule(w, "=", 84)
	fmt.Fprintf(w, "  SALES REPORT %s\n", rangeLabel(rep.From, rep.To))
	rule(w, "=", 84)
	fmt.Fprintf(w, "  %-20s %-10s %-22s %-10s %14s\n", "INVOICE", "DATE", "CUSTOMER", "STATUS", "TOTAL")
	rule(w, "-", 84)
	for _, row := range rep.Rows {
		fmt.Fprintf(w, "  %-20s %-10s %-22s %-10s %14s\n",
			row.InvoiceNumber, row.Date.Format(dateOnly), truncate(row.CustomerName, 22), row.Status, row.Total.StringFixed(2))
	}
	rule(w, "-", 84)
	fmt.Fprintf(w, "  %d sale(s), %d cancelled\n", rep.Count, rep.Cancelled)
	fmt.Fprintf(w, "  %-20s %20s\n", "Total", rep.Total.StringFixed(2))
	fmt.Fprintf(w, "  %-20s %20s\n", "Paid", rep.Paid.StringFixed(2))
	fmt.Fprintf(w, "  %-20s %20s\n", "Outstanding", rep.Outstanding.StringFixed(2))
	rule(w, "=", 84)
}

func printPurchaseReport(w io.Writer, rep *core.PurchaseReport) {
	fmt.Fprintln(w)
	rule(w, "=", 72)
	fmt.Fprintf(w, "  PURCHASE REPORT %s\n", rangeLabel(rep.From, rep.To))
	rule(w, "=", 72)
	fmt.Fprintf(w, "  %-10s %-28s %-10s %16s\n", "DATE", "SUPPLIER", "STATUS", "TOTAL")
	rule(w, "-", 72)
	for _, row := range rep.Rows {
		fmt.Fprintf(w, "  %-10s %-28s %-10s %16s\n",
			row.Date.Format(dateOnly), truncate(row.SupplierName, 28), row.Status, row.Total.StringFixed(2))
	}
	rule(w, "-", 72)
	fmt.Fprintf(w, "  %d purchase(s): %d pending, %d completed\n", rep.Count, rep.Pending, rep.Completed)
	fmt.Fprintf(w, "  %-20s %20s\n", "Total", rep.Total.StringFixed(2))
	rule(w, "=", 72)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func rangeLabel(from, to time.Time) string {
	f, t := "start", "today"
	if !from.IsZero() {
		f = from.Format(dateOnly)
	}
	if !to.IsZero() {
		t = to.Format(dateOnly)
	}
	return f + " to " + t
}
