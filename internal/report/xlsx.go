// Package report renders sales and purchase reports as xlsx workbooks.
package report

import (
	"fmt"
	"io"

	"trade-ledger/internal/core"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const dateFormat = "2006-01-02"

// row is one line of cell values, written left to right from column A.
type row []any

// WriteSales writes one sheet with a row per sale and a totals row.
func WriteSales(w io.Writer, rep *core.SalesReport) error {
	rows := make([]row, 0, len(rep.Rows)+2)
	for _, r := range rep.Rows {
		rows = append(rows, row{
			r.Date.Format(dateFormat),
			r.InvoiceNumber,
			r.DeliveryNoteNumber,
			r.CustomerName,
			string(r.Status),
			len(r.Items),
			r.Subtotal.InexactFloat64(),
			r.DiscountAmount.InexactFloat64(),
			r.TaxAmount.InexactFloat64(),
			r.Total.InexactFloat64(),
			r.AmountPaid.InexactFloat64(),
			r.Remaining.InexactFloat64(),
		})
	}
	rows = append(rows, row{}, row{
		"TOTAL", "", "", fmt.Sprintf("%d sales, %d cancelled", rep.Count, rep.Cancelled), "", "",
		rep.Subtotal.InexactFloat64(),
		rep.Discount.InexactFloat64(),
		rep.Tax.InexactFloat64(),
		rep.Total.InexactFloat64(),
		rep.Paid.InexactFloat64(),
		rep.Outstanding.InexactFloat64(),
	})

	headings := []string{"Date", "Invoice", "Delivery Note", "Customer", "Status", "Items",
		"Subtotal", "Discount", "Tax", "Total", "Paid", "Remaining"}
	return write(w, "Sales", headings, rows)
}

// WritePurchases writes one sheet with a row per purchase and a totals row.
func WritePurchases(w io.Writer, rep *core.PurchaseReport) error {
	rows := make([]row, 0, len(rep.Rows)+2)
	for _, r := range rep.Rows {
		rows = append(rows, row{
			r.Date.Format(dateFormat),
			r.SupplierName,
			r.DeliveryNote,
			r.ReceiptNote,
			r.InvoiceNumber,
			string(r.Status),
			len(r.Items),
			r.Total.InexactFloat64(),
		})
	}
	rows = append(rows, row{}, row{
		"TOTAL", fmt.Sprintf("%d purchases, %d pending", rep.Count, rep.Pending), "", "", "", "", "",
		rep.Total.InexactFloat64(),
	})

	headings := []string{"Date", "Supplier", "Delivery Note", "Receipt Note", "Invoice", "Status", "Items", "Total"}
	return write(w, "Purchases", headings, rows)
}

func write(w io.Writer, sheet string, headings []string, rows []row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write heading: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headings), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style headings: %w", err)
	}

	for r, values := range rows {
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
			if _, ok := v.(float64); ok {
				if err := f.SetCellStyle(sheet, cell, cell, money); err != nil {
					return fmt.Errorf("failed to style cell %s: %w", cell, err)
				}
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "L", 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
