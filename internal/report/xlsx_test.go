package report_test

import (
	"bytes"
	"testing"
	"time"

	"trade-ledger/internal/core"
	"trade-ledger/internal/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteSales(t *testing.T) {
	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	rep := &core.SalesReport{
		Rows: []core.SalesReportRow{{
			Date:          day,
			InvoiceNumber: "INV/20260401/0001",
			CustomerName:  "Budi",
			Status:        core.SaleStatusUnpaid,
			Subtotal:      decimal.NewFromInt(100000),
			Total:         decimal.NewFromInt(100000),
			AmountPaid:    decimal.NewFromInt(40000),
			Remaining:     decimal.NewFromInt(60000),
		}},
		Count:       1,
		Total:       decimal.NewFromInt(100000),
		Outstanding: decimal.NewFromInt(60000),
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteSales(&buf, rep))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Sales", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", v)
	v, err = f.GetCellValue("Sales", "B2")
	require.NoError(t, err)
	assert.Equal(t, "INV/20260401/0001", v)
	v, err = f.GetCellValue("Sales", "D2")
	require.NoError(t, err)
	assert.Equal(t, "Budi", v)
	v, err = f.GetCellValue("Sales", "A4")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", v)
	v, err = f.GetCellValue("Sales", "L4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "60000", v)
}

func TestWritePurchases(t *testing.T) {
	rep := &core.PurchaseReport{
		Rows: []core.PurchaseReportRow{{
			Date:         time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
			SupplierName: core.UnknownSupplierLabel,
			Status:       core.PurchaseStatusPending,
			Total:        decimal.NewFromInt(8000),
		}},
		Count:   1,
		Pending: 1,
		Total:   decimal.NewFromInt(8000),
	}

	var buf bytes.Buffer
	require.NoError(t, report.WritePurchases(&buf, rep))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Purchases", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", v)
	v, err = f.GetCellValue("Purchases", "B4")
	require.NoError(t, err)
	assert.Equal(t, "1 purchases, 1 pending", v)
}
