package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"go-minimart-pos/internal/apperr"
)

// seedSales leaves one paid sale of 14000 with one unit returned, and one
// unpaid sale of 7000
func seedSales(t *testing.T, f *fixture) {
	t.Helper()
	p := f.product("COLA", 10, 5000, 8000, 7000)
	customer := f.customer("Binh")
	sales := NewSalesService(f.core)

	paid, err := sales.Checkout(f.ctx, &CheckoutRequest{Lines: []SaleLine{{ProductID: p.ID, Quantity: 2}}, Paid: true}, f.actor)
	require.NoError(t, err)
	_, err = sales.Checkout(f.ctx, &CheckoutRequest{Lines: []SaleLine{{ProductID: p.ID, Quantity: 1}}, CustomerID: &customer.ID}, f.actor)
	require.NoError(t, err)
	_, err = NewReturnService(f.core).ReturnFromInvoice(f.ctx, paid.ID, &CustomerReturnRequest{
		Lines: []CustomerReturnLine{{ProductID: &p.ID, Quantity: 1}},
	}, f.actor)
	require.NoError(t, err)
}

func TestReport_FinancialSummary(t *testing.T) {
	f := newFixture(t)
	seedSales(t, f)

	summary, err := NewReportService(f.core).FinancialSummary(f.ctx, Period{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.InvoiceCount)
	assertDecimal(t, "21000", summary.NetRevenue)
	assertDecimal(t, "15000", summary.CostOfGoodsSold)
	assertDecimal(t, "7000", summary.Refunds)
	assertDecimal(t, "-1000", summary.GrossProfit)
	assertDecimal(t, "14000", summary.AmountCollected)
	assert.Equal(t, f.now.AddDate(0, 0, -30), summary.From)

	_, err = NewReportService(f.core).FinancialSummary(f.ctx, Period{From: f.now, To: f.now.AddDate(0, 0, -1)})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestReport_DailyTopAndDebts(t *testing.T) {
	f := newFixture(t)
	seedSales(t, f)
	reports := NewReportService(f.core)

	days, err := reports.DailyProfit(f.ctx, Period{})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-03-10", days[0].Date)
	assertDecimal(t, "-1000", days[0].Profit)

	top, err := reports.TopSelling(f.ctx, Period{}, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.EqualValues(t, 3, top[0].BaseQuantity)

	employees, err := reports.SalesByEmployee(f.ctx, Period{})
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Linh Cashier", employees[0].FullName)

	debts, err := reports.Debts(f.ctx)
	require.NoError(t, err)
	assertDecimal(t, "7000", debts.TotalReceivables)
	assert.True(t, debts.TotalPayables.IsZero())

	dashboard, err := reports.Dashboard(f.ctx)
	require.NoError(t, err)
	assertDecimal(t, "21000", dashboard.TodayRevenue)
	assert.EqualValues(t, 2, dashboard.TodayInvoices)
	assertDecimal(t, "40000", dashboard.InventoryValue)
}

func TestReport_ExportFinancialWorkbook(t *testing.T) {
	f := newFixture(t)
	seedSales(t, f)

	data, err := NewReportService(f.core).ExportFinancial(f.ctx, Period{})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Summary", "Daily"}, wb.GetSheetList())

	profit, err := wb.GetCellValue("Summary", "B9")
	require.NoError(t, err)
	assert.Equal(t, "-1000", profit)

	rows, err := wb.GetRows("Daily")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-03-10", rows[1][0])
}
