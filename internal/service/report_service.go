package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/repository"
)

const defaultTopSelling = 10

type ReportService interface {
	FinancialSummary(ctx context.Context, period Period) (*FinancialSummary, error)
	DailyProfit(ctx context.Context, period Period) ([]DailyProfit, error)
	TopSelling(ctx context.Context, period Period, limit int) ([]repository.ProductSales, error)
	SalesByCategory(ctx context.Context, period Period) ([]repository.CategorySales, error)
	SalesByEmployee(ctx context.Context, period Period) ([]repository.EmployeeSales, error)
	PurchasesBySupplier(ctx context.Context, period Period) ([]repository.SupplierPurchases, error)
	Debts(ctx context.Context) (*DebtSummary, error)
	Dashboard(ctx context.Context) (*DashboardStats, error)
	StockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	ExportFinancial(ctx context.Context, period Period) ([]byte, error)
}

// Period is an inclusive date range. Zero values default to the last 30 days.
type Period struct {
	From time.Time
	To   time.Time
}

type FinancialSummary struct {
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	InvoiceCount    int64           `json:"invoice_count"`
	GrossSales      decimal.Decimal `json:"gross_sales"`
	Discounts       decimal.Decimal `json:"discounts"`
	NetRevenue      decimal.Decimal `json:"net_revenue"`
	CostOfGoodsSold decimal.Decimal `json:"cost_of_goods_sold"`
	Refunds         decimal.Decimal `json:"refunds"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	Purchases       decimal.Decimal `json:"purchases"`
	SupplierReturns decimal.Decimal `json:"supplier_returns"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
}

type DailyProfit struct {
	Date       string          `json:"date"`
	NetRevenue decimal.Decimal `json:"net_revenue"`
	Cost       decimal.Decimal `json:"cost"`
	Refunds    decimal.Decimal `json:"refunds"`
	Profit     decimal.Decimal `json:"profit"`
}

type DebtSummary struct {
	Receivables      []repository.PartyDebt `json:"receivables"`
	Payables         []repository.PartyDebt `json:"payables"`
	TotalReceivables decimal.Decimal        `json:"total_receivables"`
	TotalPayables    decimal.Decimal        `json:"total_payables"`
}

type DashboardStats struct {
	TodayRevenue     decimal.Decimal `json:"today_revenue"`
	TodayInvoices    int64           `json:"today_invoices"`
	TotalReceivables decimal.Decimal `json:"total_receivables"`
	TotalPayables    decimal.Decimal `json:"total_payables"`
	InventoryValue   decimal.Decimal `json:"inventory_value"`
	LowStockCount    int             `json:"low_stock_count"`
}

type reportService struct {
	core *Core
}

func NewReportService(core *Core) ReportService {
	return &reportService{core: core}
}

func (s *reportService) reports(ctx context.Context) repository.ReportRepository {
	return s.core.Repos.Reports.WithTx(s.core.DB.WithContext(ctx))
}

func (s *reportService) normalize(p Period) (Period, error) {
	if p.To.IsZero() {
		p.To = s.core.now()
	}
	if p.From.IsZero() {
		p.From = p.To.AddDate(0, 0, -30)
	}
	if p.To.Before(p.From) {
		return p, apperr.Invalid("report period ends before it starts").With("field", "to")
	}
	return p, nil
}

// FinancialSummary. Gross profit is net revenue minus cost of goods sold
// minus customer refunds.
func (s *reportService) FinancialSummary(ctx context.Context, period Period) (*FinancialSummary, error) {
	p, err := s.normalize(period)
	if err != nil {
		return nil, err
	}
	reports := s.reports(ctx)

	totals, err := reports.SalesTotals(p.From, p.To)
	if err != nil {
		return nil, err
	}
	refunds, err := reports.RefundTotal(p.From, p.To)
	if err != nil {
		return nil, err
	}
	purchases, err := reports.PurchaseTotal(p.From, p.To)
	if err != nil {
		return nil, err
	}
	supplierReturns, err := reports.SupplierReturnTotal(p.From, p.To)
	if err != nil {
		return nil, err
	}

	return &FinancialSummary{
		From:            p.From,
		To:              p.To,
		InvoiceCount:    totals.InvoiceCount,
		GrossSales:      totals.GrossSales,
		Discounts:       totals.Discounts,
		NetRevenue:      totals.NetRevenue,
		CostOfGoodsSold: totals.CostOfGoodsSold,
		Refunds:         refunds,
		GrossProfit:     totals.NetRevenue.Sub(totals.CostOfGoodsSold).Sub(refunds),
		Purchases:       purchases,
		SupplierReturns: supplierReturns,
		AmountCollected: totals.AmountCollected,
	}, nil
}

func (s *reportService) DailyProfit(ctx context.Context, period Period) ([]DailyProfit, error) {
	p, err := s.normalize(period)
	if err != nil {
		return nil, err
	}
	days, err := s.reports(ctx).DailySales(p.From, p.To)
	if err != nil {
		return nil, err
	}
	out := make([]DailyProfit, 0, len(days))
	for _, d := range days {
		out = append(out, DailyProfit{
			Date:       d.Date,
			NetRevenue: d.NetRevenue,
			Cost:       d.Cost,
			Refunds:    d.Refunds,
			Profit:     d.NetRevenue.Sub(d.Cost).Sub(d.Refunds),
		})
	}
	return out, nil
}

func (s *reportService) TopSelling(ctx context.Context, period Period, limit int) ([]repository.ProductSales, error) {
	p, err := s.normalize(period)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopSelling
	}
	return s.reports(ctx).TopSelling(p.From, p.To, limit)
}

func (s *reportService) SalesByCategory(ctx context.Context, period Period) ([]repository.CategorySales, error) {
	p, err := s.normalize(period)
	if err != nil {
		return nil, err
	}
	return s.reports(ctx).SalesByCategory(p.From, p.To)
}

func (s *reportService) SalesByEmployee(ctx context.Context, period Period) ([]repository.EmployeeSales, error) {
	p, err := s.normalize(period)
	if err != nil {
		return nil, err
	}
	return s.reports(ctx).SalesByEmployee(p.From, p.To)
}

func (s *reportService) PurchasesBySupplier(ctx context.Context, period Period) ([]repository.SupplierPurchases, error) {
	p, err := s.normalize(period)
	if err != nil {
		return nil, err
	}
	return s.reports(ctx).PurchasesBySupplier(p.From, p.To)
}

func (s *reportService) Debts(ctx context.Context) (*DebtSummary, error) {
	reports := s.reports(ctx)
	receivables, err := reports.Receivables()
	if err != nil {
		return nil, err
	}
	payables, err := reports.Payables()
	if err != nil {
		return nil, err
	}
	return &DebtSummary{
		Receivables:      receivables,
		Payables:         payables,
		TotalReceivables: sumDebts(receivables),
		TotalPayables:    sumDebts(payables),
	}, nil
}

func (s *reportService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := s.core.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	totals, err := s.reports(ctx).SalesTotals(startOfDay, now)
	if err != nil {
		return nil, err
	}
	debts, err := s.Debts(ctx)
	if err != nil {
		return nil, err
	}
	products := s.core.Repos.Products.WithTx(s.core.DB.WithContext(ctx))
	value, err := products.InventoryValue()
	if err != nil {
		return nil, err
	}
	low, err := products.FindLowStock()
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TodayRevenue:     totals.NetRevenue,
		TodayInvoices:    totals.InvoiceCount,
		TotalReceivables: debts.TotalReceivables,
		TotalPayables:    debts.TotalPayables,
		InventoryValue:   value,
		LowStockCount:    len(low),
	}, nil
}

func (s *reportService) StockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	endDate := s.core.now()
	startDate := endDate.AddDate(0, 0, -days)
	return s.core.Repos.Movements.WithTx(s.core.DB.WithContext(ctx)).GetStockMovement(startDate, endDate)
}

// ExportFinancial renders the summary and the daily series as an xlsx workbook
func (s *reportService) ExportFinancial(ctx context.Context, period Period) ([]byte, error) {
	summary, err := s.FinancialSummary(ctx, period)
	if err != nil {
		return nil, err
	}
	days, err := s.DailyProfit(ctx, Period{From: summary.From, To: summary.To})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	rows := [][]interface{}{
		{"From", summary.From.Format("2006-01-02")},
		{"To", summary.To.Format("2006-01-02")},
		{"Invoices", summary.InvoiceCount},
		{"Gross sales", summary.GrossSales.InexactFloat64()},
		{"Discounts", summary.Discounts.InexactFloat64()},
		{"Net revenue", summary.NetRevenue.InexactFloat64()},
		{"Cost of goods sold", summary.CostOfGoodsSold.InexactFloat64()},
		{"Refunds", summary.Refunds.InexactFloat64()},
		{"Gross profit", summary.GrossProfit.InexactFloat64()},
		{"Purchases", summary.Purchases.InexactFloat64()},
		{"Supplier returns", summary.SupplierReturns.InexactFloat64()},
		{"Collected", summary.AmountCollected.InexactFloat64()},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	const dailySheet = "Daily"
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, err
	}
	header := []interface{}{"Date", "Net revenue", "Cost", "Refunds", "Profit"}
	if err := f.SetSheetRow(dailySheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, d := range days {
		row := []interface{}{
			d.Date,
			d.NetRevenue.InexactFloat64(),
			d.Cost.InexactFloat64(),
			d.Refunds.InexactFloat64(),
			d.Profit.InexactFloat64(),
		}
		if err := f.SetSheetRow(dailySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sumDebts(rows []repository.PartyDebt) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Outstanding)
	}
	return total
}
