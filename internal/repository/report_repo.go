package repository

import (
	"time"

	"go-minimart-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesTotals aggregates invoices in a period
type SalesTotals struct {
	InvoiceCount    int64           `json:"invoice_count"`
	GrossSales      decimal.Decimal `json:"gross_sales"`
	Discounts       decimal.Decimal `json:"discounts"`
	NetRevenue      decimal.Decimal `json:"net_revenue"`
	CostOfGoodsSold decimal.Decimal `json:"cost_of_goods_sold"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
}

type DailySales struct {
	Date       string
	NetRevenue decimal.Decimal
	Cost       decimal.Decimal
	Refunds    decimal.Decimal
}

type ProductSales struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	BaseQuantity int64           `json:"base_quantity"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type CategorySales struct {
	CategoryID   *uuid.UUID      `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type EmployeeSales struct {
	UserID       *uuid.UUID      `json:"user_id"`
	FullName     string          `json:"full_name"`
	InvoiceCount int64           `json:"invoice_count"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type SupplierPurchases struct {
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	ReceiptCount int64           `json:"receipt_count"`
	TotalInBase  decimal.Decimal `json:"total_in_base"`
}

type PartyDebt struct {
	PartyID     *uuid.UUID      `json:"party_id"`
	PartyName   string          `json:"party_name"`
	Documents   int64           `json:"documents"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type ReportRepository interface {
	WithTx(tx *gorm.DB) ReportRepository
	SalesTotals(from, to time.Time) (*SalesTotals, error)
	RefundTotal(from, to time.Time) (decimal.Decimal, error)
	SupplierReturnTotal(from, to time.Time) (decimal.Decimal, error)
	PurchaseTotal(from, to time.Time) (decimal.Decimal, error)
	DailySales(from, to time.Time) ([]DailySales, error)
	TopSelling(from, to time.Time, limit int) ([]ProductSales, error)
	SalesByCategory(from, to time.Time) ([]CategorySales, error)
	SalesByEmployee(from, to time.Time) ([]EmployeeSales, error)
	PurchasesBySupplier(from, to time.Time) ([]SupplierPurchases, error)
	Receivables() ([]PartyDebt, error)
	Payables() ([]PartyDebt, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func (r *reportRepo) WithTx(tx *gorm.DB) ReportRepository {
	return &reportRepo{tx}
}

var openStatuses = []model.PaymentStatus{model.PaymentUnpaid, model.PaymentPartial}

func (r *reportRepo) SalesTotals(from, to time.Time) (*SalesTotals, error) {
	var totals SalesTotals
	err := r.db.Model(&model.Invoice{}).
		Select(`
			COUNT(*) AS invoice_count,
			COALESCE(SUM(subtotal), 0) AS gross_sales,
			COALESCE(SUM(discount_amount), 0) AS discounts,
			COALESCE(SUM(total_amount), 0) AS net_revenue,
			COALESCE(SUM(total_cost), 0) AS cost_of_goods_sold,
			COALESCE(SUM(amount_paid), 0) AS amount_collected
		`).
		Where("creation_date BETWEEN ? AND ?", from, to).
		Scan(&totals).Error
	return &totals, err
}

func (r *reportRepo) sum(m interface{}, expr, dateColumn string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Model(m).
		Select("COALESCE(SUM("+expr+"), 0)").
		Where(dateColumn+" BETWEEN ? AND ?", from, to).
		Scan(&total).Error
	return total, err
}

func (r *reportRepo) RefundTotal(from, to time.Time) (decimal.Decimal, error) {
	return r.sum(&model.ReturnSlip{}, "total_refund", "returned_at", from, to)
}

func (r *reportRepo) SupplierReturnTotal(from, to time.Time) (decimal.Decimal, error) {
	return r.sum(&model.SupplierReturnSlip{}, "total_amount", "returned_at", from, to)
}

// PurchaseTotal converts each receipt with its own snapshot rate
func (r *reportRepo) PurchaseTotal(from, to time.Time) (decimal.Decimal, error) {
	return r.sum(&model.GoodsReceipt{}, "total_amount * exchange_rate", "received_at", from, to)
}

// DailySales buckets revenue, cost and refunds by UTC day
func (r *reportRepo) DailySales(from, to time.Time) ([]DailySales, error) {
	var invoices []model.Invoice
	err := r.db.Select("creation_date", "total_amount", "total_cost").
		Where("creation_date BETWEEN ? AND ?", from, to).
		Order("creation_date ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	var slips []model.ReturnSlip
	err = r.db.Select("returned_at", "total_refund").
		Where("returned_at BETWEEN ? AND ?", from, to).
		Find(&slips).Error
	if err != nil {
		return nil, err
	}

	var days []DailySales
	index := map[string]int{}
	bucket := func(t time.Time) *DailySales {
		key := t.UTC().Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			days = append(days, DailySales{Date: key, NetRevenue: decimal.Zero, Cost: decimal.Zero, Refunds: decimal.Zero})
			i = len(days) - 1
			index[key] = i
		}
		return &days[i]
	}
	for _, inv := range invoices {
		b := bucket(inv.CreationDate)
		b.NetRevenue = b.NetRevenue.Add(inv.TotalAmount)
		b.Cost = b.Cost.Add(inv.TotalCost)
	}
	for _, s := range slips {
		b := bucket(s.ReturnedAt)
		b.Refunds = b.Refunds.Add(s.TotalRefund)
	}
	return days, nil
}

func (r *reportRepo) details(from, to time.Time) *gorm.DB {
	return r.db.Table("invoice_details").
		Joins("JOIN invoices ON invoices.id = invoice_details.invoice_id").
		Where("invoices.deleted_at IS NULL AND invoices.creation_date BETWEEN ? AND ?", from, to)
}

// TopSelling ranks products by Σ quantity × conversion factor at sale
func (r *reportRepo) TopSelling(from, to time.Time, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.details(from, to).
		Select(`
			invoice_details.product_id AS product_id,
			MAX(invoice_details.product_name) AS product_name,
			SUM(invoice_details.quantity * invoice_details.conversion_factor_at_sale) AS base_quantity,
			COALESCE(SUM(invoice_details.line_total), 0) AS revenue
		`).
		Group("invoice_details.product_id").
		Order("base_quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) SalesByCategory(from, to time.Time) ([]CategorySales, error) {
	var rows []CategorySales
	err := r.details(from, to).
		Select(`
			products.category_id AS category_id,
			COALESCE(MAX(categories.name), '') AS category_name,
			COALESCE(SUM(invoice_details.quantity * invoice_details.price_per_unit_at_sale), 0) AS revenue
		`).
		Joins("LEFT JOIN products ON products.id = invoice_details.product_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Group("products.category_id").
		Order("revenue DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) SalesByEmployee(from, to time.Time) ([]EmployeeSales, error) {
	var rows []EmployeeSales
	err := r.db.Table("invoices").
		Select(`
			invoices.user_id AS user_id,
			COALESCE(MAX(users.full_name), '') AS full_name,
			COUNT(*) AS invoice_count,
			COALESCE(SUM(invoices.total_amount), 0) AS revenue
		`).
		Joins("LEFT JOIN users ON users.id = invoices.user_id").
		Where("invoices.deleted_at IS NULL AND invoices.creation_date BETWEEN ? AND ?", from, to).
		Group("invoices.user_id").
		Order("revenue DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) PurchasesBySupplier(from, to time.Time) ([]SupplierPurchases, error) {
	var rows []SupplierPurchases
	err := r.db.Table("goods_receipts").
		Select(`
			goods_receipts.supplier_id AS supplier_id,
			COALESCE(MAX(suppliers.name), '') AS supplier_name,
			COUNT(*) AS receipt_count,
			COALESCE(SUM(goods_receipts.total_amount * goods_receipts.exchange_rate), 0) AS total_in_base
		`).
		Joins("LEFT JOIN suppliers ON suppliers.id = goods_receipts.supplier_id").
		Where("goods_receipts.deleted_at IS NULL AND goods_receipts.received_at BETWEEN ? AND ?", from, to).
		Group("goods_receipts.supplier_id").
		Order("total_in_base DESC").
		Scan(&rows).Error
	return rows, err
}

// Receivables groups open invoices by customer; walk-in sales have no party
func (r *reportRepo) Receivables() ([]PartyDebt, error) {
	var rows []PartyDebt
	err := r.db.Table("invoices").
		Select(`
			invoices.customer_id AS party_id,
			COALESCE(MAX(customers.name), '') AS party_name,
			COUNT(*) AS documents,
			COALESCE(SUM(invoices.total_amount - invoices.amount_paid), 0) AS outstanding
		`).
		Joins("LEFT JOIN customers ON customers.id = invoices.customer_id").
		Where("invoices.deleted_at IS NULL AND invoices.payment_status IN ?", openStatuses).
		Group("invoices.customer_id").
		Order("outstanding DESC").
		Scan(&rows).Error
	return rows, err
}

// Payables groups open receipts by supplier, in base currency
func (r *reportRepo) Payables() ([]PartyDebt, error) {
	var rows []PartyDebt
	err := r.db.Table("goods_receipts").
		Select(`
			goods_receipts.supplier_id AS party_id,
			COALESCE(MAX(suppliers.name), '') AS party_name,
			COUNT(*) AS documents,
			COALESCE(SUM((goods_receipts.total_amount - goods_receipts.amount_paid) * goods_receipts.exchange_rate), 0) AS outstanding
		`).
		Joins("LEFT JOIN suppliers ON suppliers.id = goods_receipts.supplier_id").
		Where("goods_receipts.deleted_at IS NULL AND goods_receipts.payment_status IN ?", openStatuses).
		Group("goods_receipts.supplier_id").
		Order("outstanding DESC").
		Scan(&rows).Error
	return rows, err
}
