package repository

import (
	"time"

	"go-minimart-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentFilter struct {
	From     *time.Time
	To       *time.Time
	PartyID  *uuid.UUID // customer for invoices, supplier for receipts
	UserID   *uuid.UUID
	Statuses []model.PaymentStatus
	Limit    int
	Offset   int
}

type InvoiceRepository interface {
	WithTx(tx *gorm.DB) InvoiceRepository
	Create(invoice *model.Invoice) error
	FindByID(id uuid.UUID) (*model.Invoice, error)
	LockByID(id uuid.UUID) (*model.Invoice, error)
	FindAll(filter DocumentFilter) ([]model.Invoice, error)
	UpdatePayment(id uuid.UUID, amountPaid decimal.Decimal, status model.PaymentStatus, updatedBy string) error
	MarkReturned(id uuid.UUID, updatedBy string) error
	ReturnedQuantities(invoiceID uuid.UUID) (map[uuid.UUID]int, error)
	CountByCustomer(customerID uuid.UUID) (int64, error)
}

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db}
}

func (r *invoiceRepo) WithTx(tx *gorm.DB) InvoiceRepository {
	return &invoiceRepo{tx}
}

func (r *invoiceRepo) Create(invoice *model.Invoice) error {
	return r.db.Omit("Customer", "User").Create(invoice).Error
}

func (r *invoiceRepo) FindByID(id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Preload("Customer").
		Preload("User").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// LockByID loads the invoice FOR UPDATE so payments and returns against the
// same invoice serialize
func (r *invoiceRepo) LockByID(id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepo) FindAll(filter DocumentFilter) ([]model.Invoice, error) {
	var invoices []model.Invoice
	q := r.db.Preload("Customer").Preload("User")
	if filter.From != nil {
		q = q.Where("creation_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("creation_date <= ?", *filter.To)
	}
	if filter.PartyID != nil {
		q = q.Where("customer_id = ?", *filter.PartyID)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("payment_status IN ?", filter.Statuses)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	err := q.Order("creation_date DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) UpdatePayment(id uuid.UUID, amountPaid decimal.Decimal, status model.PaymentStatus, updatedBy string) error {
	return r.db.Model(&model.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount_paid":    amountPaid,
			"payment_status": status,
			"updated_by":     updatedBy,
		}).Error
}

func (r *invoiceRepo) MarkReturned(id uuid.UUID, updatedBy string) error {
	return r.db.Model(&model.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_returned": true,
			"updated_by":  updatedBy,
		}).Error
}

// ReturnedQuantities sums quantities already returned per invoice detail
func (r *invoiceRepo) ReturnedQuantities(invoiceID uuid.UUID) (map[uuid.UUID]int, error) {
	type row struct {
		InvoiceDetailID uuid.UUID
		Quantity        int
	}
	var rows []row
	err := r.db.Model(&model.ReturnSlipDetail{}).
		Select("return_slip_details.invoice_detail_id, SUM(return_slip_details.quantity) AS quantity").
		Joins("JOIN return_slips ON return_slips.id = return_slip_details.return_slip_id").
		Where("return_slips.invoice_id = ? AND return_slips.deleted_at IS NULL", invoiceID).
		Group("return_slip_details.invoice_detail_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		result[r.InvoiceDetailID] = r.Quantity
	}
	return result, nil
}

func (r *invoiceRepo) CountByCustomer(customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Invoice{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}
