package repository

import (
	"go-minimart-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GoodsReceiptRepository interface {
	WithTx(tx *gorm.DB) GoodsReceiptRepository
	Create(receipt *model.GoodsReceipt) error
	FindByID(id uuid.UUID) (*model.GoodsReceipt, error)
	LockByID(id uuid.UUID) (*model.GoodsReceipt, error)
	FindAll(filter DocumentFilter) ([]model.GoodsReceipt, error)
	UpdatePayment(id uuid.UUID, amountPaid decimal.Decimal, status model.PaymentStatus, updatedBy string) error
	ReturnedBaseQuantities(receiptID uuid.UUID) (map[uuid.UUID]int, error)
	CountBySupplier(supplierID uuid.UUID) (int64, error)
}

type goodsReceiptRepo struct {
	db *gorm.DB
}

func NewGoodsReceiptRepo(db *gorm.DB) GoodsReceiptRepository {
	return &goodsReceiptRepo{db}
}

func (r *goodsReceiptRepo) WithTx(tx *gorm.DB) GoodsReceiptRepository {
	return &goodsReceiptRepo{tx}
}

func (r *goodsReceiptRepo) Create(receipt *model.GoodsReceipt) error {
	return r.db.Omit("Supplier", "User").Create(receipt).Error
}

func (r *goodsReceiptRepo) FindByID(id uuid.UUID) (*model.GoodsReceipt, error) {
	var receipt model.GoodsReceipt
	err := r.db.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Preload("Supplier").
		Preload("User").
		First(&receipt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *goodsReceiptRepo) LockByID(id uuid.UUID) (*model.GoodsReceipt, error) {
	var receipt model.GoodsReceipt
	err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		First(&receipt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *goodsReceiptRepo) FindAll(filter DocumentFilter) ([]model.GoodsReceipt, error) {
	var receipts []model.GoodsReceipt
	q := r.db.Preload("Supplier").Preload("User")
	if filter.From != nil {
		q = q.Where("received_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("received_at <= ?", *filter.To)
	}
	if filter.PartyID != nil {
		q = q.Where("supplier_id = ?", *filter.PartyID)
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
	err := q.Order("received_at DESC").Find(&receipts).Error
	return receipts, err
}

func (r *goodsReceiptRepo) UpdatePayment(id uuid.UUID, amountPaid decimal.Decimal, status model.PaymentStatus, updatedBy string) error {
	return r.db.Model(&model.GoodsReceipt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount_paid":    amountPaid,
			"payment_status": status,
			"updated_by":     updatedBy,
		}).Error
}

// ReturnedBaseQuantities sums base units already sent back per product
// against one receipt
func (r *goodsReceiptRepo) ReturnedBaseQuantities(receiptID uuid.UUID) (map[uuid.UUID]int, error) {
	type row struct {
		ProductID uuid.UUID
		Quantity  int
	}
	var rows []row
	err := r.db.Model(&model.SupplierReturnSlipDetail{}).
		Select("supplier_return_slip_details.product_id, SUM(supplier_return_slip_details.quantity * supplier_return_slip_details.conversion_factor) AS quantity").
		Joins("JOIN supplier_return_slips ON supplier_return_slips.id = supplier_return_slip_details.supplier_return_slip_id").
		Where("supplier_return_slips.goods_receipt_id = ? AND supplier_return_slips.deleted_at IS NULL", receiptID).
		Group("supplier_return_slip_details.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		result[r.ProductID] = r.Quantity
	}
	return result, nil
}

func (r *goodsReceiptRepo) CountBySupplier(supplierID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.GoodsReceipt{}).Where("supplier_id = ?", supplierID).Count(&count).Error
	return count, err
}
