package repository

import (
	"go-minimart-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReturnRepository interface {
	WithTx(tx *gorm.DB) ReturnRepository
	CreateReturnSlip(slip *model.ReturnSlip) error
	CreateSupplierReturn(slip *model.SupplierReturnSlip) error
	FindReturnSlipByID(id uuid.UUID) (*model.ReturnSlip, error)
	FindSupplierReturnByID(id uuid.UUID) (*model.SupplierReturnSlip, error)
	FindReturnSlips(filter DocumentFilter) ([]model.ReturnSlip, error)
	FindSupplierReturns(filter DocumentFilter) ([]model.SupplierReturnSlip, error)
	CountSupplierReturnsBySupplier(supplierID uuid.UUID) (int64, error)
}

type returnRepo struct {
	db *gorm.DB
}

func NewReturnRepo(db *gorm.DB) ReturnRepository {
	return &returnRepo{db}
}

func (r *returnRepo) WithTx(tx *gorm.DB) ReturnRepository {
	return &returnRepo{tx}
}

func (r *returnRepo) CreateReturnSlip(slip *model.ReturnSlip) error {
	return r.db.Create(slip).Error
}

func (r *returnRepo) CreateSupplierReturn(slip *model.SupplierReturnSlip) error {
	return r.db.Omit("Supplier").Create(slip).Error
}

func (r *returnRepo) FindReturnSlipByID(id uuid.UUID) (*model.ReturnSlip, error) {
	var slip model.ReturnSlip
	err := r.db.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		First(&slip, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &slip, nil
}

func (r *returnRepo) FindSupplierReturnByID(id uuid.UUID) (*model.SupplierReturnSlip, error) {
	var slip model.SupplierReturnSlip
	err := r.db.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Preload("Supplier").
		First(&slip, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &slip, nil
}

func (r *returnRepo) FindReturnSlips(filter DocumentFilter) ([]model.ReturnSlip, error) {
	var slips []model.ReturnSlip
	q := r.db.Preload("Details")
	if filter.From != nil {
		q = q.Where("returned_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("returned_at <= ?", *filter.To)
	}
	if filter.PartyID != nil {
		q = q.Where("customer_id = ?", *filter.PartyID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	err := q.Order("returned_at DESC").Find(&slips).Error
	return slips, err
}

func (r *returnRepo) FindSupplierReturns(filter DocumentFilter) ([]model.SupplierReturnSlip, error) {
	var slips []model.SupplierReturnSlip
	q := r.db.Preload("Details").Preload("Supplier")
	if filter.From != nil {
		q = q.Where("returned_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("returned_at <= ?", *filter.To)
	}
	if filter.PartyID != nil {
		q = q.Where("supplier_id = ?", *filter.PartyID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	err := q.Order("returned_at DESC").Find(&slips).Error
	return slips, err
}

func (r *returnRepo) CountSupplierReturnsBySupplier(supplierID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.SupplierReturnSlip{}).Where("supplier_id = ?", supplierID).Count(&count).Error
	return count, err
}
