package repository

import (
	"strings"

	"go-minimart-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	Search     string
	CategoryID *uuid.UUID
	SupplierID *uuid.UUID
}

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(product *model.Product) error
	Update(product *model.Product) error
	Delete(id uuid.UUID, deletedBy string) error
	FindAll(filter ProductFilter) ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindBySKU(sku string) (*model.Product, error)
	LockByIDs(ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	FindBySKUWithDeleted(sku string) (*model.Product, error)
	LockByIDsWithDeleted(ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	UpdateStock(id uuid.UUID, delta int, updatedBy string) error
	UpdateCost(id uuid.UUID, cost decimal.Decimal, updatedBy string) error
	ReplaceUnits(productID uuid.UUID, units []model.ProductUnit) error
	ReplaceAttributeValues(productID uuid.UUID, values []model.ProductAttributeValue) error
	FindLowStock() ([]model.Product, error)
	CountByCategory(categoryID uuid.UUID) (int64, error)
	CountByAttribute(attributeID uuid.UUID) (int64, error)
	InventoryValue() (decimal.Decimal, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

func (r *productRepo) preload() *gorm.DB {
	return r.db.
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("AttributeValues.Attribute").
		Preload("Category").
		Preload("Supplier")
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Omit("Category", "Supplier").Create(product).Error
}

// Update writes descriptive columns only. Stock and cost change through the
// ledger.
func (r *productRepo) Update(product *model.Product) error {
	return r.db.Model(&model.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"sku":                 product.SKU,
			"barcode":             product.Barcode,
			"name":                product.Name,
			"unit":                product.Unit,
			"retail_price":        product.RetailPrice,
			"wholesale_price":     product.WholesalePrice,
			"minimum_stock_level": product.MinimumStockLevel,
			"category_id":         product.CategoryID,
			"supplier_id":         product.SupplierID,
			"updated_by":          product.UpdatedBy,
		}).Error
}

func (r *productRepo) Delete(id uuid.UUID, deletedBy string) error {
	if err := r.db.Model(&model.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Product{}, "id = ?", id).Error
}

func (r *productRepo) FindAll(filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	q := r.preload()
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR barcode = ?", like, like, s)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SupplierID != nil {
		q = q.Where("supplier_id = ?", *filter.SupplierID)
	}
	err := q.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.preload().First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Units").First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySKUWithDeleted also matches soft-deleted products, which still hold
// their SKU in the unique index
func (r *productRepo) FindBySKUWithDeleted(sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.Unscoped().First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// LockByIDs loads the products with SELECT ... FOR UPDATE in ascending id
// order so concurrent commits always lock rows in the same sequence.
func (r *productRepo) LockByIDs(ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	return r.lock(r.db, ids)
}

// LockByIDsWithDeleted also locks soft-deleted products, for documents that
// reverse an earlier sale or receipt
func (r *productRepo) LockByIDsWithDeleted(ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	return r.lock(r.db.Unscoped(), ids)
}

func (r *productRepo) lock(db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	var products []model.Product
	err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

// UpdateStock applies a relative change in base units. Deleted products are
// included so returns against old documents still reach their row.
func (r *productRepo) UpdateStock(id uuid.UUID, delta int, updatedBy string) error {
	return r.db.Unscoped().Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
			"updated_by":     updatedBy,
		}).Error
}

func (r *productRepo) UpdateCost(id uuid.UUID, cost decimal.Decimal, updatedBy string) error {
	return r.db.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cost_price": cost,
			"updated_by": updatedBy,
		}).Error
}

func (r *productRepo) ReplaceUnits(productID uuid.UUID, units []model.ProductUnit) error {
	if err := r.db.Where("product_id = ?", productID).Delete(&model.ProductUnit{}).Error; err != nil {
		return err
	}
	if len(units) == 0 {
		return nil
	}
	for i := range units {
		units[i].ID = 0
		units[i].ProductID = productID
		units[i].Position = i
	}
	return r.db.Create(&units).Error
}

func (r *productRepo) ReplaceAttributeValues(productID uuid.UUID, values []model.ProductAttributeValue) error {
	if err := r.db.Where("product_id = ?", productID).Delete(&model.ProductAttributeValue{}).Error; err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	for i := range values {
		values[i].ID = 0
		values[i].ProductID = productID
		values[i].Attribute = nil
	}
	return r.db.Create(&values).Error
}

func (r *productRepo) FindLowStock() ([]model.Product, error) {
	var products []model.Product
	err := r.db.
		Where("minimum_stock_level > 0 AND stock_quantity <= minimum_stock_level").
		Order("stock_quantity ASC, name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) CountByCategory(categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *productRepo) CountByAttribute(attributeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.ProductAttributeValue{}).
		Joins("JOIN products ON products.id = product_attribute_values.product_id AND products.deleted_at IS NULL").
		Where("product_attribute_values.attribute_id = ?", attributeID).
		Count(&count).Error
	return count, err
}

// InventoryValue is Σ cost_price × stock_quantity over live products
func (r *productRepo) InventoryValue() (decimal.Decimal, error) {
	var products []model.Product
	if err := r.db.Select("cost_price", "stock_quantity").Find(&products).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.CostPrice.Mul(decimal.NewFromInt(int64(p.StockQuantity))))
	}
	return total, nil
}
