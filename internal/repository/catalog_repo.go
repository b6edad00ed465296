package repository

import (
	"strings"

	"go-minimart-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository covers the simple reference entities: categories,
// suppliers, customers and product attributes.
type CatalogRepository[T any] interface {
	WithTx(tx *gorm.DB) CatalogRepository[T]
	Create(item *T) error
	Save(item *T) error
	Delete(id uuid.UUID, deletedBy string) error
	FindAll(search string) ([]T, error)
	FindByID(id uuid.UUID) (*T, error)
	FindOne(conds map[string]interface{}) (*T, error)
}

type catalogRepo[T any] struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CatalogRepository[model.Category] {
	return &catalogRepo[model.Category]{db}
}

func NewSupplierRepo(db *gorm.DB) CatalogRepository[model.Supplier] {
	return &catalogRepo[model.Supplier]{db}
}

func NewCustomerRepo(db *gorm.DB) CatalogRepository[model.Customer] {
	return &catalogRepo[model.Customer]{db}
}

func NewAttributeRepo(db *gorm.DB) CatalogRepository[model.ProductAttribute] {
	return &catalogRepo[model.ProductAttribute]{db}
}

func (r *catalogRepo[T]) WithTx(tx *gorm.DB) CatalogRepository[T] {
	return &catalogRepo[T]{tx}
}

func (r *catalogRepo[T]) Create(item *T) error {
	return r.db.Create(item).Error
}

func (r *catalogRepo[T]) Save(item *T) error {
	return r.db.Save(item).Error
}

func (r *catalogRepo[T]) Delete(id uuid.UUID, deletedBy string) error {
	if err := r.db.Model(new(T)).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(new(T), "id = ?", id).Error
}

func (r *catalogRepo[T]) FindAll(search string) ([]T, error) {
	var items []T
	q := r.db.Model(new(T))
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	err := q.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *catalogRepo[T]) FindByID(id uuid.UUID) (*T, error) {
	item := new(T)
	if err := r.db.First(item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *catalogRepo[T]) FindOne(conds map[string]interface{}) (*T, error) {
	item := new(T)
	if err := r.db.Where(conds).First(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}
