package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/pkg/validator"
)

// CatalogService manages one kind of reference entity: categories,
// suppliers, customers or product attributes.
type CatalogService[T any] struct {
	core   *Core
	entity string
	repo   func(db *gorm.DB) repository.CatalogRepository[T]
	base   func(item *T) *model.BaseModel
	// identity returns the columns that must be unique among live rows
	identity func(item *T) map[string]interface{}
	// apply copies editable fields from src onto dst
	apply func(dst, src *T)
	// references counts documents that still point at id
	references func(tx *gorm.DB, id uuid.UUID) (int64, error)
}

func NewCategoryService(core *Core) *CatalogService[model.Category] {
	return &CatalogService[model.Category]{
		core:   core,
		entity: "category",
		repo:   core.Repos.Categories.WithTx,
		base:   func(c *model.Category) *model.BaseModel { return &c.BaseModel },
		identity: func(c *model.Category) map[string]interface{} {
			return map[string]interface{}{"name": c.Name}
		},
		apply: func(dst, src *model.Category) {
			dst.Name = src.Name
		},
		references: func(tx *gorm.DB, id uuid.UUID) (int64, error) {
			return core.Repos.Products.WithTx(tx).CountByCategory(id)
		},
	}
}

func NewSupplierService(core *Core) *CatalogService[model.Supplier] {
	return &CatalogService[model.Supplier]{
		core:   core,
		entity: "supplier",
		repo:   core.Repos.Suppliers.WithTx,
		base:   func(s *model.Supplier) *model.BaseModel { return &s.BaseModel },
		identity: func(s *model.Supplier) map[string]interface{} {
			return map[string]interface{}{"name": s.Name}
		},
		apply: func(dst, src *model.Supplier) {
			dst.Name = src.Name
			dst.Phone = src.Phone
			dst.Email = src.Email
			dst.Address = src.Address
		},
		references: func(tx *gorm.DB, id uuid.UUID) (int64, error) {
			receipts, err := core.Repos.Receipts.WithTx(tx).CountBySupplier(id)
			if err != nil {
				return 0, err
			}
			returns, err := core.Repos.Returns.WithTx(tx).CountSupplierReturnsBySupplier(id)
			return receipts + returns, err
		},
	}
}

func NewCustomerService(core *Core) *CatalogService[model.Customer] {
	return &CatalogService[model.Customer]{
		core:   core,
		entity: "customer",
		repo:   core.Repos.Customers.WithTx,
		base:   func(c *model.Customer) *model.BaseModel { return &c.BaseModel },
		identity: func(c *model.Customer) map[string]interface{} {
			return map[string]interface{}{"name": c.Name, "phone": c.Phone}
		},
		apply: func(dst, src *model.Customer) {
			dst.Name = src.Name
			dst.Phone = src.Phone
			dst.Address = src.Address
		},
		references: func(tx *gorm.DB, id uuid.UUID) (int64, error) {
			return core.Repos.Invoices.WithTx(tx).CountByCustomer(id)
		},
	}
}

func NewAttributeService(core *Core) *CatalogService[model.ProductAttribute] {
	return &CatalogService[model.ProductAttribute]{
		core:   core,
		entity: "attribute",
		repo:   core.Repos.Attributes.WithTx,
		base:   func(a *model.ProductAttribute) *model.BaseModel { return &a.BaseModel },
		identity: func(a *model.ProductAttribute) map[string]interface{} {
			return map[string]interface{}{"name": a.Name}
		},
		apply: func(dst, src *model.ProductAttribute) {
			dst.Name = src.Name
		},
		references: func(tx *gorm.DB, id uuid.UUID) (int64, error) {
			return core.Repos.Products.WithTx(tx).CountByAttribute(id)
		},
	}
}

func (s *CatalogService[T]) Entity() string {
	return s.entity
}

func (s *CatalogService[T]) checkUnique(db *gorm.DB, item *T, self uuid.UUID) error {
	conds := s.identity(item)
	existing, err := s.repo(db).FindOne(conds)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if s.base(existing).ID != self {
		return apperr.ErrDuplicate.Msgf("%s already exists", s.entity).With("entity", s.entity)
	}
	return nil
}

func (s *CatalogService[T]) Create(ctx context.Context, item *T, actor Actor) (*T, error) {
	if err := validator.Check(item); err != nil {
		return nil, err
	}
	fresh := new(T)
	s.apply(fresh, item)
	trimName(fresh)

	var created *T
	err := s.core.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkUnique(tx, fresh, uuid.Nil); err != nil {
			return err
		}
		b := s.base(fresh)
		b.CreatedBy = actor.By()
		b.UpdatedBy = actor.By()
		if err := s.repo(tx).Create(fresh); err != nil {
			return err
		}
		created = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *CatalogService[T]) Update(ctx context.Context, id uuid.UUID, item *T, actor Actor) (*T, error) {
	if err := validator.Check(item); err != nil {
		return nil, err
	}
	var updated *T
	err := s.core.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo(tx).FindByID(id)
		if err != nil {
			return notFound(err, s.entity, id)
		}
		s.apply(existing, item)
		trimName(existing)
		if err := s.checkUnique(tx, existing, id); err != nil {
			return err
		}
		s.base(existing).UpdatedBy = actor.By()
		if err := s.repo(tx).Save(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes the row unless a document or product still refers to it
func (s *CatalogService[T]) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	return s.core.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo(tx).FindByID(id); err != nil {
			return notFound(err, s.entity, id)
		}
		count, err := s.references(tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperr.ErrReferenced.
				Msgf("%s is still used by %d record(s)", s.entity, count).
				With("entity", s.entity).
				With("references", count)
		}
		return s.repo(tx).Delete(id, actor.By())
	})
}

func (s *CatalogService[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	item, err := s.repo(s.core.DB.WithContext(ctx)).FindByID(id)
	if err != nil {
		return nil, notFound(err, s.entity, id)
	}
	return item, nil
}

func (s *CatalogService[T]) List(ctx context.Context, search string) ([]T, error) {
	return s.repo(s.core.DB.WithContext(ctx)).FindAll(search)
}

// trimName strips surrounding spaces from the Name field every catalog
// entity carries
func trimName(item any) {
	switch v := item.(type) {
	case *model.Category:
		v.Name = strings.TrimSpace(v.Name)
	case *model.Supplier:
		v.Name = strings.TrimSpace(v.Name)
	case *model.Customer:
		v.Name = strings.TrimSpace(v.Name)
		v.Phone = strings.TrimSpace(v.Phone)
	case *model.ProductAttribute:
		v.Name = strings.TrimSpace(v.Name)
	}
}
