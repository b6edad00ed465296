package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/ledger"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/pricing"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/pkg/validator"
)

type InventoryService interface {
	CreateProduct(ctx context.Context, req *ProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)
	AvailableUnits(ctx context.Context, id uuid.UUID) ([]pricing.UnitOption, error)
	AdjustStock(ctx context.Context, req *AdjustStockRequest, actor Actor) (*model.StockTransaction, error)
	Movements(ctx context.Context, filter repository.MovementFilter) ([]model.StockTransaction, error)
	LowStock(ctx context.Context) ([]model.Product, error)
	Reconcile(ctx context.Context, id uuid.UUID) (*Reconciliation, error)
}

type UnitRequest struct {
	Name             string `json:"name" validate:"required"`
	ConversionFactor int    `json:"conversion_factor" validate:"gt=0,lte=100000"`
}

type AttributeValueRequest struct {
	AttributeID uuid.UUID `json:"attribute_id" validate:"uuid_required"`
	Value       string    `json:"value" validate:"required"`
}

// ProductRequest. CostPrice and InitialStock are read on create only; after
// that cost follows receipts and stock follows the ledger.
type ProductRequest struct {
	SKU               string                  `json:"sku" validate:"required"`
	Barcode           string                  `json:"barcode"`
	Name              string                  `json:"name" validate:"required"`
	Unit              string                  `json:"unit" validate:"required"`
	CostPrice         decimal.Decimal         `json:"cost_price" validate:"gte=0"`
	RetailPrice       decimal.Decimal         `json:"retail_price" validate:"gte=0"`
	WholesalePrice    decimal.Decimal         `json:"wholesale_price" validate:"gte=0"`
	InitialStock      int                     `json:"initial_stock" validate:"gte=0,lte=2147483647"`
	MinimumStockLevel int                     `json:"minimum_stock_level" validate:"gte=0"`
	CategoryID        *uuid.UUID              `json:"category_id"`
	SupplierID        *uuid.UUID              `json:"supplier_id"`
	Units             []UnitRequest           `json:"units" validate:"dive"`
	Attributes        []AttributeValueRequest `json:"attributes" validate:"dive"`
}

type AdjustStockRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
}

type Reconciliation struct {
	ProductID     uuid.UUID `json:"product_id"`
	StockQuantity int       `json:"stock_quantity"`
	LedgerSum     int64     `json:"ledger_sum"`
	Consistent    bool      `json:"consistent"`
}

type inventoryService struct {
	core *Core
}

func NewInventoryService(core *Core) InventoryService {
	return &inventoryService{core: core}
}

func (req *ProductRequest) normalize() error {
	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if err := validator.Check(req); err != nil {
		return err
	}
	seen := map[string]bool{strings.ToLower(req.Unit): true}
	for i := range req.Units {
		req.Units[i].Name = strings.TrimSpace(req.Units[i].Name)
		key := strings.ToLower(req.Units[i].Name)
		if seen[key] {
			return apperr.Invalid("unit '%s' is defined twice", req.Units[i].Name).With("field", "units")
		}
		seen[key] = true
	}
	return nil
}

func (req *ProductRequest) units() []model.ProductUnit {
	units := make([]model.ProductUnit, 0, len(req.Units))
	for i, u := range req.Units {
		units = append(units, model.ProductUnit{Name: u.Name, ConversionFactor: u.ConversionFactor, Position: i})
	}
	return units
}

func (req *ProductRequest) attributeValues() []model.ProductAttributeValue {
	values := make([]model.ProductAttributeValue, 0, len(req.Attributes))
	for _, a := range req.Attributes {
		values = append(values, model.ProductAttributeValue{AttributeID: a.AttributeID, Value: strings.TrimSpace(a.Value)})
	}
	return values
}

// checkRefs verifies category, supplier and attributes exist
func (s *inventoryService) checkRefs(tx *gorm.DB, req *ProductRequest) error {
	if req.CategoryID != nil {
		if _, err := s.core.Repos.Categories.WithTx(tx).FindByID(*req.CategoryID); err != nil {
			return notFound(err, "category", *req.CategoryID)
		}
	}
	if req.SupplierID != nil {
		if _, err := s.core.Repos.Suppliers.WithTx(tx).FindByID(*req.SupplierID); err != nil {
			return notFound(err, "supplier", *req.SupplierID)
		}
	}
	for _, a := range req.Attributes {
		if _, err := s.core.Repos.Attributes.WithTx(tx).FindByID(a.AttributeID); err != nil {
			return notFound(err, "attribute", a.AttributeID)
		}
	}
	return nil
}

func (s *inventoryService) checkSKU(tx *gorm.DB, sku string, self uuid.UUID) error {
	existing, err := s.core.Repos.Products.WithTx(tx).FindBySKUWithDeleted(sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == self {
		return nil
	}
	if existing.DeletedAt.Valid {
		return apperr.ErrDuplicate.Msgf("SKU '%s' belongs to a deleted product", sku).
			With("field", "sku").
			With("product_id", existing.ID.String())
	}
	return apperr.ErrDuplicate.Msgf("SKU '%s' already exists", sku).With("field", "sku")
}

// createProduct inserts the product and posts any opening stock through the
// ledger. Shared with the workbook import.
func (s *inventoryService) createProduct(tx *gorm.DB, req *ProductRequest, actor Actor) (*model.Product, error) {
	if err := s.checkSKU(tx, req.SKU, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.checkRefs(tx, req); err != nil {
		return nil, err
	}

	product := &model.Product{
		SKU:               req.SKU,
		Barcode:           strings.TrimSpace(req.Barcode),
		Name:              req.Name,
		Unit:              req.Unit,
		CostPrice:         req.CostPrice.Round(ledger.CostScale),
		RetailPrice:       req.RetailPrice,
		WholesalePrice:    req.WholesalePrice,
		MinimumStockLevel: req.MinimumStockLevel,
		CategoryID:        req.CategoryID,
		SupplierID:        req.SupplierID,
		Units:             req.units(),
		AttributeValues:   req.attributeValues(),
	}
	product.CreatedBy = actor.By()
	product.UpdatedBy = actor.By()
	if err := s.core.Repos.Products.WithTx(tx).Create(product); err != nil {
		return nil, err
	}

	if req.InitialStock > 0 {
		_, err := s.core.Stock.Apply(tx, product, ledger.Movement{
			Delta:         req.InitialStock,
			Type:          model.MovementAdjustUp,
			Reason:        "Opening stock",
			OccurredAt:    s.core.now(),
			Sequence:      1,
			ReferenceType: model.RefAdjustment,
			ReferenceID:   &product.ID,
			UserID:        actor.ID(),
		})
		if err != nil {
			return nil, err
		}
	}
	return product, nil
}

func (s *inventoryService) CreateProduct(ctx context.Context, req *ProductRequest, actor Actor) (*model.Product, error) {
	// 1. Validate request
	if err := req.normalize(); err != nil {
		return nil, err
	}

	// 2. Insert with opening stock
	var product *model.Product
	err := s.core.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		product, err = s.createProduct(tx, req, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.core.Log.Info("product created", zap.String("product_id", product.ID.String()), zap.String("sku", product.SKU))
	s.core.Notifier.Publish("stock_update", map[string]interface{}{
		"action": "product_created",
		"product": map[string]interface{}{
			"id":    product.ID,
			"sku":   product.SKU,
			"name":  product.Name,
			"stock": product.StockQuantity,
			"price": product.RetailPrice,
		},
		"user":    actor.payload(),
		"message": fmt.Sprintf("%s created product '%s'", actor.Name, product.Name),
	})
	return s.GetProduct(ctx, product.ID)
}

// updateProduct rewrites descriptive fields, units and attribute values.
// Stock and cost are left alone.
func (s *inventoryService) updateProduct(tx *gorm.DB, existing *model.Product, req *ProductRequest, actor Actor) error {
	if err := s.checkSKU(tx, req.SKU, existing.ID); err != nil {
		return err
	}
	if err := s.checkRefs(tx, req); err != nil {
		return err
	}

	existing.SKU = req.SKU
	existing.Barcode = strings.TrimSpace(req.Barcode)
	existing.Name = req.Name
	existing.Unit = req.Unit
	existing.RetailPrice = req.RetailPrice
	existing.WholesalePrice = req.WholesalePrice
	existing.MinimumStockLevel = req.MinimumStockLevel
	existing.CategoryID = req.CategoryID
	existing.SupplierID = req.SupplierID
	existing.UpdatedBy = actor.By()

	repo := s.core.Repos.Products.WithTx(tx)
	if err := repo.Update(existing); err != nil {
		return err
	}
	if err := repo.ReplaceUnits(existing.ID, req.units()); err != nil {
		return err
	}
	return repo.ReplaceAttributeValues(existing.ID, req.attributeValues())
}

func (s *inventoryService) UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	err := s.core.commit(ctx, []string{productKey(id)}, func(tx *gorm.DB) error {
		locked, err := s.core.Repos.Products.WithTx(tx).LockByIDs([]uuid.UUID{id})
		if err != nil {
			return err
		}
		existing, ok := locked[id]
		if !ok {
			return apperr.NotFound("product", id)
		}
		return s.updateProduct(tx, existing, req, actor)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.core.Notifier.Publish("stock_update", map[string]interface{}{
		"action": "product_updated",
		"product": map[string]interface{}{
			"id":    updated.ID,
			"sku":   updated.SKU,
			"name":  updated.Name,
			"stock": updated.StockQuantity,
			"price": updated.RetailPrice,
		},
		"user":    actor.payload(),
		"message": fmt.Sprintf("%s updated product '%s'", actor.Name, updated.Name),
	})
	return updated, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error {
	err := s.core.commit(ctx, []string{productKey(id)}, func(tx *gorm.DB) error {
		if _, err := s.core.Repos.Products.WithTx(tx).FindByID(id); err != nil {
			return notFound(err, "product", id)
		}
		return s.core.Repos.Products.WithTx(tx).Delete(id, actor.By())
	})
	if err != nil {
		return err
	}
	s.core.Notifier.Publish("stock_update", map[string]interface{}{
		"action":  "product_deleted",
		"product": map[string]interface{}{"id": id},
		"user":    actor.payload(),
	})
	return nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.core.Repos.Products.WithTx(s.core.DB.WithContext(ctx)).FindByID(id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return p, nil
}

func (s *inventoryService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	return s.core.Repos.Products.WithTx(s.core.DB.WithContext(ctx)).FindAll(filter)
}

func (s *inventoryService) AvailableUnits(ctx context.Context, id uuid.UUID) ([]pricing.UnitOption, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return pricing.AvailableUnits(p), nil
}

// AdjustStock posts a manual correction. Positive deltas are ADJUST_UP,
// negative ADJUST_DOWN; stock may not go below zero.
func (s *inventoryService) AdjustStock(ctx context.Context, req *AdjustStockRequest, actor Actor) (*model.StockTransaction, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if req.Delta == 0 {
		return nil, apperr.Invalid("adjustment quantity must not be zero").With("field", "delta")
	}
	if req.Delta > pricing.MaxQuantity || req.Delta < -pricing.MaxQuantity {
		return nil, apperr.Invalid("adjustment quantity must be within %d", pricing.MaxQuantity).
			With("field", "delta").
			With("limit", pricing.MaxQuantity)
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return nil, apperr.MissingField("reason")
	}

	var (
		entry   *model.StockTransaction
		product *model.Product
	)
	err := s.core.commit(ctx, []string{productKey(req.ProductID)}, func(tx *gorm.DB) error {
		products, err := s.core.lockProducts(tx, []uuid.UUID{req.ProductID})
		if err != nil {
			return err
		}
		product = products[req.ProductID]

		movementType := model.MovementAdjustUp
		if req.Delta < 0 {
			movementType = model.MovementAdjustDown
			if err := checkAvailability(products, map[uuid.UUID]int{product.ID: -req.Delta}); err != nil {
				return err
			}
		}
		entry, err = s.core.Stock.Apply(tx, product, ledger.Movement{
			Delta:         req.Delta,
			Type:          movementType,
			Reason:        req.Reason,
			OccurredAt:    s.core.now(),
			Sequence:      1,
			ReferenceType: model.RefAdjustment,
			UserID:        actor.ID(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.core.Log.Info("stock adjusted",
		zap.String("product_id", product.ID.String()),
		zap.Int("delta", req.Delta),
		zap.String("reason", req.Reason),
		zap.String("user", actor.By()),
	)
	s.core.notifyStock("adjustment", []*model.Product{product}, actor)
	return entry, nil
}

func (s *inventoryService) Movements(ctx context.Context, filter repository.MovementFilter) ([]model.StockTransaction, error) {
	return s.core.Repos.Movements.WithTx(s.core.DB.WithContext(ctx)).FindAll(filter)
}

func (s *inventoryService) LowStock(ctx context.Context) ([]model.Product, error) {
	return s.core.Repos.Products.WithTx(s.core.DB.WithContext(ctx)).FindLowStock()
}

// Reconcile compares the stored stock level with the sum of its movements
func (s *inventoryService) Reconcile(ctx context.Context, id uuid.UUID) (*Reconciliation, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	sum, err := s.core.Repos.Movements.WithTx(s.core.DB.WithContext(ctx)).SumByProduct(id)
	if err != nil {
		return nil, err
	}
	return &Reconciliation{
		ProductID:     id,
		StockQuantity: p.StockQuantity,
		LedgerSum:     sum,
		Consistent:    int64(p.StockQuantity) == sum,
	}, nil
}
