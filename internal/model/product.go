package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	SKU               string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Barcode           string          `gorm:"type:varchar(64);index" json:"barcode"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Unit              string          `gorm:"type:varchar(30);not null" json:"unit" validate:"required"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cost_price"`
	RetailPrice       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"retail_price"`
	WholesalePrice    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"wholesale_price"`
	StockQuantity     int             `gorm:"not null;default:0" json:"stock_quantity"`
	MinimumStockLevel int             `gorm:"not null;default:0" json:"minimum_stock_level" validate:"gte=0"`

	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category  `json:"category,omitempty" validate:"-"`
	SupplierID *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier   *Supplier  `json:"supplier,omitempty" validate:"-"`

	Units           []ProductUnit           `gorm:"constraint:OnDelete:CASCADE" json:"units,omitempty" validate:"dive"`
	AttributeValues []ProductAttributeValue `gorm:"constraint:OnDelete:CASCADE" json:"attribute_values,omitempty" validate:"-"`
}

// IsLowStock reports whether the product has a minimum level and is at or under it
func (p *Product) IsLowStock() bool {
	return p.MinimumStockLevel > 0 && p.StockQuantity <= p.MinimumStockLevel
}

// ProductUnit is an alternate packaging unit, e.g. a case of 24 cans
type ProductUnit struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProductID        uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	Name             string    `gorm:"type:varchar(30);not null" json:"name" validate:"required"`
	ConversionFactor int       `gorm:"not null" json:"conversion_factor" validate:"required,gt=0,lte=100000"`
	Position         int       `gorm:"not null;default:0" json:"position"`
}
