package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GoodsReceipt struct {
	BaseModel
	SupplierID    uuid.UUID            `gorm:"type:uuid;index;not null" json:"supplier_id"`
	Supplier      *Supplier            `json:"supplier,omitempty"`
	UserID        *uuid.UUID           `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User          *User                `json:"user,omitempty"`
	ReceivedAt    time.Time            `gorm:"index;not null" json:"received_at"`
	TotalAmount   decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	PaymentStatus PaymentStatus        `gorm:"type:varchar(10);index;not null" json:"payment_status"`
	AmountPaid    decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"amount_paid"`
	Currency      string               `gorm:"type:varchar(5);not null" json:"currency"`
	ExchangeRate  decimal.Decimal      `gorm:"type:decimal(20,6);not null" json:"exchange_rate"`
	Note          string               `gorm:"type:text" json:"note"`
	Details       []GoodsReceiptDetail `gorm:"constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

func (g *GoodsReceipt) Outstanding() decimal.Decimal {
	return g.TotalAmount.Sub(g.AmountPaid)
}

// GoodsReceiptDetail keeps the entered cost (receipt currency, per entered
// unit) and the derived cost per base unit in base currency.
type GoodsReceiptDetail struct {
	EntryModel
	GoodsReceiptID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"goods_receipt_id"`
	LineNo           int             `gorm:"not null" json:"line_no"`
	ProductID        uuid.UUID       `gorm:"type:uuid;index;not null" json:"product_id"`
	Product          *Product        `json:"product,omitempty"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitName         string          `gorm:"type:varchar(30);not null" json:"unit_name"`
	ConversionFactor int             `gorm:"not null" json:"conversion_factor"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cost_price"`
	CostPerBaseUnit  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cost_per_base_unit"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_total"`
}

func (d *GoodsReceiptDetail) BaseQuantity() int {
	return d.Quantity * d.ConversionFactor
}
