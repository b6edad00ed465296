package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

type Invoice struct {
	BaseModel
	CreationDate         time.Time       `gorm:"index;not null" json:"creation_date"`
	Subtotal             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	DiscountAmount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"discount_amount"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	TotalCost            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_cost"`
	PaymentStatus        PaymentStatus   `gorm:"type:varchar(10);index;not null" json:"payment_status"`
	AmountPaid           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount_paid"`
	CustomerID           *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer             *Customer       `json:"customer,omitempty"`
	UserID               *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User                 *User           `json:"user,omitempty"`
	PromotionID          *uuid.UUID      `gorm:"type:uuid" json:"promotion_id,omitempty"`
	AppliedPromotionName *string         `gorm:"type:varchar(255)" json:"applied_promotion_name,omitempty"`
	IsReturned           bool            `gorm:"not null;default:false" json:"is_returned"`
	Note                 string          `gorm:"type:text" json:"note"`
	Details              []InvoiceDetail `gorm:"constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

func (i *Invoice) Outstanding() decimal.Decimal {
	return i.TotalAmount.Sub(i.AmountPaid)
}

// InvoiceDetail snapshots price, cost and unit at the moment of sale
type InvoiceDetail struct {
	EntryModel
	InvoiceID              uuid.UUID       `gorm:"type:uuid;index;not null" json:"invoice_id"`
	LineNo                 int             `gorm:"not null" json:"line_no"`
	ProductID              uuid.UUID       `gorm:"type:uuid;index;not null" json:"product_id"`
	Product                *Product        `json:"product,omitempty"`
	ProductName            string          `gorm:"type:varchar(255)" json:"product_name"`
	Quantity               int             `gorm:"not null" json:"quantity"`
	UnitName               string          `gorm:"type:varchar(30);not null" json:"unit_name"`
	ConversionFactorAtSale int             `gorm:"not null" json:"conversion_factor_at_sale"`
	PricePerUnitAtSale     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price_per_unit_at_sale"`
	CostPriceAtSale        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cost_price_at_sale"`
	LineDiscount           decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"line_discount"`
	LineTotal              decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_total"`
}

func (d *InvoiceDetail) BaseQuantity() int {
	return d.Quantity * d.ConversionFactorAtSale
}

type PromotionType string

const (
	PromotionPercent     PromotionType = "PERCENT"
	PromotionFixedAmount PromotionType = "FIXED_AMOUNT"
)

type Promotion struct {
	BaseModel
	Name         string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	Type         PromotionType   `gorm:"type:varchar(20);not null" json:"type" validate:"required,oneof=PERCENT FIXED_AMOUNT"`
	Value        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"value"`
	MinimumSpend decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"minimum_spend"`
	StartDate    time.Time       `gorm:"not null" json:"start_date" validate:"required"`
	EndDate      time.Time       `gorm:"not null" json:"end_date" validate:"required"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
}
