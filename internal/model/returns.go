package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReturnSlip struct {
	BaseModel
	InvoiceID   uuid.UUID          `gorm:"type:uuid;index;not null" json:"invoice_id"`
	CustomerID  *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	UserID      *uuid.UUID         `gorm:"type:uuid" json:"user_id,omitempty"`
	ReturnedAt  time.Time          `gorm:"index;not null" json:"returned_at"`
	TotalRefund decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"total_refund"`
	Reason      string             `gorm:"type:text" json:"reason"`
	Details     []ReturnSlipDetail `gorm:"constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

type ReturnSlipDetail struct {
	EntryModel
	ReturnSlipID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"return_slip_id"`
	LineNo           int             `gorm:"not null" json:"line_no"`
	InvoiceDetailID  uuid.UUID       `gorm:"type:uuid;index;not null" json:"invoice_detail_id"`
	ProductID        uuid.UUID       `gorm:"type:uuid;index;not null" json:"product_id"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitName         string          `gorm:"type:varchar(30);not null" json:"unit_name"`
	ConversionFactor int             `gorm:"not null" json:"conversion_factor"`
	RefundPerUnit    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"refund_per_unit"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_total"`
}

type SupplierReturnSlip struct {
	BaseModel
	SupplierID     uuid.UUID                  `gorm:"type:uuid;index;not null" json:"supplier_id"`
	Supplier       *Supplier                  `json:"supplier,omitempty"`
	GoodsReceiptID *uuid.UUID                 `gorm:"type:uuid;index" json:"goods_receipt_id,omitempty"`
	UserID         *uuid.UUID                 `gorm:"type:uuid" json:"user_id,omitempty"`
	ReturnedAt     time.Time                  `gorm:"index;not null" json:"returned_at"`
	TotalAmount    decimal.Decimal            `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	Reason         string                     `gorm:"type:text" json:"reason"`
	Details        []SupplierReturnSlipDetail `gorm:"constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

type SupplierReturnSlipDetail struct {
	EntryModel
	SupplierReturnSlipID uuid.UUID       `gorm:"type:uuid;index;not null" json:"supplier_return_slip_id"`
	LineNo               int             `gorm:"not null" json:"line_no"`
	ProductID            uuid.UUID       `gorm:"type:uuid;index;not null" json:"product_id"`
	Quantity             int             `gorm:"not null" json:"quantity"`
	UnitName             string          `gorm:"type:varchar(30);not null" json:"unit_name"`
	ConversionFactor     int             `gorm:"not null" json:"conversion_factor"`
	UnitCost             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	LineTotal            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_total"`
}

func (d *SupplierReturnSlipDetail) BaseQuantity() int {
	return d.Quantity * d.ConversionFactor
}
