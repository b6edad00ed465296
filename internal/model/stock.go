package model

import (
	"time"

	"github.com/google/uuid"
)

type StockMovementType string

const (
	MovementReceipt        StockMovementType = "RECEIPT"
	MovementSale           StockMovementType = "SALE"
	MovementCustomerReturn StockMovementType = "CUSTOMER_RETURN"
	MovementSupplierReturn StockMovementType = "SUPPLIER_RETURN"
	MovementAdjustUp       StockMovementType = "ADJUST_UP"
	MovementAdjustDown     StockMovementType = "ADJUST_DOWN"
)

// Reference types tie ledger rows back to the document that produced them
const (
	RefInvoice        = "INVOICE"
	RefGoodsReceipt   = "GOODS_RECEIPT"
	RefReturnSlip     = "RETURN_SLIP"
	RefSupplierReturn = "SUPPLIER_RETURN_SLIP"
	RefAdjustment     = "ADJUSTMENT"
	RefDebtPayment    = "DEBT_PAYMENT"
)

// StockTransaction is one signed change to a product's stock, in base units
type StockTransaction struct {
	EntryModel
	ProductID      uuid.UUID         `gorm:"type:uuid;index;not null" json:"product_id"`
	Product        *Product          `json:"product,omitempty"`
	QuantityChange int               `gorm:"not null" json:"quantity_change"`
	Type           StockMovementType `gorm:"type:varchar(20);index;not null" json:"type"`
	Reason         string            `gorm:"type:text" json:"reason"`
	OccurredAt     time.Time         `gorm:"index;not null" json:"occurred_at"`
	Sequence       int               `gorm:"not null;default:0" json:"sequence"`
	ReferenceType  string            `gorm:"type:varchar(30)" json:"reference_type,omitempty"`
	ReferenceID    *uuid.UUID        `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	UserID         *uuid.UUID        `gorm:"type:uuid" json:"user_id,omitempty"`
}
