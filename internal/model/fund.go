package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FundType string

const (
	FundIn  FundType = "IN"
	FundOut FundType = "OUT"
)

// FundTransaction is a cash movement; AmountInBaseCurrency is frozen at
// creation and never recomputed from later exchange rates.
type FundTransaction struct {
	EntryModel
	Type                      FundType        `gorm:"type:varchar(5);index;not null" json:"type"`
	Amount                    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency                  string          `gorm:"type:varchar(5);not null" json:"currency"`
	ExchangeRateAtTransaction decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"exchange_rate_at_transaction"`
	AmountInBaseCurrency      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount_in_base_currency"`
	Reason                    string          `gorm:"type:text" json:"reason"`
	OccurredAt                time.Time       `gorm:"index;not null" json:"occurred_at"`
	IsSystemGenerated         bool            `gorm:"not null;default:false" json:"is_system_generated"`
	ReferenceType             string          `gorm:"type:varchar(30)" json:"reference_type,omitempty"`
	ReferenceID               *uuid.UUID      `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	UserID                    *uuid.UUID      `gorm:"type:uuid" json:"user_id,omitempty"`
}

// ExchangeRate converts one unit of Currency into the base currency
type ExchangeRate struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Currency   string          `gorm:"type:varchar(5);uniqueIndex;not null" json:"currency"`
	RateToBase decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"rate_to_base"`
	UpdatedAt  time.Time       `json:"updated_at"`
	UpdatedBy  string          `json:"updated_by"`
}

// SupportedCurrencies lists the currencies the shop accepts
var SupportedCurrencies = []string{"VND", "LAK", "THB", "USD"}

func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// DebtPayment records one payment against an invoice or a goods receipt
type DebtPayment struct {
	EntryModel
	InvoiceID         *uuid.UUID      `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	GoodsReceiptID    *uuid.UUID      `gorm:"type:uuid;index" json:"goods_receipt_id,omitempty"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(5);not null" json:"currency"`
	StatusAfter       PaymentStatus   `gorm:"type:varchar(10);not null" json:"status_after"`
	PaidAt            time.Time       `gorm:"index;not null" json:"paid_at"`
	FundTransactionID uuid.UUID       `gorm:"type:uuid;not null" json:"fund_transaction_id"`
	UserID            *uuid.UUID      `gorm:"type:uuid" json:"user_id,omitempty"`
}
