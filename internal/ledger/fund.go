package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
)

type FundEntry struct {
	Type          model.FundType
	Amount        decimal.Decimal
	Currency      string
	Rate          decimal.Decimal
	Reason        string
	OccurredAt    time.Time
	System        bool
	ReferenceType string
	ReferenceID   *uuid.UUID
	UserID        *uuid.UUID
}

// FundLedger appends cash movements. Entries are never edited.
type FundLedger struct {
	funds        repository.FundRepository
	baseCurrency string
}

func NewFundLedger(funds repository.FundRepository, baseCurrency string) *FundLedger {
	return &FundLedger{funds: funds, baseCurrency: baseCurrency}
}

func (f *FundLedger) BaseCurrency() string {
	return f.baseCurrency
}

// Append validates e, freezes amount × rate into the entry and writes it
func (f *FundLedger) Append(tx *gorm.DB, e FundEntry) (*model.FundTransaction, error) {
	if e.Type != model.FundIn && e.Type != model.FundOut {
		return nil, apperr.Invalid("fund type must be IN or OUT")
	}
	if !e.Amount.IsPositive() {
		return nil, apperr.Invalid("fund amount must be greater than zero").With("field", "amount")
	}
	if e.Currency == "" {
		e.Currency = f.baseCurrency
	}
	if e.Currency == f.baseCurrency {
		e.Rate = decimal.NewFromInt(1)
	}
	if !e.Rate.IsPositive() {
		return nil, apperr.Invalid("exchange rate for %s must be greater than zero", e.Currency).With("field", "exchange_rate")
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	entry := &model.FundTransaction{
		Type:                      e.Type,
		Amount:                    e.Amount,
		Currency:                  e.Currency,
		ExchangeRateAtTransaction: e.Rate,
		AmountInBaseCurrency:      e.Amount.Mul(e.Rate),
		Reason:                    e.Reason,
		OccurredAt:                e.OccurredAt,
		IsSystemGenerated:         e.System,
		ReferenceType:             e.ReferenceType,
		ReferenceID:               e.ReferenceID,
		UserID:                    e.UserID,
	}
	if err := f.funds.WithTx(tx).Create(entry); err != nil {
		return nil, err
	}
	return entry, nil
}
