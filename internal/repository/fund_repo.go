package repository

import (
	"time"

	"go-minimart-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FundFilter struct {
	Type          model.FundType
	Currency      string
	SystemOnly    *bool
	ReferenceType string
	From          *time.Time
	To            *time.Time
	Limit         int
}

// CurrencyBalance is the net cash per currency, plus its base-currency value
// at the historical rates.
type CurrencyBalance struct {
	Currency     string          `json:"currency"`
	In           decimal.Decimal `json:"in"`
	Out          decimal.Decimal `json:"out"`
	Net          decimal.Decimal `json:"net"`
	NetInBase    decimal.Decimal `json:"net_in_base"`
	EntriesCount int             `json:"entries_count"`
}

type FundRepository interface {
	WithTx(tx *gorm.DB) FundRepository
	Create(entry *model.FundTransaction) error
	FindAll(filter FundFilter) ([]model.FundTransaction, error)
	Balances(from, to *time.Time) ([]CurrencyBalance, error)
	UpsertRate(rate *model.ExchangeRate) error
	FindRate(currency string) (*model.ExchangeRate, error)
	FindRates() ([]model.ExchangeRate, error)
	CreatePayment(payment *model.DebtPayment) error
	FindPayments(invoiceID, receiptID *uuid.UUID) ([]model.DebtPayment, error)
}

type fundRepo struct {
	db *gorm.DB
}

func NewFundRepo(db *gorm.DB) FundRepository {
	return &fundRepo{db}
}

func (r *fundRepo) WithTx(tx *gorm.DB) FundRepository {
	return &fundRepo{tx}
}

func (r *fundRepo) Create(entry *model.FundTransaction) error {
	return r.db.Create(entry).Error
}

func (r *fundRepo) query(filter FundFilter) *gorm.DB {
	q := r.db.Model(&model.FundTransaction{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Currency != "" {
		q = q.Where("currency = ?", filter.Currency)
	}
	if filter.SystemOnly != nil {
		q = q.Where("is_system_generated = ?", *filter.SystemOnly)
	}
	if filter.ReferenceType != "" {
		q = q.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.From != nil {
		q = q.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("occurred_at <= ?", *filter.To)
	}
	return q
}

func (r *fundRepo) FindAll(filter FundFilter) ([]model.FundTransaction, error) {
	var entries []model.FundTransaction
	q := r.query(filter)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Order("occurred_at DESC").Find(&entries).Error
	return entries, err
}

func (r *fundRepo) Balances(from, to *time.Time) ([]CurrencyBalance, error) {
	entries, err := r.FindAll(FundFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	var balances []CurrencyBalance
	index := map[string]int{}
	for _, e := range entries {
		i, ok := index[e.Currency]
		if !ok {
			balances = append(balances, CurrencyBalance{
				Currency:  e.Currency,
				In:        decimal.Zero,
				Out:       decimal.Zero,
				Net:       decimal.Zero,
				NetInBase: decimal.Zero,
			})
			i = len(balances) - 1
			index[e.Currency] = i
		}
		b := &balances[i]
		b.EntriesCount++
		if e.Type == model.FundIn {
			b.In = b.In.Add(e.Amount)
			b.NetInBase = b.NetInBase.Add(e.AmountInBaseCurrency)
		} else {
			b.Out = b.Out.Add(e.Amount)
			b.NetInBase = b.NetInBase.Sub(e.AmountInBaseCurrency)
		}
		b.Net = b.In.Sub(b.Out)
	}
	return balances, nil
}

func (r *fundRepo) UpsertRate(rate *model.ExchangeRate) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate_to_base", "updated_at", "updated_by"}),
	}).Create(rate).Error
}

func (r *fundRepo) FindRate(currency string) (*model.ExchangeRate, error) {
	var rate model.ExchangeRate
	if err := r.db.Where("currency = ?", currency).First(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *fundRepo) FindRates() ([]model.ExchangeRate, error) {
	var rates []model.ExchangeRate
	err := r.db.Order("currency ASC").Find(&rates).Error
	return rates, err
}

func (r *fundRepo) CreatePayment(payment *model.DebtPayment) error {
	return r.db.Create(payment).Error
}

func (r *fundRepo) FindPayments(invoiceID, receiptID *uuid.UUID) ([]model.DebtPayment, error) {
	var payments []model.DebtPayment
	q := r.db.Model(&model.DebtPayment{})
	if invoiceID != nil {
		q = q.Where("invoice_id = ?", *invoiceID)
	}
	if receiptID != nil {
		q = q.Where("goods_receipt_id = ?", *receiptID)
	}
	err := q.Order("paid_at ASC").Find(&payments).Error
	return payments, err
}
