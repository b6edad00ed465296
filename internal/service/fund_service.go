package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/ledger"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/pkg/validator"
)

type FundService interface {
	CreateEntry(ctx context.Context, req *FundEntryRequest, actor Actor) (*model.FundTransaction, error)
	List(ctx context.Context, filter repository.FundFilter) ([]model.FundTransaction, error)
	Balance(ctx context.Context, from, to *time.Time) (*FundBalance, error)
	SetRate(ctx context.Context, currency string, rate decimal.Decimal, actor Actor) (*model.ExchangeRate, error)
	ListRates(ctx context.Context) ([]model.ExchangeRate, error)
}

type FundEntryRequest struct {
	Type     model.FundType  `json:"type" validate:"required,oneof=IN OUT"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency string          `json:"currency"`
	Reason   string          `json:"reason" validate:"required"`
}

type FundBalance struct {
	BaseCurrency string                       `json:"base_currency"`
	Currencies   []repository.CurrencyBalance `json:"currencies"`
	TotalInBase  decimal.Decimal              `json:"total_in_base"`
}

type fundService struct {
	core *Core
}

func NewFundService(core *Core) FundService {
	return &fundService{core: core}
}

// CreateEntry records a manual cash movement converted at the current rate
func (s *fundService) CreateEntry(ctx context.Context, req *FundEntryRequest, actor Actor) (*model.FundTransaction, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	currency, err := s.core.normalizeCurrency(strings.ToUpper(req.Currency))
	if err != nil {
		return nil, err
	}

	var entry *model.FundTransaction
	err = s.core.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rate, err := s.core.rate(tx, currency)
		if err != nil {
			return err
		}
		entry, err = s.core.Funds.Append(tx, ledger.FundEntry{
			Type:       req.Type,
			Amount:     req.Amount,
			Currency:   currency,
			Rate:       rate.RateToBase,
			Reason:     req.Reason,
			OccurredAt: s.core.now(),
			System:     false,
			UserID:     actor.ID(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.core.Log.Info("manual fund entry",
		zap.String("type", string(entry.Type)),
		zap.String("amount", entry.Amount.String()),
		zap.String("currency", entry.Currency),
		zap.String("user", actor.By()),
	)
	return entry, nil
}

func (s *fundService) List(ctx context.Context, filter repository.FundFilter) ([]model.FundTransaction, error) {
	return s.core.Repos.Funds.WithTx(s.core.DB.WithContext(ctx)).FindAll(filter)
}

func (s *fundService) Balance(ctx context.Context, from, to *time.Time) (*FundBalance, error) {
	balances, err := s.core.Repos.Funds.WithTx(s.core.DB.WithContext(ctx)).Balances(from, to)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.NetInBase)
	}
	return &FundBalance{
		BaseCurrency: s.core.BaseCurrency,
		Currencies:   balances,
		TotalInBase:  total,
	}, nil
}

// SetRate changes the rate used for future entries. Existing entries keep
// the rate they were written with.
func (s *fundService) SetRate(ctx context.Context, currency string, rate decimal.Decimal, actor Actor) (*model.ExchangeRate, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return nil, apperr.MissingField("currency")
	}
	if currency == s.core.BaseCurrency {
		return nil, apperr.Invalid("the base currency %s always has rate 1", currency).With("field", "currency")
	}
	if !model.IsSupportedCurrency(currency) {
		return nil, apperr.Invalid("unsupported currency '%s'", currency).With("field", "currency")
	}
	if !rate.IsPositive() {
		return nil, apperr.Invalid("exchange rate must be greater than zero").With("field", "rate_to_base")
	}

	r := &model.ExchangeRate{
		Currency:   currency,
		RateToBase: rate,
		UpdatedAt:  s.core.now(),
		UpdatedBy:  actor.By(),
	}
	if err := s.core.Repos.Funds.WithTx(s.core.DB.WithContext(ctx)).UpsertRate(r); err != nil {
		return nil, err
	}
	s.core.Log.Info("exchange rate set", zap.String("currency", currency), zap.String("rate", rate.String()))
	return r, nil
}

// ListRates returns the table with the base currency first at rate 1
func (s *fundService) ListRates(ctx context.Context) ([]model.ExchangeRate, error) {
	rates, err := s.core.Repos.Funds.WithTx(s.core.DB.WithContext(ctx)).FindRates()
	if err != nil {
		return nil, err
	}
	out := []model.ExchangeRate{{Currency: s.core.BaseCurrency, RateToBase: decimalOne}}
	for _, r := range rates {
		if r.Currency != s.core.BaseCurrency {
			out = append(out, r)
		}
	}
	return out, nil
}
