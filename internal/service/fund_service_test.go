package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
)

func TestFundService_ManualEntriesAndBalance(t *testing.T) {
	f := newFixture(t)
	funds := NewFundService(f.core)
	_, err := funds.SetRate(f.ctx, "THB", dec(700), f.actor)
	require.NoError(t, err)

	_, err = funds.CreateEntry(f.ctx, &FundEntryRequest{Type: model.FundIn, Amount: dec(500000), Reason: "Opening float"}, f.actor)
	require.NoError(t, err)
	_, err = funds.CreateEntry(f.ctx, &FundEntryRequest{Type: model.FundOut, Amount: dec(120000), Reason: "Electricity"}, f.actor)
	require.NoError(t, err)
	thb, err := funds.CreateEntry(f.ctx, &FundEntryRequest{Type: model.FundIn, Amount: dec(100), Currency: "thb", Reason: "Tourist sale"}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "THB", thb.Currency)
	assertDecimal(t, "70000", thb.AmountInBaseCurrency)
	assert.False(t, thb.IsSystemGenerated)

	balance, err := funds.Balance(f.ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "VND", balance.BaseCurrency)
	assertDecimal(t, "450000", balance.TotalInBase)
	require.Len(t, balance.Currencies, 2)

	onlyIn, err := funds.List(f.ctx, repository.FundFilter{Type: model.FundIn})
	require.NoError(t, err)
	assert.Len(t, onlyIn, 2)
}

func TestFundService_Rejections(t *testing.T) {
	f := newFixture(t)
	funds := NewFundService(f.core)

	_, err := funds.CreateEntry(f.ctx, &FundEntryRequest{Type: model.FundIn, Amount: dec(0), Reason: "x"}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = funds.CreateEntry(f.ctx, &FundEntryRequest{Type: model.FundIn, Amount: dec(10), Currency: "USD", Reason: "x"}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput, "USD has no rate yet")

	_, err = funds.SetRate(f.ctx, "VND", dec(2), f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = funds.SetRate(f.ctx, "EUR", dec(27000), f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	assert.Empty(t, f.funds())
}

func TestFundService_RatesListBaseFirst(t *testing.T) {
	f := newFixture(t)
	funds := NewFundService(f.core)
	_, err := funds.SetRate(f.ctx, "LAK", decimal.RequireFromString("1.15"), f.actor)
	require.NoError(t, err)
	_, err = funds.SetRate(f.ctx, "LAK", decimal.RequireFromString("1.2"), f.actor)
	require.NoError(t, err)

	rates, err := funds.ListRates(f.ctx)
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "VND", rates[0].Currency)
	assert.Equal(t, "LAK", rates[1].Currency)
	assertDecimal(t, "1.2", rates[1].RateToBase)
}
