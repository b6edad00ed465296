package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/internal/testutil"
)

func seedProduct(t *testing.T, db *gorm.DB) *model.Product {
	t.Helper()
	p := &model.Product{SKU: "SKU-1", Name: "Rice", Unit: "kg", RetailPrice: d(20000)}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestStockLedger_ApplyKeepsConservation(t *testing.T) {
	db := testutil.NewDB(t)
	products := repository.NewProductRepo(db)
	movements := repository.NewStockTransactionRepo(db)
	l := NewStockLedger(products, movements)
	p := seedProduct(t, db)

	at := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := l.Apply(tx, p, Movement{Delta: 10, Type: model.MovementReceipt, OccurredAt: at}); err != nil {
			return err
		}
		_, err := l.Apply(tx, p, Movement{Delta: -3, Type: model.MovementSale, OccurredAt: at, Sequence: 1})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 7, p.StockQuantity)

	stored, err := products.FindByID(p.ID)
	require.NoError(t, err)
	sum, err := movements.SumByProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(stored.StockQuantity), sum)
	assert.Equal(t, 7, stored.StockQuantity)
}

func TestStockLedger_RollbackLeavesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	products := repository.NewProductRepo(db)
	movements := repository.NewStockTransactionRepo(db)
	l := NewStockLedger(products, movements)
	p := seedProduct(t, db)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := l.Apply(tx, p, Movement{Delta: 5, Type: model.MovementAdjustUp}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	stored, err := products.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.StockQuantity)
	entries, err := movements.FindAll(repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStockLedger_RejectsZero(t *testing.T) {
	db := testutil.NewDB(t)
	l := NewStockLedger(repository.NewProductRepo(db), repository.NewStockTransactionRepo(db))
	_, err := l.Apply(db, seedProduct(t, db), Movement{Type: model.MovementAdjustUp})
	assert.Error(t, err)
}

func TestStockLedger_RejectsSignAgainstType(t *testing.T) {
	db := testutil.NewDB(t)
	products := repository.NewProductRepo(db)
	l := NewStockLedger(products, repository.NewStockTransactionRepo(db))
	p := seedProduct(t, db)

	cases := []Movement{
		{Delta: 3, Type: model.MovementSale},
		{Delta: 3, Type: model.MovementSupplierReturn},
		{Delta: 3, Type: model.MovementAdjustDown},
		{Delta: -3, Type: model.MovementReceipt},
		{Delta: -3, Type: model.MovementCustomerReturn},
		{Delta: -3, Type: model.MovementAdjustUp},
		{Delta: 3, Type: "TRANSFER"},
		{Delta: math.MinInt, Type: model.MovementAdjustDown},
		{Delta: math.MaxInt32 + 1, Type: model.MovementReceipt},
	}
	for _, m := range cases {
		_, err := l.Apply(db, p, m)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "%s %d", m.Type, m.Delta)
	}

	stored, err := products.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.StockQuantity)
	assert.Equal(t, 0, p.StockQuantity)
}

func TestStockTransaction_IsImmutable(t *testing.T) {
	db := testutil.NewDB(t)
	l := NewStockLedger(repository.NewProductRepo(db), repository.NewStockTransactionRepo(db))
	entry, err := l.Apply(db, seedProduct(t, db), Movement{Delta: 2, Type: model.MovementAdjustUp})
	require.NoError(t, err)

	entry.Reason = "edited"
	assert.ErrorIs(t, db.Save(entry).Error, model.ErrImmutableEntry)
	assert.ErrorIs(t, db.Delete(entry).Error, model.ErrImmutableEntry)
}

func TestFundLedger_Append(t *testing.T) {
	db := testutil.NewDB(t)
	funds := repository.NewFundRepo(db)
	f := NewFundLedger(funds, "VND")

	entry, err := f.Append(db, FundEntry{Type: model.FundOut, Amount: d(100), Currency: "USD", Rate: d(25000), System: true})
	require.NoError(t, err)
	assert.True(t, d(2500000).Equal(entry.AmountInBaseCurrency))

	entry, err = f.Append(db, FundEntry{Type: model.FundIn, Amount: d(5000), Rate: d(3)})
	require.NoError(t, err)
	assert.Equal(t, "VND", entry.Currency)
	assert.True(t, decimal.NewFromInt(1).Equal(entry.ExchangeRateAtTransaction), "base currency always converts at 1")

	_, err = f.Append(db, FundEntry{Type: model.FundIn, Amount: decimal.Zero})
	assert.Error(t, err)
	_, err = f.Append(db, FundEntry{Type: model.FundIn, Amount: d(1), Currency: "LAK"})
	assert.Error(t, err, "foreign currency needs a rate")

	all, err := funds.FindAll(repository.FundFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
