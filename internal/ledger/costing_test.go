package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestWeightedAverageCost(t *testing.T) {
	tests := []struct {
		name     string
		cost     int64
		stock    int
		lineCost decimal.Decimal
		qty      int
		want     decimal.Decimal
	}{
		{"mixes with existing stock", 1000, 10, d(1600), 5, d(1200)},
		{"empty stock takes line cost", 1000, 0, d(1600), 5, d(1600)},
		{"rounds to cost scale", 100, 2, d(200), 1, decimal.RequireFromString("133.3333")},
		{"nothing received keeps cost", 1000, 10, d(1600), 0, d(1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedAverageCost(d(tt.cost), tt.stock, tt.lineCost, tt.qty)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestCostPerBaseUnit(t *testing.T) {
	assert.True(t, d(1000).Equal(CostPerBaseUnit(d(24000), d(1), 24)))
	assert.True(t, d(600).Equal(CostPerBaseUnit(d(2), d(7200), 24)), "foreign currency converted before division")
	assert.True(t, d(50).Equal(CostPerBaseUnit(d(50), d(1), 0)))
}

func TestApplyPayment_Transitions(t *testing.T) {
	total := d(10000)

	paid, status, err := ApplyPayment(total, decimal.Zero, d(4000))
	require.NoError(t, err)
	assert.True(t, d(4000).Equal(paid))
	assert.Equal(t, model.PaymentPartial, status)

	paid, status, err = ApplyPayment(total, paid, d(6000))
	require.NoError(t, err)
	assert.True(t, d(10000).Equal(paid))
	assert.Equal(t, model.PaymentPaid, status)

	_, status, err = ApplyPayment(total, paid, d(1))
	assert.True(t, errors.Is(err, apperr.ErrInvalidPaymentAmount))
	assert.Equal(t, model.PaymentPaid, status)
}

func TestApplyPayment_Rejects(t *testing.T) {
	for _, amount := range []decimal.Decimal{decimal.Zero, d(-5), d(10001)} {
		_, _, err := ApplyPayment(d(10000), decimal.Zero, amount)
		assert.True(t, errors.Is(err, apperr.ErrInvalidPaymentAmount), amount.String())
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, model.PaymentUnpaid, StatusFor(d(100), decimal.Zero))
	assert.Equal(t, model.PaymentPartial, StatusFor(d(100), d(1)))
	assert.Equal(t, model.PaymentPaid, StatusFor(d(100), d(100)))
	assert.Equal(t, model.PaymentPaid, StatusFor(decimal.Zero, decimal.Zero))
}
