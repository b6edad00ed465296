package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func beer() *model.Product {
	return &model.Product{
		Name:           "Beer",
		Unit:           "can",
		RetailPrice:    d(12000),
		WholesalePrice: d(11000),
		Units: []model.ProductUnit{
			{Name: "case", ConversionFactor: 24},
			{Name: "pack", ConversionFactor: 6},
		},
	}
}

func TestConversionFactor(t *testing.T) {
	p := beer()

	tests := []struct {
		unit string
		want int
	}{
		{"", 1},
		{"can", 1},
		{"CAN", 1},
		{"pack", 6},
		{"case", 24},
	}
	for _, tt := range tests {
		got, err := ConversionFactor(p, tt.unit)
		require.NoError(t, err, tt.unit)
		assert.Equal(t, tt.want, got, tt.unit)
	}

	_, err := ConversionFactor(p, "pallet")
	assert.True(t, errors.Is(err, apperr.ErrUnknownUnit))
}

func TestBasePrice(t *testing.T) {
	p := beer()
	assert.True(t, d(12000).Equal(BasePrice(p, TierRetail)))
	assert.True(t, d(11000).Equal(BasePrice(p, TierWholesale)))

	p.WholesalePrice = decimal.Zero
	assert.True(t, d(12000).Equal(BasePrice(p, TierWholesale)), "falls back to retail")
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("")
	require.NoError(t, err)
	assert.Equal(t, TierWholesale, tier)

	tier, err = ParseTier("retail")
	require.NoError(t, err)
	assert.Equal(t, TierRetail, tier)

	_, err = ParseTier("vip")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestUnitPrice(t *testing.T) {
	assert.True(t, d(71000).Equal(UnitPrice(d(12000), 6, d(1000))))
	assert.True(t, decimal.Zero.Equal(UnitPrice(d(100), 1, d(500))), "floored at zero")
}

func TestQuoteLine(t *testing.T) {
	q, err := QuoteLine(beer(), LineInput{Quantity: 2, Unit: "case", Tier: TierRetail})
	require.NoError(t, err)

	assert.Equal(t, "case", q.UnitName)
	assert.Equal(t, 24, q.Factor)
	assert.Equal(t, 48, q.BaseQuantity)
	assert.True(t, d(288000).Equal(q.UnitPrice))
	assert.True(t, d(576000).Equal(q.LineTotal))

	q, err = QuoteLine(beer(), LineInput{Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, "can", q.UnitName)
	assert.Equal(t, 3, q.BaseQuantity)
}

func TestBaseQuantity_Bounds(t *testing.T) {
	n, err := BaseQuantity(1000, 24)
	require.NoError(t, err)
	assert.Equal(t, 24000, n)

	n, err = BaseQuantity(math.MaxInt32, 1)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, n)

	for _, tc := range []struct {
		name             string
		quantity, factor int
	}{
		{"wraps int64", 6148914691236517205, 3},
		{"exceeds int32", math.MaxInt32/24 + 1, 24},
		{"zero quantity", 0, 24},
		{"negative quantity", -5, 1},
		{"zero factor", 5, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BaseQuantity(tc.quantity, tc.factor)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestQuoteLine_RejectsOverflow(t *testing.T) {
	_, err := QuoteLine(beer(), LineInput{Quantity: 6148914691236517205, Unit: "case"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestAvailableUnits(t *testing.T) {
	units := AvailableUnits(beer())
	require.Len(t, units, 3)
	assert.Equal(t, "can", units[0].Name)
	assert.True(t, units[0].IsBase)
	assert.Equal(t, "pack", units[1].Name)
	assert.Equal(t, "case", units[2].Name)
}
