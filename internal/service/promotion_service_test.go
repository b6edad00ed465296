package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
)

func TestPromotion_ApplicableSortedByDiscount(t *testing.T) {
	f := newFixture(t)
	promotions := NewPromotionService(f.core)
	window := func(req PromotionRequest) *PromotionRequest {
		req.StartDate = f.now.AddDate(0, 0, -7)
		req.EndDate = f.now.AddDate(0, 0, 7)
		return &req
	}

	_, err := promotions.Create(f.ctx, window(PromotionRequest{Name: "5 percent", Type: model.PromotionPercent, Value: dec(5)}), f.actor)
	require.NoError(t, err)
	_, err = promotions.Create(f.ctx, window(PromotionRequest{Name: "20k off", Type: model.PromotionFixedAmount, Value: dec(20000), MinimumSpend: dec(100000)}), f.actor)
	require.NoError(t, err)
	inactive := false
	_, err = promotions.Create(f.ctx, window(PromotionRequest{Name: "Paused", Type: model.PromotionPercent, Value: dec(50), IsActive: &inactive}), f.actor)
	require.NoError(t, err)

	small, err := promotions.Applicable(f.ctx, dec(50000))
	require.NoError(t, err)
	require.Len(t, small, 1)
	assert.Equal(t, "5 percent", small[0].Name)
	assertDecimal(t, "2500", small[0].Discount)

	large, err := promotions.Applicable(f.ctx, dec(200000))
	require.NoError(t, err)
	require.Len(t, large, 2)
	assert.Equal(t, "20k off", large[0].Name)
	assertDecimal(t, "20000", large[0].Discount)
}

func TestPromotion_Validation(t *testing.T) {
	f := newFixture(t)
	promotions := NewPromotionService(f.core)
	base := PromotionRequest{
		Name:      "Too much",
		Type:      model.PromotionPercent,
		Value:     dec(150),
		StartDate: f.now,
		EndDate:   f.now.AddDate(0, 1, 0),
	}

	req := base
	_, err := promotions.Create(f.ctx, &req, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	req = base
	req.Value = dec(10)
	req.EndDate = f.now.AddDate(0, 0, -1)
	_, err = promotions.Create(f.ctx, &req, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	req = base
	req.Value = dec(0)
	_, err = promotions.Create(f.ctx, &req, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	req = base
	req.Value = dec(10)
	created, err := promotions.Create(f.ctx, &req, f.actor)
	require.NoError(t, err)
	dup := base
	dup.Value = dec(10)
	_, err = promotions.Create(f.ctx, &dup, f.actor)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	require.NoError(t, promotions.Delete(f.ctx, created.ID, f.actor))
	_, err = promotions.Get(f.ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
