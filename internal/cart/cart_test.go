package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/pricing"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestCart_AddLineMerges(t *testing.T) {
	c := New(uuid.New(), now)
	pid := uuid.New()

	first, err := c.AddLine(Line{ProductID: pid, Quantity: 2, Unit: "can"}, now)
	require.NoError(t, err)
	second, err := c.AddLine(Line{ProductID: pid, Quantity: 3, Unit: "can"}, now)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	_, err = c.AddLine(Line{ProductID: pid, Quantity: 1, Unit: "case"}, now)
	require.NoError(t, err)
	assert.Len(t, c.Lines, 2)
}

func TestCart_AddLineValidation(t *testing.T) {
	c := New(uuid.New(), now)

	_, err := c.AddLine(Line{Quantity: 1}, now)
	assert.True(t, errors.Is(err, apperr.ErrMissingRequiredField))

	_, err = c.AddLine(Line{ProductID: uuid.New(), Quantity: 0}, now)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = c.AddLine(Line{ProductID: uuid.New(), Quantity: 1, LineDiscount: decimal.NewFromInt(-1)}, now)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.True(t, c.IsEmpty())
}

func TestCart_QuantityLimit(t *testing.T) {
	c := New(uuid.New(), now)
	pid := uuid.New()

	line, err := c.AddLine(Line{ProductID: pid, Quantity: pricing.MaxQuantity, Unit: "can"}, now)
	require.NoError(t, err)

	_, err = c.AddLine(Line{ProductID: pid, Quantity: 1, Unit: "can"}, now)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "merge past the limit")
	assert.Equal(t, pricing.MaxQuantity, c.Lines[0].Quantity)

	_, err = c.AddLine(Line{ProductID: uuid.New(), Quantity: pricing.MaxQuantity + 1}, now)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	err = c.UpdateLine(line.ID, 6148914691236517205, now)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Len(t, c.Lines, 1)
}

func TestCart_UpdateAndRemove(t *testing.T) {
	c := New(uuid.New(), now)
	l, err := c.AddLine(Line{ProductID: uuid.New(), Quantity: 2}, now)
	require.NoError(t, err)

	require.NoError(t, c.UpdateLine(l.ID, 7, now))
	assert.Equal(t, 7, c.Lines[0].Quantity)

	require.NoError(t, c.UpdateLine(l.ID, 0, now))
	assert.True(t, c.IsEmpty())

	err = c.RemoveLine(l.ID, now)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	user := uuid.New()

	_, err := s.Get(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrCartNotFound))

	a := New(user, now)
	_, err = a.AddLine(Line{ProductID: uuid.New(), Quantity: 2, LineDiscount: decimal.NewFromInt(500)}, now)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, a))

	b := New(user, now.Add(time.Minute))
	require.NoError(t, s.Save(ctx, b))
	require.NoError(t, s.Save(ctx, New(uuid.New(), now)))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.True(t, got.Lines[0].LineDiscount.Equal(decimal.NewFromInt(500)))

	got.Lines[0].Quantity = 99
	again, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Lines[0].Quantity)

	list, err := s.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	require.NoError(t, s.Delete(ctx, a.ID))
	require.NoError(t, s.Delete(ctx, a.ID))
	list, err = s.List(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	testStore(t, NewRedisStore(rdb, time.Hour))
}

func TestRedisStore_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedisStore(rdb, time.Minute)
	ctx := context.Background()

	c := New(uuid.New(), now)
	require.NoError(t, s.Save(ctx, c))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, c.ID)
	assert.True(t, errors.Is(err, ErrCartNotFound))
}
