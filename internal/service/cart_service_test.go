package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/cart"
	"go-minimart-pos/internal/model"
)

func newCartService(f *fixture) CartService {
	return NewCartService(f.core, cart.NewMemoryStore(), NewSalesService(f.core))
}

func TestCart_CheckoutClearsCart(t *testing.T) {
	f := newFixture(t)
	p := f.product("COLA", 10, 5000, 8000, 7000)
	carts := newCartService(f)

	c, err := carts.Create(f.ctx, f.actor)
	require.NoError(t, err)
	_, err = carts.AddLine(f.ctx, c.ID, cart.Line{ProductID: p.ID, Quantity: 1}, f.actor)
	require.NoError(t, err)
	c, err = carts.AddLine(f.ctx, c.ID, cart.Line{ProductID: p.ID, Quantity: 2}, f.actor)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.Equal(t, "can", c.Lines[0].Unit)

	preview, err := carts.Preview(f.ctx, c.ID, f.actor)
	require.NoError(t, err)
	assertDecimal(t, "21000", preview.Total)

	invoice, err := carts.Checkout(f.ctx, c.ID, true, f.actor)
	require.NoError(t, err)
	assertDecimal(t, "21000", invoice.TotalAmount)
	assert.Equal(t, model.PaymentPaid, invoice.PaymentStatus)
	assert.Equal(t, 7, f.reload(p.ID).StockQuantity)

	_, err = carts.Get(f.ctx, c.ID, f.actor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCart_FailedCheckoutKeepsCart(t *testing.T) {
	f := newFixture(t)
	p := f.product("EGG", 2, 2000, 3000, 2800)
	carts := newCartService(f)

	c, err := carts.Create(f.ctx, f.actor)
	require.NoError(t, err)
	_, err = carts.AddLine(f.ctx, c.ID, cart.Line{ProductID: p.ID, Quantity: 5}, f.actor)
	require.NoError(t, err)

	_, err = carts.Checkout(f.ctx, c.ID, false, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	kept, err := carts.Get(f.ctx, c.ID, f.actor)
	require.NoError(t, err)
	assert.Len(t, kept.Lines, 1)
}

func TestCart_BelongsToItsUser(t *testing.T) {
	f := newFixture(t)
	p := f.product("COLA", 10, 5000, 8000, 7000)
	carts := newCartService(f)
	c, err := carts.Create(f.ctx, f.actor)
	require.NoError(t, err)

	stranger := Actor{UserID: uuid.New(), Name: "Stranger"}
	_, err = carts.Get(f.ctx, c.ID, stranger)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = carts.AddLine(f.ctx, c.ID, cart.Line{ProductID: p.ID, Quantity: 1}, stranger)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	mine, err := carts.List(f.ctx, f.actor)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := carts.List(f.ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestCart_ScanTimeChecks(t *testing.T) {
	f := newFixture(t)
	p := f.product("COLA", 10, 5000, 8000, 7000)
	carts := newCartService(f)
	c, err := carts.Create(f.ctx, f.actor)
	require.NoError(t, err)

	_, err = carts.AddLine(f.ctx, c.ID, cart.Line{ProductID: p.ID, Quantity: 1, Unit: "crate"}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrUnknownUnit)
	_, err = carts.AddLine(f.ctx, c.ID, cart.Line{ProductID: uuid.New(), Quantity: 1}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	missing := uuid.New()
	_, err = carts.SetCustomer(f.ctx, c.ID, &missing, f.actor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	c, err = carts.AddLine(f.ctx, c.ID, cart.Line{ProductID: p.ID, Quantity: 2}, f.actor)
	require.NoError(t, err)
	c, err = carts.UpdateLine(f.ctx, c.ID, c.Lines[0].ID, 0, f.actor)
	require.NoError(t, err)
	assert.Empty(t, c.Lines)

	require.NoError(t, carts.Discard(f.ctx, c.ID, f.actor))
	_, err = carts.Get(f.ctx, c.ID, f.actor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
