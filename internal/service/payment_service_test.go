package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
)

func TestPayInvoice_PartialThenPaid(t *testing.T) {
	f := newFixture(t)
	p := f.product("OIL", 5, 6000, 10000, 10000)
	customer := f.customer("Hoa")
	invoice, err := NewSalesService(f.core).Checkout(f.ctx, &CheckoutRequest{
		Lines:      []SaleLine{{ProductID: p.ID, Quantity: 1}},
		CustomerID: &customer.ID,
	}, f.actor)
	require.NoError(t, err)
	payments := NewPaymentService(f.core)

	first, err := payments.PayInvoice(f.ctx, invoice.ID, dec(4000), f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPartial, first.StatusAfter)

	open, err := payments.Receivables(f.ctx, &customer.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assertDecimal(t, "4000", open[0].AmountPaid)

	second, err := payments.PayInvoice(f.ctx, invoice.ID, dec(6000), f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, second.StatusAfter)

	_, err = payments.PayInvoice(f.ctx, invoice.ID, dec(1), f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidPaymentAmount)

	open, err = payments.Receivables(f.ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, open)

	history, err := payments.History(f.ctx, &invoice.ID, nil)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	entries := f.funds()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, model.FundIn, e.Type)
		assert.Equal(t, model.RefInvoice, e.ReferenceType)
	}
	assert.Equal(t, 2, f.events.count("payment_recorded"))
}

func TestPayInvoice_RejectsBadAmounts(t *testing.T) {
	f := newFixture(t)
	p := f.product("OIL", 5, 6000, 10000, 10000)
	invoice, err := NewSalesService(f.core).Checkout(f.ctx, &CheckoutRequest{
		Lines: []SaleLine{{ProductID: p.ID, Quantity: 1}},
	}, f.actor)
	require.NoError(t, err)
	payments := NewPaymentService(f.core)

	for _, amount := range []int64{0, -500, 10001} {
		_, err := payments.PayInvoice(f.ctx, invoice.ID, dec(amount), f.actor)
		assert.ErrorIs(t, err, apperr.ErrInvalidPaymentAmount, "amount %d", amount)
	}
	assert.Empty(t, f.funds())

	_, err = payments.PayInvoice(f.ctx, p.ID, dec(1), f.actor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPayReceipt_UsesCurrentRate(t *testing.T) {
	f := newFixture(t)
	funds := NewFundService(f.core)
	_, err := funds.SetRate(f.ctx, "USD", dec(25000), f.actor)
	require.NoError(t, err)
	p := f.product("WINE", 0, 0, 400000, 380000)
	sup := f.supplier("Import Co")
	receipt, err := NewReceivingService(f.core).Receive(f.ctx, &ReceiveRequest{
		SupplierID: sup.ID,
		Currency:   "USD",
		Lines:      []ReceiveLine{{ProductID: p.ID, Quantity: 10, CostPrice: dec(10)}},
	}, f.actor)
	require.NoError(t, err)

	_, err = funds.SetRate(f.ctx, "USD", dec(26000), f.actor)
	require.NoError(t, err)
	payment, err := NewPaymentService(f.core).PayReceipt(f.ctx, receipt.ID, dec(40), f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPartial, payment.StatusAfter)
	assert.Equal(t, "USD", payment.Currency)

	entries := f.funds()
	require.Len(t, entries, 1)
	assert.Equal(t, model.FundOut, entries[0].Type)
	assertDecimal(t, "1040000", entries[0].AmountInBaseCurrency)

	payables, err := NewPaymentService(f.core).Payables(f.ctx, &sup.ID)
	require.NoError(t, err)
	require.Len(t, payables, 1)
	assertDecimal(t, "40", payables[0].AmountPaid)
}
