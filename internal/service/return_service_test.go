package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
)

func TestReturnFromInvoice_CumulativeCap(t *testing.T) {
	f := newFixture(t)
	p := f.product("SODA", 48, 4000, 6000, 5500, UnitRequest{Name: "pack", ConversionFactor: 6})
	invoice, err := NewSalesService(f.core).Checkout(f.ctx, &CheckoutRequest{
		Lines: []SaleLine{{ProductID: p.ID, Quantity: 3, Unit: "pack"}},
		Paid:  true,
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 30, f.reload(p.ID).StockQuantity)
	returns := NewReturnService(f.core)

	slip, err := returns.ReturnFromInvoice(f.ctx, invoice.ID, &CustomerReturnRequest{
		Lines:  []CustomerReturnLine{{InvoiceDetailID: &invoice.Details[0].ID, Quantity: 2}},
		Reason: "Dented cans",
	}, f.actor)
	require.NoError(t, err)
	assertDecimal(t, "66000", slip.TotalRefund)
	assert.Equal(t, 42, f.reload(p.ID).StockQuantity)

	_, err = returns.ReturnFromInvoice(f.ctx, invoice.ID, &CustomerReturnRequest{
		Lines: []CustomerReturnLine{{ProductID: &p.ID, Quantity: 2}},
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrExceedsOriginalQuantity)
	assert.Equal(t, 42, f.reload(p.ID).StockQuantity)

	_, err = returns.ReturnFromInvoice(f.ctx, invoice.ID, &CustomerReturnRequest{
		Lines: []CustomerReturnLine{{ProductID: &p.ID, Quantity: 1}},
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 48, f.reload(p.ID).StockQuantity)
	f.assertReconciled(p.ID)

	refunds, err := f.core.Repos.Funds.FindAll(repository.FundFilter{Type: model.FundOut})
	require.NoError(t, err)
	assert.Len(t, refunds, 2)

	slips, err := returns.ListReturnSlips(f.ctx, repository.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, slips, 2)
}

func TestReturnFromInvoice_Rejections(t *testing.T) {
	f := newFixture(t)
	p := f.product("SODA", 10, 4000, 6000, 5500)
	other := f.product("CHIPS", 10, 4000, 6000, 5500)
	invoice, err := NewSalesService(f.core).Checkout(f.ctx, &CheckoutRequest{
		Lines: []SaleLine{{ProductID: p.ID, Quantity: 1}},
	}, f.actor)
	require.NoError(t, err)
	returns := NewReturnService(f.core)

	_, err = returns.ReturnFromInvoice(f.ctx, invoice.ID, &CustomerReturnRequest{}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrMissingRequiredField)

	_, err = returns.ReturnFromInvoice(f.ctx, invoice.ID, &CustomerReturnRequest{
		Lines: []CustomerReturnLine{{ProductID: &other.ID, Quantity: 1}},
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = returns.ReturnFromInvoice(f.ctx, p.ID, &CustomerReturnRequest{
		Lines: []CustomerReturnLine{{ProductID: &p.ID, Quantity: 1}},
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Zero(t, f.count(&model.ReturnSlip{}))
}

func TestReturnToSupplier_AgainstReceipt(t *testing.T) {
	f := newFixture(t)
	p := f.product("MILK", 0, 0, 1500, 1400, UnitRequest{Name: "crate", ConversionFactor: 10})
	sup := f.supplier("Vinamilk")
	receipt, err := NewReceivingService(f.core).Receive(f.ctx, &ReceiveRequest{
		SupplierID: sup.ID,
		Lines:      []ReceiveLine{{ProductID: p.ID, Quantity: 2, Unit: "crate", CostPrice: dec(10000)}},
	}, f.actor)
	require.NoError(t, err)
	returns := NewReturnService(f.core)

	slip, err := returns.ReturnToSupplier(f.ctx, &SupplierReturnRequest{
		SupplierID:     sup.ID,
		GoodsReceiptID: &receipt.ID,
		Lines:          []SupplierReturnLine{{ProductID: p.ID, Quantity: 15}},
		Reason:         "Expired",
	}, f.actor)
	require.NoError(t, err)
	assertDecimal(t, "15000", slip.TotalAmount)
	assert.Equal(t, 5, f.reload(p.ID).StockQuantity)

	_, err = returns.ReturnToSupplier(f.ctx, &SupplierReturnRequest{
		SupplierID:     sup.ID,
		GoodsReceiptID: &receipt.ID,
		Lines:          []SupplierReturnLine{{ProductID: p.ID, Quantity: 1, Unit: "crate"}},
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrExceedsOriginalQuantity)
	assert.Equal(t, 5, f.reload(p.ID).StockQuantity)
	f.assertReconciled(p.ID)

	entries := f.funds()
	require.Len(t, entries, 1)
	assert.Equal(t, model.FundIn, entries[0].Type)
	assert.Equal(t, model.RefSupplierReturn, entries[0].ReferenceType)
}

func TestReturnToSupplier_WithoutReceipt(t *testing.T) {
	f := newFixture(t)
	p := f.product("RICE", 20, 12000, 15000, 14000)
	sup := f.supplier("Farm")
	other := f.supplier("Other Farm")
	returns := NewReturnService(f.core)

	_, err := returns.ReturnToSupplier(f.ctx, &SupplierReturnRequest{
		SupplierID: sup.ID,
		Lines:      []SupplierReturnLine{{ProductID: p.ID, Quantity: 21}},
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	cost := dec(11000)
	slip, err := returns.ReturnToSupplier(f.ctx, &SupplierReturnRequest{
		SupplierID: sup.ID,
		Lines:      []SupplierReturnLine{{ProductID: p.ID, Quantity: 2, UnitCost: &cost}},
	}, f.actor)
	require.NoError(t, err)
	assertDecimal(t, "22000", slip.TotalAmount)
	assert.Equal(t, 18, f.reload(p.ID).StockQuantity)

	receipt, err := NewReceivingService(f.core).Receive(f.ctx, &ReceiveRequest{
		SupplierID: sup.ID,
		Lines:      []ReceiveLine{{ProductID: p.ID, Quantity: 1, CostPrice: dec(12000)}},
	}, f.actor)
	require.NoError(t, err)
	_, err = returns.ReturnToSupplier(f.ctx, &SupplierReturnRequest{
		SupplierID:     other.ID,
		GoodsReceiptID: &receipt.ID,
		Lines:          []SupplierReturnLine{{ProductID: p.ID, Quantity: 1}},
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestReturns_ReachDeletedProducts(t *testing.T) {
	f := newFixture(t)
	sup := f.supplier("Lotte")
	p := f.product("GUM", 0, 0, 3000, 0)
	receipt, err := NewReceivingService(f.core).Receive(f.ctx, &ReceiveRequest{
		SupplierID: sup.ID,
		Lines:      []ReceiveLine{{ProductID: p.ID, Quantity: 10, CostPrice: dec(2000)}},
	}, f.actor)
	require.NoError(t, err)
	invoice, err := NewSalesService(f.core).Checkout(f.ctx, &CheckoutRequest{
		Lines: []SaleLine{{ProductID: p.ID, Quantity: 2}},
		Paid:  true,
	}, f.actor)
	require.NoError(t, err)
	require.NoError(t, NewInventoryService(f.core).DeleteProduct(f.ctx, p.ID, f.actor))
	returns := NewReturnService(f.core)

	slip, err := returns.ReturnFromInvoice(f.ctx, invoice.ID, &CustomerReturnRequest{
		Lines:  []CustomerReturnLine{{InvoiceDetailID: &invoice.Details[0].ID, Quantity: 1}},
		Reason: "changed mind",
	}, f.actor)
	require.NoError(t, err)
	assertDecimal(t, "3000", slip.TotalRefund)

	_, err = returns.ReturnToSupplier(f.ctx, &SupplierReturnRequest{
		SupplierID:     sup.ID,
		GoodsReceiptID: &receipt.ID,
		Lines:          []SupplierReturnLine{{ProductID: p.ID, Quantity: 4}},
		Reason:         "discontinued",
	}, f.actor)
	require.NoError(t, err)

	// without a receipt the deleted product is not offered
	_, err = returns.ReturnToSupplier(f.ctx, &SupplierReturnRequest{
		SupplierID: sup.ID,
		Lines:      []SupplierReturnLine{{ProductID: p.ID, Quantity: 1}},
		Reason:     "discontinued",
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var stored model.Product
	require.NoError(t, f.db.Unscoped().First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, 5, stored.StockQuantity)
	sum, err := f.core.Repos.Movements.SumByProduct(p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, stored.StockQuantity, sum)
}
