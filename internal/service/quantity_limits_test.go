package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
)

// 6148914691236517205 × 3 wraps to -1 in int64
const wrapsWithFactor3 = 6148914691236517205

func TestQuantityLimits_Checkout(t *testing.T) {
	f := newFixture(t)
	p := f.product("BEER", 2, 9000, 12000, 11000,
		UnitRequest{Name: "case", ConversionFactor: 3},
		UnitRequest{Name: "pallet", ConversionFactor: 100000})
	sales := NewSalesService(f.core)

	for _, line := range []SaleLine{
		{ProductID: p.ID, Quantity: wrapsWithFactor3, Unit: "case"},
		{ProductID: p.ID, Quantity: 1000000, Unit: "pallet"},
	} {
		_, err := sales.Checkout(f.ctx, &CheckoutRequest{Lines: []SaleLine{line}, Paid: true}, f.actor)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "%d %s", line.Quantity, line.Unit)
	}

	assert.Equal(t, 2, f.reload(p.ID).StockQuantity)
	assert.Zero(t, f.count(&model.Invoice{}))
	assert.Zero(t, f.count(&model.FundTransaction{}))
	f.assertReconciled(p.ID)
}

func TestQuantityLimits_Receive(t *testing.T) {
	f := newFixture(t)
	sup := f.supplier("Brewery")
	p := f.product("BEER", 5, 9000, 12000, 11000,
		UnitRequest{Name: "case", ConversionFactor: 3},
		UnitRequest{Name: "pallet", ConversionFactor: 100000})
	receiving := NewReceivingService(f.core)

	for _, line := range []ReceiveLine{
		{ProductID: p.ID, Quantity: wrapsWithFactor3, Unit: "case", CostPrice: dec(27000)},
		{ProductID: p.ID, Quantity: 1000000, Unit: "pallet", CostPrice: dec(1)},
	} {
		_, err := receiving.Receive(f.ctx, &ReceiveRequest{SupplierID: sup.ID, Lines: []ReceiveLine{line}}, f.actor)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "%d %s", line.Quantity, line.Unit)
	}

	reloaded := f.reload(p.ID)
	assert.Equal(t, 5, reloaded.StockQuantity)
	assertDecimal(t, "9000", reloaded.CostPrice)
	assert.Zero(t, f.count(&model.GoodsReceipt{}))
}

func TestQuantityLimits_AdjustStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("RICE", 5, 12000, 15000, 14000)
	inventory := NewInventoryService(f.core)

	for _, delta := range []int{math.MinInt, math.MaxInt, 1000001, -1000001} {
		_, err := inventory.AdjustStock(f.ctx, &AdjustStockRequest{ProductID: p.ID, Delta: delta, Reason: "count"}, f.actor)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "delta %d", delta)
	}
	assert.Equal(t, 5, f.reload(p.ID).StockQuantity)

	_, err := inventory.AdjustStock(f.ctx, &AdjustStockRequest{ProductID: p.ID, Delta: 1000000, Reason: "container"}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 1000005, f.reload(p.ID).StockQuantity)
	f.assertReconciled(p.ID)
}

func TestQuantityLimits_Returns(t *testing.T) {
	f := newFixture(t)
	sup := f.supplier("Brewery")
	p := f.product("BEER", 30, 9000, 12000, 11000, UnitRequest{Name: "case", ConversionFactor: 3})
	invoice, err := NewSalesService(f.core).Checkout(f.ctx, &CheckoutRequest{
		Lines: []SaleLine{{ProductID: p.ID, Quantity: 2, Unit: "case"}},
		Paid:  true,
	}, f.actor)
	require.NoError(t, err)
	returns := NewReturnService(f.core)

	_, err = returns.ReturnFromInvoice(f.ctx, invoice.ID, &CustomerReturnRequest{
		Lines:  []CustomerReturnLine{{InvoiceDetailID: &invoice.Details[0].ID, Quantity: math.MaxInt}},
		Reason: "wrong order",
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = returns.ReturnToSupplier(f.ctx, &SupplierReturnRequest{
		SupplierID: sup.ID,
		Lines:      []SupplierReturnLine{{ProductID: p.ID, Quantity: wrapsWithFactor3, Unit: "case"}},
		Reason:     "expired",
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	assert.Equal(t, 24, f.reload(p.ID).StockQuantity)
	assert.Zero(t, f.count(&model.ReturnSlip{}))
	assert.Zero(t, f.count(&model.SupplierReturnSlip{}))
	f.assertReconciled(p.ID)
}

func TestQuantityLimits_ConversionFactor(t *testing.T) {
	f := newFixture(t)
	_, err := NewInventoryService(f.core).CreateProduct(f.ctx, &ProductRequest{
		SKU:         "HUGE",
		Name:        "Bulk flour",
		Unit:        "kg",
		RetailPrice: dec(20000),
		Units:       []UnitRequest{{Name: "silo", ConversionFactor: 100001}},
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Zero(t, f.count(&model.Product{}))
}
