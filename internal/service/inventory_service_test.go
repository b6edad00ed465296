package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
)

func TestInventory_OpeningStockIsAMovement(t *testing.T) {
	f := newFixture(t)
	p := f.product("RICE", 25, 12000, 15000, 14000, UnitRequest{Name: "bag", ConversionFactor: 10})
	inventory := NewInventoryService(f.core)

	assert.Equal(t, 25, p.StockQuantity)
	movements, err := inventory.Movements(f.ctx, repository.MovementFilter{ProductID: &p.ID})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementAdjustUp, movements[0].Type)
	assert.Equal(t, "Opening stock", movements[0].Reason)
	f.assertReconciled(p.ID)

	units, err := inventory.AvailableUnits(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, units, 2)
}

func TestInventory_UpdateLeavesStockAndCost(t *testing.T) {
	f := newFixture(t)
	p := f.product("RICE", 25, 12000, 15000, 14000)
	inventory := NewInventoryService(f.core)

	updated, err := inventory.UpdateProduct(f.ctx, p.ID, &ProductRequest{
		SKU:          "RICE",
		Name:         "Jasmine rice",
		Unit:         "kg",
		CostPrice:    dec(1),
		RetailPrice:  dec(16000),
		InitialStock: 999,
		Units:        []UnitRequest{{Name: "bag", ConversionFactor: 5}},
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "Jasmine rice", updated.Name)
	assert.Equal(t, 25, updated.StockQuantity)
	assertDecimal(t, "12000", updated.CostPrice)
	require.Len(t, updated.Units, 1)
	assert.Equal(t, 5, updated.Units[0].ConversionFactor)
}

func TestInventory_ProductRules(t *testing.T) {
	f := newFixture(t)
	f.product("RICE", 0, 12000, 15000, 14000)
	inventory := NewInventoryService(f.core)

	_, err := inventory.CreateProduct(f.ctx, &ProductRequest{SKU: "RICE", Name: "Again", Unit: "kg"}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	_, err = inventory.CreateProduct(f.ctx, &ProductRequest{
		SKU: "BEER", Name: "Beer", Unit: "can",
		Units: []UnitRequest{{Name: "Can", ConversionFactor: 1}},
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = inventory.CreateProduct(f.ctx, &ProductRequest{Name: "No SKU", Unit: "kg"}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrMissingRequiredField)
}

func TestInventory_AdjustStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("EGG", 5, 2000, 3000, 2800)
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", p.ID).Update("minimum_stock_level", 3).Error)
	inventory := NewInventoryService(f.core)

	_, err := inventory.AdjustStock(f.ctx, &AdjustStockRequest{ProductID: p.ID, Delta: -6, Reason: "Broken"}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	_, err = inventory.AdjustStock(f.ctx, &AdjustStockRequest{ProductID: p.ID, Delta: 0, Reason: "Nothing"}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = inventory.AdjustStock(f.ctx, &AdjustStockRequest{ProductID: p.ID, Delta: 1}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrMissingRequiredField)

	entry, err := inventory.AdjustStock(f.ctx, &AdjustStockRequest{ProductID: p.ID, Delta: -3, Reason: "Broken"}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.MovementAdjustDown, entry.Type)
	assert.Equal(t, 2, f.reload(p.ID).StockQuantity)
	assert.Equal(t, 1, f.events.count("low_stock"))

	low, err := inventory.LowStock(f.ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, p.ID, low[0].ID)
	f.assertReconciled(p.ID)
}

func TestCreateProduct_DeletedSKUIsDuplicate(t *testing.T) {
	f := newFixture(t)
	inventory := NewInventoryService(f.core)
	old := f.product("REUSE", 0, 1000, 1500, 0)
	require.NoError(t, inventory.DeleteProduct(f.ctx, old.ID, f.actor))

	_, err := inventory.CreateProduct(f.ctx, &ProductRequest{
		SKU: "REUSE", Name: "New item", Unit: "pc", RetailPrice: dec(2000),
	}, f.actor)
	require.ErrorIs(t, err, apperr.ErrDuplicate)
	assert.Equal(t, old.ID.String(), apperr.As(err).Details["product_id"])
	assert.Equal(t, 409, apperr.HTTPStatus(err))

	other := f.product("OTHER", 0, 1000, 1500, 0)
	_, err = inventory.UpdateProduct(f.ctx, other.ID, &ProductRequest{
		SKU: "REUSE", Name: "Renamed", Unit: "pc", RetailPrice: dec(2000),
	}, f.actor)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
}
