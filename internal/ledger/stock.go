// Package ledger holds the single writers for stock quantity, product cost,
// cash movements and payment status.
package ledger

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
)

// Movement describes one signed stock change in base units
type Movement struct {
	Delta         int
	Type          model.StockMovementType
	Reason        string
	OccurredAt    time.Time
	Sequence      int
	ReferenceType string
	ReferenceID   *uuid.UUID
	UserID        *uuid.UUID
}

// inbound reports whether movements of type t add stock
func inbound(t model.StockMovementType) (in, known bool) {
	switch t {
	case model.MovementReceipt, model.MovementCustomerReturn, model.MovementAdjustUp:
		return true, true
	case model.MovementSale, model.MovementSupplierReturn, model.MovementAdjustDown:
		return false, true
	}
	return false, false
}

// StockLedger is the only code path allowed to change stock_quantity
type StockLedger struct {
	products  repository.ProductRepository
	movements repository.StockTransactionRepository
}

func NewStockLedger(products repository.ProductRepository, movements repository.StockTransactionRepository) *StockLedger {
	return &StockLedger{products: products, movements: movements}
}

// Apply adds m.Delta to the product's stock and appends the matching
// StockTransaction, both inside tx. It does not guard against negative stock;
// callers check availability first. product.StockQuantity is updated in place
// so later lines of the same commit see the new level.
func (l *StockLedger) Apply(tx *gorm.DB, product *model.Product, m Movement) (*model.StockTransaction, error) {
	if m.Delta == 0 {
		return nil, apperr.Invalid("stock movement for '%s' has zero quantity", product.Name)
	}
	if m.Delta > math.MaxInt32 || m.Delta < -math.MaxInt32 {
		return nil, apperr.Invalid("stock movement for '%s' is out of range", product.Name).With("delta", m.Delta)
	}
	in, known := inbound(m.Type)
	if !known {
		return nil, apperr.Invalid("unknown stock movement type '%s'", m.Type)
	}
	if in != (m.Delta > 0) {
		return nil, apperr.Invalid("%s movement for '%s' cannot change stock by %d", m.Type, product.Name, m.Delta).
			With("type", string(m.Type)).
			With("delta", m.Delta)
	}
	if m.OccurredAt.IsZero() {
		m.OccurredAt = time.Now().UTC()
	}

	updatedBy := "system"
	if m.UserID != nil {
		updatedBy = m.UserID.String()
	}
	if err := l.products.WithTx(tx).UpdateStock(product.ID, m.Delta, updatedBy); err != nil {
		return nil, err
	}

	entry := &model.StockTransaction{
		ProductID:      product.ID,
		QuantityChange: m.Delta,
		Type:           m.Type,
		Reason:         m.Reason,
		OccurredAt:     m.OccurredAt,
		Sequence:       m.Sequence,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		UserID:         m.UserID,
	}
	if err := l.movements.WithTx(tx).Create(entry); err != nil {
		return nil, err
	}

	product.StockQuantity += m.Delta
	return entry, nil
}
