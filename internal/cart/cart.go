// Package cart keeps server-held draft sales until they are checked out.
package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/pricing"
)

// Line is one requested line of a draft sale. Prices are resolved at checkout.
type Line struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     int             `json:"quantity"`
	Unit         string          `json:"unit"`
	PriceTier    string          `json:"price_tier"`
	LineDiscount decimal.Decimal `json:"line_discount"`
}

type Cart struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	PromotionID *uuid.UUID `json:"promotion_id,omitempty"`
	Note        string     `json:"note"`
	Lines       []Line     `json:"lines"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

var ErrCartNotFound = apperr.ErrNotFound.Msgf("cart not found").With("entity", "cart")

func New(userID uuid.UUID, now time.Time) *Cart {
	return &Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Lines:     []Line{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func tooMany() *apperr.Error {
	return apperr.Invalid("quantity cannot exceed %d", pricing.MaxQuantity).With("field", "quantity")
}

func sameLine(a, b Line) bool {
	return a.ProductID == b.ProductID &&
		a.Unit == b.Unit &&
		a.PriceTier == b.PriceTier &&
		a.LineDiscount.Equal(b.LineDiscount)
}

// AddLine merges into an existing line with the same product, unit, tier
// and discount; otherwise it appends a new one.
func (c *Cart) AddLine(l Line, now time.Time) (Line, error) {
	if l.ProductID == uuid.Nil {
		return Line{}, apperr.MissingField("product_id")
	}
	if l.Quantity <= 0 {
		return Line{}, apperr.Invalid("quantity must be greater than 0").With("field", "quantity")
	}
	if l.LineDiscount.IsNegative() {
		return Line{}, apperr.Invalid("line discount cannot be negative").With("field", "line_discount")
	}
	if l.Quantity > pricing.MaxQuantity {
		return Line{}, tooMany()
	}
	for i := range c.Lines {
		if sameLine(c.Lines[i], l) {
			if l.Quantity > pricing.MaxQuantity-c.Lines[i].Quantity {
				return Line{}, tooMany()
			}
			c.UpdatedAt = now
			c.Lines[i].Quantity += l.Quantity
			return c.Lines[i], nil
		}
	}
	c.UpdatedAt = now
	l.ID = uuid.New()
	c.Lines = append(c.Lines, l)
	return l, nil
}

// UpdateLine sets the quantity of a line; zero removes it
func (c *Cart) UpdateLine(lineID uuid.UUID, quantity int, now time.Time) error {
	if quantity < 0 {
		return apperr.Invalid("quantity cannot be negative").With("field", "quantity")
	}
	if quantity == 0 {
		return c.RemoveLine(lineID, now)
	}
	if quantity > pricing.MaxQuantity {
		return tooMany()
	}
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines[i].Quantity = quantity
			c.UpdatedAt = now
			return nil
		}
	}
	return apperr.NotFound("cart line", lineID)
}

func (c *Cart) RemoveLine(lineID uuid.UUID, now time.Time) error {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.UpdatedAt = now
			return nil
		}
	}
	return apperr.NotFound("cart line", lineID)
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Store persists carts between requests
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]Cart, error)
}
