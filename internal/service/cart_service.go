package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-minimart-pos/internal/cart"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/pricing"
)

type CartService interface {
	Create(ctx context.Context, actor Actor) (*cart.Cart, error)
	Get(ctx context.Context, id uuid.UUID, actor Actor) (*cart.Cart, error)
	List(ctx context.Context, actor Actor) ([]cart.Cart, error)
	AddLine(ctx context.Context, id uuid.UUID, line cart.Line, actor Actor) (*cart.Cart, error)
	UpdateLine(ctx context.Context, id, lineID uuid.UUID, quantity int, actor Actor) (*cart.Cart, error)
	RemoveLine(ctx context.Context, id, lineID uuid.UUID, actor Actor) (*cart.Cart, error)
	SetCustomer(ctx context.Context, id uuid.UUID, customerID *uuid.UUID, actor Actor) (*cart.Cart, error)
	SetPromotion(ctx context.Context, id uuid.UUID, promotionID *uuid.UUID, actor Actor) (*cart.Cart, error)
	Preview(ctx context.Context, id uuid.UUID, actor Actor) (*CheckoutPreview, error)
	Checkout(ctx context.Context, id uuid.UUID, paid bool, actor Actor) (*model.Invoice, error)
	Discard(ctx context.Context, id uuid.UUID, actor Actor) error
}

type cartService struct {
	core  *Core
	store cart.Store
	sales SalesService
}

func NewCartService(core *Core, store cart.Store, sales SalesService) CartService {
	return &cartService{core: core, store: store, sales: sales}
}

func (s *cartService) Create(ctx context.Context, actor Actor) (*cart.Cart, error) {
	c := cart.New(actor.UserID, s.core.now())
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// load returns the cart only if it belongs to actor
func (s *cartService) load(ctx context.Context, id uuid.UUID, actor Actor) (*cart.Cart, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != actor.UserID {
		return nil, cart.ErrCartNotFound.With("id", id.String())
	}
	return c, nil
}

func (s *cartService) Get(ctx context.Context, id uuid.UUID, actor Actor) (*cart.Cart, error) {
	return s.load(ctx, id, actor)
}

func (s *cartService) List(ctx context.Context, actor Actor) ([]cart.Cart, error) {
	return s.store.List(ctx, actor.UserID)
}

// mutate serializes edits to one cart and saves the result
func (s *cartService) mutate(ctx context.Context, id uuid.UUID, actor Actor, fn func(c *cart.Cart) error) (*cart.Cart, error) {
	release, err := s.core.Locker.Acquire(ctx, documentKey("cart", id))
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *cartService) AddLine(ctx context.Context, id uuid.UUID, line cart.Line, actor Actor) (*cart.Cart, error) {
	// unit and tier are checked now so the cashier hears about them at scan time
	if line.ProductID != uuid.Nil {
		p, err := s.core.Repos.Products.WithTx(s.core.DB.WithContext(ctx)).FindByID(line.ProductID)
		if err != nil {
			return nil, notFound(err, "product", line.ProductID)
		}
		if _, err := pricing.ConversionFactor(p, line.Unit); err != nil {
			return nil, err
		}
		if line.Unit == "" {
			line.Unit = p.Unit
		}
		if _, err := pricing.ParseTier(line.PriceTier); err != nil {
			return nil, err
		}
	}
	return s.mutate(ctx, id, actor, func(c *cart.Cart) error {
		_, err := c.AddLine(line, s.core.now())
		return err
	})
}

func (s *cartService) UpdateLine(ctx context.Context, id, lineID uuid.UUID, quantity int, actor Actor) (*cart.Cart, error) {
	return s.mutate(ctx, id, actor, func(c *cart.Cart) error {
		return c.UpdateLine(lineID, quantity, s.core.now())
	})
}

func (s *cartService) RemoveLine(ctx context.Context, id, lineID uuid.UUID, actor Actor) (*cart.Cart, error) {
	return s.mutate(ctx, id, actor, func(c *cart.Cart) error {
		return c.RemoveLine(lineID, s.core.now())
	})
}

func (s *cartService) SetCustomer(ctx context.Context, id uuid.UUID, customerID *uuid.UUID, actor Actor) (*cart.Cart, error) {
	if customerID != nil {
		if _, err := s.core.Repos.Customers.WithTx(s.core.DB.WithContext(ctx)).FindByID(*customerID); err != nil {
			return nil, notFound(err, "customer", *customerID)
		}
	}
	return s.mutate(ctx, id, actor, func(c *cart.Cart) error {
		c.CustomerID = customerID
		c.UpdatedAt = s.core.now()
		return nil
	})
}

func (s *cartService) SetPromotion(ctx context.Context, id uuid.UUID, promotionID *uuid.UUID, actor Actor) (*cart.Cart, error) {
	return s.mutate(ctx, id, actor, func(c *cart.Cart) error {
		c.PromotionID = promotionID
		c.UpdatedAt = s.core.now()
		return nil
	})
}

func checkoutRequest(c *cart.Cart, paid bool) *CheckoutRequest {
	req := &CheckoutRequest{
		CustomerID:  c.CustomerID,
		PromotionID: c.PromotionID,
		Paid:        paid,
		Note:        c.Note,
	}
	for _, l := range c.Lines {
		req.Lines = append(req.Lines, SaleLine{
			ProductID:    l.ProductID,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			PriceTier:    l.PriceTier,
			LineDiscount: l.LineDiscount,
		})
	}
	return req
}

func (s *cartService) Preview(ctx context.Context, id uuid.UUID, actor Actor) (*CheckoutPreview, error) {
	c, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.sales.Preview(ctx, checkoutRequest(c, false))
}

// Checkout commits the cart as an invoice. The cart is deleted only after
// the sale committed; on any error it is left untouched.
func (s *cartService) Checkout(ctx context.Context, id uuid.UUID, paid bool, actor Actor) (*model.Invoice, error) {
	release, err := s.core.Locker.Acquire(ctx, documentKey("cart", id))
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	invoice, err := s.sales.Checkout(ctx, checkoutRequest(c, paid), actor)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.core.Log.Warn("failed to clear cart after checkout", zap.String("cart_id", id.String()), zap.Error(err))
	}
	return invoice, nil
}

func (s *cartService) Discard(ctx context.Context, id uuid.UUID, actor Actor) error {
	if _, err := s.load(ctx, id, actor); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}
