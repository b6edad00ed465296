package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/ledger"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/pricing"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/pkg/validator"
)

const walkInCustomer = "Walk-in customer"

type SalesService interface {
	Checkout(ctx context.Context, req *CheckoutRequest, actor Actor) (*model.Invoice, error)
	Preview(ctx context.Context, req *CheckoutRequest) (*CheckoutPreview, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	ListInvoices(ctx context.Context, filter repository.DocumentFilter) ([]model.Invoice, error)
}

type SaleLine struct {
	ProductID    uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity     int             `json:"quantity" validate:"gt=0,lte=1000000"`
	Unit         string          `json:"unit"`
	PriceTier    string          `json:"price_tier"`
	LineDiscount decimal.Decimal `json:"line_discount" validate:"gte=0"`
}

type CheckoutRequest struct {
	Lines       []SaleLine `json:"lines" validate:"dive"`
	CustomerID  *uuid.UUID `json:"customer_id"`
	PromotionID *uuid.UUID `json:"promotion_id"`
	Paid        bool       `json:"paid"`
	Note        string     `json:"note"`
}

type PreviewLine struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	pricing.Quote
	Available int `json:"available"`
}

type CheckoutPreview struct {
	Lines         []PreviewLine   `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PromotionName *string         `json:"promotion_name,omitempty"`
	Shortages     []uuid.UUID     `json:"shortages"`
}

type salesService struct {
	core *Core
}

func NewSalesService(core *Core) SalesService {
	return &salesService{core: core}
}

// pricedSale is a request resolved against current product rows
type pricedSale struct {
	lines     []pricedLine
	subtotal  decimal.Decimal
	discount  decimal.Decimal
	total     decimal.Decimal
	totalCost decimal.Decimal
	promotion *model.Promotion
	demand    map[uuid.UUID]int
}

type pricedLine struct {
	in      SaleLine
	product *model.Product
	quote   pricing.Quote
}

func validateCheckout(req *CheckoutRequest) error {
	if len(req.Lines) == 0 {
		return apperr.MissingField("lines")
	}
	return validator.Check(req)
}

// price computes line quotes, subtotal, promotion discount and cost. It
// reads products from the map and the promotion through tx.
func (s *salesService) price(tx *gorm.DB, products map[uuid.UUID]*model.Product, req *CheckoutRequest) (*pricedSale, error) {
	sale := &pricedSale{
		subtotal:  decimal.Zero,
		totalCost: decimal.Zero,
		demand:    map[uuid.UUID]int{},
	}
	for _, in := range req.Lines {
		p := products[in.ProductID]
		tier, err := pricing.ParseTier(in.PriceTier)
		if err != nil {
			return nil, err
		}
		quote, err := pricing.QuoteLine(p, pricing.LineInput{
			Quantity:     in.Quantity,
			Unit:         in.Unit,
			Tier:         tier,
			LineDiscount: in.LineDiscount,
		})
		if err != nil {
			return nil, err
		}
		sale.lines = append(sale.lines, pricedLine{in: in, product: p, quote: quote})
		sale.subtotal = sale.subtotal.Add(quote.LineTotal)
		sale.totalCost = sale.totalCost.Add(p.CostPrice.Mul(decimal.NewFromInt(int64(quote.BaseQuantity))))
		sale.demand[p.ID] += quote.BaseQuantity
	}

	sale.discount = decimal.Zero
	if req.PromotionID != nil {
		promo, err := s.core.Repos.Promotions.WithTx(tx).FindByID(*req.PromotionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.ErrInvalidPromotion.Msgf("promotion not found").With("promotion_id", req.PromotionID.String())
			}
			return nil, err
		}
		now := s.core.now()
		if !pricing.IsApplicable(promo, sale.subtotal, now) {
			return nil, apperr.ErrInvalidPromotion.
				Msgf("promotion '%s' is not applicable to this sale", promo.Name).
				With("promotion_id", promo.ID.String()).
				With("minimum_spend", promo.MinimumSpend.String())
		}
		sale.promotion = promo
		sale.discount = pricing.Discount(promo, sale.subtotal, now)
	}
	sale.total = sale.subtotal.Sub(sale.discount)
	return sale, nil
}

func checkAvailability(products map[uuid.UUID]*model.Product, demand map[uuid.UUID]int) error {
	for _, p := range sortedProducts(products) {
		need := demand[p.ID]
		if need > p.StockQuantity {
			return apperr.ErrInsufficientStock.
				Msgf("insufficient stock for '%s': requested %d, available %d", p.Name, need, p.StockQuantity).
				With("product_id", p.ID.String()).
				With("requested", need).
				With("available", p.StockQuantity)
		}
	}
	return nil
}

func (s *salesService) Checkout(ctx context.Context, req *CheckoutRequest, actor Actor) (*model.Invoice, error) {
	// 1. Validate request
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.Lines))
	for _, l := range req.Lines {
		ids = append(ids, l.ProductID)
	}

	var (
		invoice  *model.Invoice
		touched  map[uuid.UUID]*model.Product
		customer = walkInCustomer
	)
	err := s.core.commit(ctx, productKeys(ids), func(tx *gorm.DB) error {
		// 2. Lock products and check availability before anything is written
		products, err := s.core.lockProducts(tx, ids)
		if err != nil {
			return err
		}
		sale, err := s.price(tx, products, req)
		if err != nil {
			return err
		}
		if err := checkAvailability(products, sale.demand); err != nil {
			return err
		}
		if req.CustomerID != nil {
			c, err := s.core.Repos.Customers.WithTx(tx).FindByID(*req.CustomerID)
			if err != nil {
				return notFound(err, "customer", *req.CustomerID)
			}
			customer = c.Name
		}

		// 3. Invoice with detail snapshots
		now := s.core.now()
		invoice = &model.Invoice{
			CreationDate:   now,
			Subtotal:       sale.subtotal,
			DiscountAmount: sale.discount,
			TotalAmount:    sale.total,
			TotalCost:      sale.totalCost,
			PaymentStatus:  model.PaymentUnpaid,
			AmountPaid:     decimal.Zero,
			CustomerID:     req.CustomerID,
			UserID:         actor.ID(),
			Note:           req.Note,
		}
		invoice.CreatedBy = actor.By()
		invoice.UpdatedBy = actor.By()
		if req.Paid || sale.total.IsZero() {
			invoice.PaymentStatus = model.PaymentPaid
			invoice.AmountPaid = sale.total
		}
		if sale.promotion != nil {
			invoice.PromotionID = &sale.promotion.ID
			name := sale.promotion.Name
			invoice.AppliedPromotionName = &name
		}
		for i, l := range sale.lines {
			invoice.Details = append(invoice.Details, model.InvoiceDetail{
				LineNo:                 i + 1,
				ProductID:              l.product.ID,
				ProductName:            l.product.Name,
				Quantity:               l.in.Quantity,
				UnitName:               l.quote.UnitName,
				ConversionFactorAtSale: l.quote.Factor,
				PricePerUnitAtSale:     l.quote.UnitPrice,
				CostPriceAtSale:        l.product.CostPrice,
				LineDiscount:           l.in.LineDiscount,
				LineTotal:              l.quote.LineTotal,
			})
		}
		if err := s.core.Repos.Invoices.WithTx(tx).Create(invoice); err != nil {
			return err
		}

		// 4. One SALE movement per line, in line order
		for i, l := range sale.lines {
			_, err := s.core.Stock.Apply(tx, l.product, ledger.Movement{
				Delta:         -l.quote.BaseQuantity,
				Type:          model.MovementSale,
				Reason:        fmt.Sprintf("Sold %d %s to %s", l.in.Quantity, l.quote.UnitName, customer),
				OccurredAt:    now,
				Sequence:      i + 1,
				ReferenceType: model.RefInvoice,
				ReferenceID:   &invoice.ID,
				UserID:        actor.ID(),
			})
			if err != nil {
				return err
			}
		}

		// 5. Cash in when paid at the counter
		if req.Paid && sale.total.IsPositive() {
			_, err := s.core.Funds.Append(tx, ledger.FundEntry{
				Type:          model.FundIn,
				Amount:        sale.total,
				Currency:      s.core.BaseCurrency,
				Reason:        "Sale to " + customer,
				OccurredAt:    now,
				System:        true,
				ReferenceType: model.RefInvoice,
				ReferenceID:   &invoice.ID,
				UserID:        actor.ID(),
			})
			if err != nil {
				return err
			}
		}
		touched = products
		return nil
	})
	if err != nil {
		s.core.Log.Info("checkout rejected", zap.String("user", actor.By()), zap.Error(err))
		return nil, err
	}

	s.core.Log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("total", invoice.TotalAmount.String()),
		zap.String("status", string(invoice.PaymentStatus)),
		zap.String("user", actor.By()),
	)
	s.core.Notifier.Publish("invoice_created", map[string]interface{}{
		"invoice_id":     invoice.ID,
		"total_amount":   invoice.TotalAmount,
		"payment_status": invoice.PaymentStatus,
		"user":           actor.payload(),
		"message":        fmt.Sprintf("%s sold %s to %s", actor.Name, invoice.TotalAmount.String(), customer),
	})
	s.core.notifyStock("sale", sortedProducts(touched), actor)
	return invoice, nil
}

// Preview prices a request without locking or writing anything. Products
// that would run short are listed instead of failing the preview.
func (s *salesService) Preview(ctx context.Context, req *CheckoutRequest) (*CheckoutPreview, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}
	db := s.core.DB.WithContext(ctx)
	products := map[uuid.UUID]*model.Product{}
	for _, l := range req.Lines {
		if _, ok := products[l.ProductID]; ok {
			continue
		}
		p, err := s.core.Repos.Products.WithTx(db).FindByID(l.ProductID)
		if err != nil {
			return nil, notFound(err, "product", l.ProductID)
		}
		products[p.ID] = p
	}

	sale, err := s.price(db, products, req)
	if err != nil {
		return nil, err
	}
	preview := &CheckoutPreview{
		Subtotal:  sale.subtotal,
		Discount:  sale.discount,
		Total:     sale.total,
		Shortages: []uuid.UUID{},
	}
	if sale.promotion != nil {
		name := sale.promotion.Name
		preview.PromotionName = &name
	}
	for _, l := range sale.lines {
		preview.Lines = append(preview.Lines, PreviewLine{
			ProductID:   l.product.ID,
			ProductName: l.product.Name,
			Quantity:    l.in.Quantity,
			Quote:       l.quote,
			Available:   l.product.StockQuantity,
		})
	}
	for _, p := range sortedProducts(products) {
		if sale.demand[p.ID] > p.StockQuantity {
			preview.Shortages = append(preview.Shortages, p.ID)
		}
	}
	return preview, nil
}

func (s *salesService) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.core.Repos.Invoices.WithTx(s.core.DB.WithContext(ctx)).FindByID(id)
	if err != nil {
		return nil, notFound(err, "invoice", id)
	}
	return invoice, nil
}

func (s *salesService) ListInvoices(ctx context.Context, filter repository.DocumentFilter) ([]model.Invoice, error) {
	return s.core.Repos.Invoices.WithTx(s.core.DB.WithContext(ctx)).FindAll(filter)
}
