package service

import (
	"context"
	"fmt"
	"strings"

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

type ReceivingService interface {
	Receive(ctx context.Context, req *ReceiveRequest, actor Actor) (*model.GoodsReceipt, error)
	GetReceipt(ctx context.Context, id uuid.UUID) (*model.GoodsReceipt, error)
	ListReceipts(ctx context.Context, filter repository.DocumentFilter) ([]model.GoodsReceipt, error)
}

type ReceiveLine struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  int             `json:"quantity" validate:"gt=0,lte=1000000"`
	Unit      string          `json:"unit"`
	CostPrice decimal.Decimal `json:"cost_price" validate:"gte=0"`
}

// ReceiveRequest. CostPrice is per entered unit in Currency; ExchangeRate
// converts Currency into the base currency and defaults to the rate table.
type ReceiveRequest struct {
	SupplierID   uuid.UUID        `json:"supplier_id" validate:"uuid_required"`
	Lines        []ReceiveLine    `json:"lines" validate:"dive"`
	Paid         bool             `json:"paid"`
	Currency     string           `json:"currency"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
	Note         string           `json:"note"`
}

type receivingService struct {
	core *Core
}

func NewReceivingService(core *Core) ReceivingService {
	return &receivingService{core: core}
}

func (s *receivingService) Receive(ctx context.Context, req *ReceiveRequest, actor Actor) (*model.GoodsReceipt, error) {
	// 1. Validate request
	if req.SupplierID == uuid.Nil {
		return nil, apperr.MissingField("supplier_id")
	}
	if len(req.Lines) == 0 {
		return nil, apperr.MissingField("lines")
	}
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	currency, err := s.core.normalizeCurrency(strings.ToUpper(req.Currency))
	if err != nil {
		return nil, err
	}
	if req.ExchangeRate != nil && !req.ExchangeRate.IsPositive() {
		return nil, apperr.Invalid("exchange rate must be greater than zero").With("field", "exchange_rate")
	}

	ids := make([]uuid.UUID, 0, len(req.Lines))
	for _, l := range req.Lines {
		ids = append(ids, l.ProductID)
	}

	var (
		receipt  *model.GoodsReceipt
		touched  map[uuid.UUID]*model.Product
		supplier *model.Supplier
	)
	err = s.core.commit(ctx, productKeys(ids), func(tx *gorm.DB) error {
		sup, err := s.core.Repos.Suppliers.WithTx(tx).FindByID(req.SupplierID)
		if err != nil {
			return notFound(err, "supplier", req.SupplierID)
		}
		supplier = sup

		// 2. Snapshot the exchange rate
		rate := decimalOne
		if currency != s.core.BaseCurrency {
			if req.ExchangeRate != nil {
				rate = *req.ExchangeRate
			} else {
				r, err := s.core.rate(tx, currency)
				if err != nil {
					return err
				}
				rate = r.RateToBase
			}
		}

		products, err := s.core.lockProducts(tx, ids)
		if err != nil {
			return err
		}

		now := s.core.now()
		receipt = &model.GoodsReceipt{
			SupplierID:    supplier.ID,
			UserID:        actor.ID(),
			ReceivedAt:    now,
			TotalAmount:   decimal.Zero,
			PaymentStatus: model.PaymentUnpaid,
			AmountPaid:    decimal.Zero,
			Currency:      currency,
			ExchangeRate:  rate,
			Note:          req.Note,
		}
		receipt.CreatedBy = actor.By()
		receipt.UpdatedBy = actor.By()

		// 3. Resolve units and cost per base unit
		type resolved struct {
			product *model.Product
			line    ReceiveLine
			unit    string
			factor  int
			baseQty int
			costPer decimal.Decimal
		}
		lines := make([]resolved, 0, len(req.Lines))
		for i, l := range req.Lines {
			p := products[l.ProductID]
			factor, err := pricing.ConversionFactor(p, l.Unit)
			if err != nil {
				return err
			}
			baseQty, err := pricing.BaseQuantity(l.Quantity, factor)
			if err != nil {
				return apperr.As(err).With("product_id", p.ID.String())
			}
			unit := l.Unit
			if unit == "" {
				unit = p.Unit
			}
			costPer := ledger.CostPerBaseUnit(l.CostPrice, rate, factor)
			lineTotal := l.CostPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			receipt.TotalAmount = receipt.TotalAmount.Add(lineTotal)
			receipt.Details = append(receipt.Details, model.GoodsReceiptDetail{
				LineNo:           i + 1,
				ProductID:        p.ID,
				Quantity:         l.Quantity,
				UnitName:         unit,
				ConversionFactor: factor,
				CostPrice:        l.CostPrice,
				CostPerBaseUnit:  costPer.Round(ledger.CostScale),
				LineTotal:        lineTotal,
			})
			lines = append(lines, resolved{product: p, line: l, unit: unit, factor: factor, baseQty: baseQty, costPer: costPer})
		}
		if req.Paid || receipt.TotalAmount.IsZero() {
			receipt.PaymentStatus = model.PaymentPaid
			receipt.AmountPaid = receipt.TotalAmount
		}
		if err := s.core.Repos.Receipts.WithTx(tx).Create(receipt); err != nil {
			return err
		}

		// 4. Weighted average cost on pre-receipt stock, then the RECEIPT movement
		for i, l := range lines {
			newCost := ledger.WeightedAverageCost(l.product.CostPrice, l.product.StockQuantity, l.costPer, l.baseQty)
			if !newCost.Equal(l.product.CostPrice) {
				if err := s.core.Repos.Products.WithTx(tx).UpdateCost(l.product.ID, newCost, actor.By()); err != nil {
					return err
				}
				l.product.CostPrice = newCost
			}
			_, err := s.core.Stock.Apply(tx, l.product, ledger.Movement{
				Delta:         l.baseQty,
				Type:          model.MovementReceipt,
				Reason:        fmt.Sprintf("Received %d %s from %s", l.line.Quantity, l.unit, supplier.Name),
				OccurredAt:    now,
				Sequence:      i + 1,
				ReferenceType: model.RefGoodsReceipt,
				ReferenceID:   &receipt.ID,
				UserID:        actor.ID(),
			})
			if err != nil {
				return err
			}
		}

		// 5. Cash out when paid on delivery
		if req.Paid && receipt.TotalAmount.IsPositive() {
			_, err := s.core.Funds.Append(tx, ledger.FundEntry{
				Type:          model.FundOut,
				Amount:        receipt.TotalAmount,
				Currency:      currency,
				Rate:          rate,
				Reason:        "Goods receipt from " + supplier.Name,
				OccurredAt:    now,
				System:        true,
				ReferenceType: model.RefGoodsReceipt,
				ReferenceID:   &receipt.ID,
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
		s.core.Log.Info("goods receipt rejected", zap.String("user", actor.By()), zap.Error(err))
		return nil, err
	}

	s.core.Log.Info("goods receipt created",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("supplier", supplier.Name),
		zap.String("total", receipt.TotalAmount.String()),
		zap.String("currency", receipt.Currency),
	)
	s.core.Notifier.Publish("receipt_created", map[string]interface{}{
		"receipt_id":     receipt.ID,
		"supplier_id":    supplier.ID,
		"total_amount":   receipt.TotalAmount,
		"currency":       receipt.Currency,
		"payment_status": receipt.PaymentStatus,
		"user":           actor.payload(),
		"message":        fmt.Sprintf("%s received goods from %s", actor.Name, supplier.Name),
	})
	s.core.notifyStock("receipt", sortedProducts(touched), actor)
	return receipt, nil
}

func (s *receivingService) GetReceipt(ctx context.Context, id uuid.UUID) (*model.GoodsReceipt, error) {
	receipt, err := s.core.Repos.Receipts.WithTx(s.core.DB.WithContext(ctx)).FindByID(id)
	if err != nil {
		return nil, notFound(err, "goods receipt", id)
	}
	return receipt, nil
}

func (s *receivingService) ListReceipts(ctx context.Context, filter repository.DocumentFilter) ([]model.GoodsReceipt, error) {
	return s.core.Repos.Receipts.WithTx(s.core.DB.WithContext(ctx)).FindAll(filter)
}
