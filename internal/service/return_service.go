package service

import (
	"context"
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

type ReturnService interface {
	ReturnFromInvoice(ctx context.Context, invoiceID uuid.UUID, req *CustomerReturnRequest, actor Actor) (*model.ReturnSlip, error)
	ReturnToSupplier(ctx context.Context, req *SupplierReturnRequest, actor Actor) (*model.SupplierReturnSlip, error)
	GetReturnSlip(ctx context.Context, id uuid.UUID) (*model.ReturnSlip, error)
	GetSupplierReturn(ctx context.Context, id uuid.UUID) (*model.SupplierReturnSlip, error)
	ListReturnSlips(ctx context.Context, filter repository.DocumentFilter) ([]model.ReturnSlip, error)
	ListSupplierReturns(ctx context.Context, filter repository.DocumentFilter) ([]model.SupplierReturnSlip, error)
}

// CustomerReturnLine names the invoice line directly or by product. Quantity
// is in the unit the line was sold in.
type CustomerReturnLine struct {
	InvoiceDetailID *uuid.UUID `json:"invoice_detail_id"`
	ProductID       *uuid.UUID `json:"product_id"`
	Quantity        int        `json:"quantity" validate:"gt=0,lte=1000000"`
}

type CustomerReturnRequest struct {
	Lines  []CustomerReturnLine `json:"lines" validate:"dive"`
	Reason string               `json:"reason"`
}

type SupplierReturnLine struct {
	ProductID uuid.UUID        `json:"product_id" validate:"uuid_required"`
	Quantity  int              `json:"quantity" validate:"gt=0,lte=1000000"`
	Unit      string           `json:"unit"`
	UnitCost  *decimal.Decimal `json:"unit_cost"`
}

type SupplierReturnRequest struct {
	SupplierID     uuid.UUID            `json:"supplier_id" validate:"uuid_required"`
	GoodsReceiptID *uuid.UUID           `json:"goods_receipt_id"`
	Lines          []SupplierReturnLine `json:"lines" validate:"dive"`
	Reason         string               `json:"reason"`
}

type returnService struct {
	core *Core
}

func NewReturnService(core *Core) ReturnService {
	return &returnService{core: core}
}

// matchDetail resolves a return line to the invoice line it reverses. A
// product reference picks the first line of that product with quantity left.
func matchDetail(invoice *model.Invoice, l CustomerReturnLine, used map[uuid.UUID]int) (*model.InvoiceDetail, error) {
	if l.InvoiceDetailID != nil {
		for i := range invoice.Details {
			if invoice.Details[i].ID == *l.InvoiceDetailID {
				return &invoice.Details[i], nil
			}
		}
		return nil, apperr.NotFound("invoice line", *l.InvoiceDetailID)
	}
	if l.ProductID == nil {
		return nil, apperr.MissingField("invoice_detail_id")
	}
	var first *model.InvoiceDetail
	for i := range invoice.Details {
		d := &invoice.Details[i]
		if d.ProductID != *l.ProductID {
			continue
		}
		if first == nil {
			first = d
		}
		if d.Quantity-used[d.ID] >= l.Quantity {
			return d, nil
		}
	}
	if first == nil {
		return nil, apperr.NotFound("invoice line for product", *l.ProductID)
	}
	return first, nil
}

func (s *returnService) ReturnFromInvoice(ctx context.Context, invoiceID uuid.UUID, req *CustomerReturnRequest, actor Actor) (*model.ReturnSlip, error) {
	// 1. Validate request
	if len(req.Lines) == 0 {
		return nil, apperr.MissingField("lines")
	}
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 2. Read the invoice once to learn which products to lock
	current, err := s.core.Repos.Invoices.WithTx(s.core.DB.WithContext(ctx)).FindByID(invoiceID)
	if err != nil {
		return nil, notFound(err, "invoice", invoiceID)
	}
	keys := []string{documentKey("invoice", invoiceID)}
	ids := make([]uuid.UUID, 0, len(current.Details))
	for _, d := range current.Details {
		ids = append(ids, d.ProductID)
	}
	keys = append(keys, productKeys(ids)...)

	var (
		slip    *model.ReturnSlip
		touched map[uuid.UUID]*model.Product
	)
	err = s.core.commit(ctx, keys, func(tx *gorm.DB) error {
		invoice, err := s.core.Repos.Invoices.WithTx(tx).LockByID(invoiceID)
		if err != nil {
			return notFound(err, "invoice", invoiceID)
		}
		returned, err := s.core.Repos.Invoices.WithTx(tx).ReturnedQuantities(invoiceID)
		if err != nil {
			return err
		}

		// 3. Match lines and enforce the cumulative cap per invoice line
		type matched struct {
			detail *model.InvoiceDetail
			qty    int
		}
		used := make(map[uuid.UUID]int, len(returned))
		for id, q := range returned {
			used[id] = q
		}
		lines := make([]matched, 0, len(req.Lines))
		productIDs := make([]uuid.UUID, 0, len(req.Lines))
		for _, l := range req.Lines {
			d, err := matchDetail(invoice, l, used)
			if err != nil {
				return err
			}
			if l.Quantity > d.Quantity-used[d.ID] {
				return apperr.ErrExceedsOriginalQuantity.
					Msgf("cannot return %d %s of '%s': %d sold, %d already returned",
						l.Quantity, d.UnitName, d.ProductName, d.Quantity, used[d.ID]).
					With("invoice_detail_id", d.ID.String()).
					With("sold", d.Quantity).
					With("returned", used[d.ID]).
					With("requested", l.Quantity)
			}
			used[d.ID] += l.Quantity
			lines = append(lines, matched{detail: d, qty: l.Quantity})
			productIDs = append(productIDs, d.ProductID)
		}

		products, err := s.core.lockProductsForReversal(tx, productIDs)
		if err != nil {
			return err
		}

		// 4. Slip with refund at the price the line was sold for
		now := s.core.now()
		slip = &model.ReturnSlip{
			InvoiceID:   invoice.ID,
			CustomerID:  invoice.CustomerID,
			UserID:      actor.ID(),
			ReturnedAt:  now,
			TotalRefund: decimal.Zero,
			Reason:      req.Reason,
		}
		slip.CreatedBy = actor.By()
		slip.UpdatedBy = actor.By()
		for i, l := range lines {
			lineTotal := l.detail.PricePerUnitAtSale.Mul(decimal.NewFromInt(int64(l.qty)))
			slip.TotalRefund = slip.TotalRefund.Add(lineTotal)
			slip.Details = append(slip.Details, model.ReturnSlipDetail{
				LineNo:           i + 1,
				InvoiceDetailID:  l.detail.ID,
				ProductID:        l.detail.ProductID,
				Quantity:         l.qty,
				UnitName:         l.detail.UnitName,
				ConversionFactor: l.detail.ConversionFactorAtSale,
				RefundPerUnit:    l.detail.PricePerUnitAtSale,
				LineTotal:        lineTotal,
			})
		}
		if err := s.core.Repos.Returns.WithTx(tx).CreateReturnSlip(slip); err != nil {
			return err
		}

		// 5. Put the goods back in base units
		for i, l := range lines {
			_, err := s.core.Stock.Apply(tx, products[l.detail.ProductID], ledger.Movement{
				Delta:         l.qty * l.detail.ConversionFactorAtSale,
				Type:          model.MovementCustomerReturn,
				Reason:        fmt.Sprintf("Customer returned %d %s: %s", l.qty, l.detail.UnitName, req.Reason),
				OccurredAt:    now,
				Sequence:      i + 1,
				ReferenceType: model.RefReturnSlip,
				ReferenceID:   &slip.ID,
				UserID:        actor.ID(),
			})
			if err != nil {
				return err
			}
		}

		if err := s.core.Repos.Invoices.WithTx(tx).MarkReturned(invoice.ID, actor.By()); err != nil {
			return err
		}

		// 6. Refund the customer
		if slip.TotalRefund.IsPositive() {
			_, err := s.core.Funds.Append(tx, ledger.FundEntry{
				Type:          model.FundOut,
				Amount:        slip.TotalRefund,
				Currency:      s.core.BaseCurrency,
				Reason:        "Refund for returned goods",
				OccurredAt:    now,
				System:        true,
				ReferenceType: model.RefReturnSlip,
				ReferenceID:   &slip.ID,
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
		s.core.Log.Info("customer return rejected", zap.String("invoice_id", invoiceID.String()), zap.Error(err))
		return nil, err
	}

	s.core.Log.Info("customer return recorded",
		zap.String("return_slip_id", slip.ID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("refund", slip.TotalRefund.String()),
	)
	s.core.notifyStock("customer_return", sortedProducts(touched), actor)
	return slip, nil
}

func (s *returnService) ReturnToSupplier(ctx context.Context, req *SupplierReturnRequest, actor Actor) (*model.SupplierReturnSlip, error) {
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
	for _, l := range req.Lines {
		if l.UnitCost != nil && l.UnitCost.IsNegative() {
			return nil, apperr.Invalid("unit cost cannot be negative").With("field", "unit_cost")
		}
	}

	ids := make([]uuid.UUID, 0, len(req.Lines))
	for _, l := range req.Lines {
		ids = append(ids, l.ProductID)
	}
	keys := productKeys(ids)
	if req.GoodsReceiptID != nil {
		keys = append(keys, documentKey("receipt", *req.GoodsReceiptID))
	}

	var (
		slip     *model.SupplierReturnSlip
		touched  map[uuid.UUID]*model.Product
		supplier *model.Supplier
	)
	err := s.core.commit(ctx, keys, func(tx *gorm.DB) error {
		sup, err := s.core.Repos.Suppliers.WithTx(tx).FindByID(req.SupplierID)
		if err != nil {
			return notFound(err, "supplier", req.SupplierID)
		}
		supplier = sup

		// 2. What the referenced receipt brought in, less earlier returns
		var (
			receipt     *model.GoodsReceipt
			remaining   map[uuid.UUID]int
			receiptCost map[uuid.UUID]decimal.Decimal
		)
		if req.GoodsReceiptID != nil {
			receipt, err = s.core.Repos.Receipts.WithTx(tx).LockByID(*req.GoodsReceiptID)
			if err != nil {
				return notFound(err, "goods receipt", *req.GoodsReceiptID)
			}
			if receipt.SupplierID != supplier.ID {
				return apperr.Invalid("goods receipt belongs to another supplier").With("field", "goods_receipt_id")
			}
			returned, err := s.core.Repos.Receipts.WithTx(tx).ReturnedBaseQuantities(receipt.ID)
			if err != nil {
				return err
			}
			remaining = map[uuid.UUID]int{}
			receiptCost = map[uuid.UUID]decimal.Decimal{}
			for _, d := range receipt.Details {
				remaining[d.ProductID] += d.BaseQuantity()
				receiptCost[d.ProductID] = d.CostPerBaseUnit
			}
			for pid, q := range returned {
				remaining[pid] -= q
			}
		}

		lock := s.core.lockProducts
		if receipt != nil {
			lock = s.core.lockProductsForReversal
		}
		products, err := lock(tx, ids)
		if err != nil {
			return err
		}

		// 3. Resolve units, caps and stock
		now := s.core.now()
		slip = &model.SupplierReturnSlip{
			SupplierID:     supplier.ID,
			GoodsReceiptID: req.GoodsReceiptID,
			UserID:         actor.ID(),
			ReturnedAt:     now,
			TotalAmount:    decimal.Zero,
			Reason:         req.Reason,
		}
		slip.CreatedBy = actor.By()
		slip.UpdatedBy = actor.By()
		demand := map[uuid.UUID]int{}
		for i, l := range req.Lines {
			p := products[l.ProductID]
			factor, err := pricing.ConversionFactor(p, l.Unit)
			if err != nil {
				return err
			}
			unit := l.Unit
			if unit == "" {
				unit = p.Unit
			}
			base, err := pricing.BaseQuantity(l.Quantity, factor)
			if err != nil {
				return apperr.As(err).With("product_id", p.ID.String())
			}
			demand[p.ID] += base

			if receipt != nil && demand[p.ID] > remaining[p.ID] {
				return apperr.ErrExceedsOriginalQuantity.
					Msgf("cannot return %d base units of '%s' against this receipt: %d left", demand[p.ID], p.Name, remaining[p.ID]).
					With("product_id", p.ID.String()).
					With("remaining", remaining[p.ID]).
					With("requested", demand[p.ID])
			}

			var unitCost decimal.Decimal
			switch {
			case l.UnitCost != nil:
				unitCost = *l.UnitCost
			case receipt != nil:
				unitCost = receiptCost[p.ID].Mul(decimal.NewFromInt(int64(factor)))
			default:
				unitCost = p.CostPrice.Mul(decimal.NewFromInt(int64(factor)))
			}
			lineTotal := unitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
			slip.TotalAmount = slip.TotalAmount.Add(lineTotal)
			slip.Details = append(slip.Details, model.SupplierReturnSlipDetail{
				LineNo:           i + 1,
				ProductID:        p.ID,
				Quantity:         l.Quantity,
				UnitName:         unit,
				ConversionFactor: factor,
				UnitCost:         unitCost,
				LineTotal:        lineTotal,
			})
		}
		if err := checkAvailability(products, demand); err != nil {
			return err
		}
		if err := s.core.Repos.Returns.WithTx(tx).CreateSupplierReturn(slip); err != nil {
			return err
		}

		// 4. Take the goods out of stock
		for i, d := range slip.Details {
			_, err := s.core.Stock.Apply(tx, products[d.ProductID], ledger.Movement{
				Delta:         -d.BaseQuantity(),
				Type:          model.MovementSupplierReturn,
				Reason:        fmt.Sprintf("Returned %d %s to %s", d.Quantity, d.UnitName, supplier.Name),
				OccurredAt:    now,
				Sequence:      i + 1,
				ReferenceType: model.RefSupplierReturn,
				ReferenceID:   &slip.ID,
				UserID:        actor.ID(),
			})
			if err != nil {
				return err
			}
		}

		// 5. Cash recovered from the supplier
		if slip.TotalAmount.IsPositive() {
			_, err := s.core.Funds.Append(tx, ledger.FundEntry{
				Type:          model.FundIn,
				Amount:        slip.TotalAmount,
				Currency:      s.core.BaseCurrency,
				Reason:        "Refund from supplier " + supplier.Name,
				OccurredAt:    now,
				System:        true,
				ReferenceType: model.RefSupplierReturn,
				ReferenceID:   &slip.ID,
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
		s.core.Log.Info("supplier return rejected", zap.String("supplier_id", req.SupplierID.String()), zap.Error(err))
		return nil, err
	}

	s.core.Log.Info("supplier return recorded",
		zap.String("slip_id", slip.ID.String()),
		zap.String("supplier", supplier.Name),
		zap.String("total", slip.TotalAmount.String()),
	)
	s.core.notifyStock("supplier_return", sortedProducts(touched), actor)
	return slip, nil
}

func (s *returnService) GetReturnSlip(ctx context.Context, id uuid.UUID) (*model.ReturnSlip, error) {
	slip, err := s.core.Repos.Returns.WithTx(s.core.DB.WithContext(ctx)).FindReturnSlipByID(id)
	if err != nil {
		return nil, notFound(err, "return slip", id)
	}
	return slip, nil
}

func (s *returnService) GetSupplierReturn(ctx context.Context, id uuid.UUID) (*model.SupplierReturnSlip, error) {
	slip, err := s.core.Repos.Returns.WithTx(s.core.DB.WithContext(ctx)).FindSupplierReturnByID(id)
	if err != nil {
		return nil, notFound(err, "supplier return slip", id)
	}
	return slip, nil
}

func (s *returnService) ListReturnSlips(ctx context.Context, filter repository.DocumentFilter) ([]model.ReturnSlip, error) {
	return s.core.Repos.Returns.WithTx(s.core.DB.WithContext(ctx)).FindReturnSlips(filter)
}

func (s *returnService) ListSupplierReturns(ctx context.Context, filter repository.DocumentFilter) ([]model.SupplierReturnSlip, error) {
	return s.core.Repos.Returns.WithTx(s.core.DB.WithContext(ctx)).FindSupplierReturns(filter)
}
