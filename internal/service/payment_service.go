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
	"go-minimart-pos/internal/repository"
)

type PaymentService interface {
	PayInvoice(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, actor Actor) (*model.DebtPayment, error)
	PayReceipt(ctx context.Context, receiptID uuid.UUID, amount decimal.Decimal, actor Actor) (*model.DebtPayment, error)
	Receivables(ctx context.Context, customerID *uuid.UUID) ([]model.Invoice, error)
	Payables(ctx context.Context, supplierID *uuid.UUID) ([]model.GoodsReceipt, error)
	History(ctx context.Context, invoiceID, receiptID *uuid.UUID) ([]model.DebtPayment, error)
}

type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type paymentService struct {
	core *Core
}

func NewPaymentService(core *Core) PaymentService {
	return &paymentService{core: core}
}

var openStatuses = []model.PaymentStatus{model.PaymentUnpaid, model.PaymentPartial}

// PayInvoice collects amount (base currency) against an invoice
func (s *paymentService) PayInvoice(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, actor Actor) (*model.DebtPayment, error) {
	var (
		payment *model.DebtPayment
		invoice *model.Invoice
	)
	err := s.core.commit(ctx, []string{documentKey("invoice", invoiceID)}, func(tx *gorm.DB) error {
		var err error
		invoice, err = s.core.Repos.Invoices.WithTx(tx).LockByID(invoiceID)
		if err != nil {
			return notFound(err, "invoice", invoiceID)
		}

		paid, status, err := ledger.ApplyPayment(invoice.TotalAmount, invoice.AmountPaid, amount)
		if err != nil {
			return err
		}
		if err := s.core.Repos.Invoices.WithTx(tx).UpdatePayment(invoice.ID, paid, status, actor.By()); err != nil {
			return err
		}
		invoice.AmountPaid = paid
		invoice.PaymentStatus = status

		now := s.core.now()
		entry, err := s.core.Funds.Append(tx, ledger.FundEntry{
			Type:          model.FundIn,
			Amount:        amount,
			Currency:      s.core.BaseCurrency,
			Reason:        fmt.Sprintf("Debt collected for invoice %s", shortID(invoice.ID)),
			OccurredAt:    now,
			System:        true,
			ReferenceType: model.RefInvoice,
			ReferenceID:   &invoice.ID,
			UserID:        actor.ID(),
		})
		if err != nil {
			return err
		}

		payment = &model.DebtPayment{
			InvoiceID:         &invoice.ID,
			Amount:            amount,
			Currency:          s.core.BaseCurrency,
			StatusAfter:       status,
			PaidAt:            now,
			FundTransactionID: entry.ID,
			UserID:            actor.ID(),
		}
		return s.core.Repos.Funds.WithTx(tx).CreatePayment(payment)
	})
	if err != nil {
		return nil, err
	}

	s.core.Log.Info("invoice payment recorded",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("amount", amount.String()),
		zap.String("status", string(invoice.PaymentStatus)),
	)
	s.publish("invoice", invoiceID, payment, invoice.TotalAmount, invoice.AmountPaid, actor)
	return payment, nil
}

// PayReceipt pays a supplier in the receipt's currency. The fund entry uses
// the current table rate for that currency, or the receipt's rate when the
// table has none.
func (s *paymentService) PayReceipt(ctx context.Context, receiptID uuid.UUID, amount decimal.Decimal, actor Actor) (*model.DebtPayment, error) {
	var (
		payment *model.DebtPayment
		receipt *model.GoodsReceipt
	)
	err := s.core.commit(ctx, []string{documentKey("receipt", receiptID)}, func(tx *gorm.DB) error {
		var err error
		receipt, err = s.core.Repos.Receipts.WithTx(tx).LockByID(receiptID)
		if err != nil {
			return notFound(err, "goods receipt", receiptID)
		}

		paid, status, err := ledger.ApplyPayment(receipt.TotalAmount, receipt.AmountPaid, amount)
		if err != nil {
			return err
		}
		if err := s.core.Repos.Receipts.WithTx(tx).UpdatePayment(receipt.ID, paid, status, actor.By()); err != nil {
			return err
		}
		receipt.AmountPaid = paid
		receipt.PaymentStatus = status

		rate := receipt.ExchangeRate
		if r, err := s.core.rate(tx, receipt.Currency); err == nil {
			rate = r.RateToBase
		} else if !apperrIsInvalid(err) {
			return err
		}

		now := s.core.now()
		entry, err := s.core.Funds.Append(tx, ledger.FundEntry{
			Type:          model.FundOut,
			Amount:        amount,
			Currency:      receipt.Currency,
			Rate:          rate,
			Reason:        fmt.Sprintf("Debt paid for goods receipt %s", shortID(receipt.ID)),
			OccurredAt:    now,
			System:        true,
			ReferenceType: model.RefGoodsReceipt,
			ReferenceID:   &receipt.ID,
			UserID:        actor.ID(),
		})
		if err != nil {
			return err
		}

		payment = &model.DebtPayment{
			GoodsReceiptID:    &receipt.ID,
			Amount:            amount,
			Currency:          receipt.Currency,
			StatusAfter:       status,
			PaidAt:            now,
			FundTransactionID: entry.ID,
			UserID:            actor.ID(),
		}
		return s.core.Repos.Funds.WithTx(tx).CreatePayment(payment)
	})
	if err != nil {
		return nil, err
	}

	s.core.Log.Info("receipt payment recorded",
		zap.String("receipt_id", receiptID.String()),
		zap.String("amount", amount.String()),
		zap.String("status", string(receipt.PaymentStatus)),
	)
	s.publish("receipt", receiptID, payment, receipt.TotalAmount, receipt.AmountPaid, actor)
	return payment, nil
}

func (s *paymentService) publish(kind string, id uuid.UUID, p *model.DebtPayment, total, paid decimal.Decimal, actor Actor) {
	s.core.Notifier.Publish("payment_recorded", map[string]interface{}{
		"document":    kind,
		"document_id": id,
		"amount":      p.Amount,
		"currency":    p.Currency,
		"status":      p.StatusAfter,
		"outstanding": total.Sub(paid),
		"user":        actor.payload(),
	})
}

func (s *paymentService) Receivables(ctx context.Context, customerID *uuid.UUID) ([]model.Invoice, error) {
	return s.core.Repos.Invoices.WithTx(s.core.DB.WithContext(ctx)).FindAll(repository.DocumentFilter{
		PartyID:  customerID,
		Statuses: openStatuses,
	})
}

func (s *paymentService) Payables(ctx context.Context, supplierID *uuid.UUID) ([]model.GoodsReceipt, error) {
	return s.core.Repos.Receipts.WithTx(s.core.DB.WithContext(ctx)).FindAll(repository.DocumentFilter{
		PartyID:  supplierID,
		Statuses: openStatuses,
	})
}

func (s *paymentService) History(ctx context.Context, invoiceID, receiptID *uuid.UUID) ([]model.DebtPayment, error) {
	return s.core.Repos.Funds.WithTx(s.core.DB.WithContext(ctx)).FindPayments(invoiceID, receiptID)
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

func apperrIsInvalid(err error) bool {
	return apperr.KindOf(err) == apperr.KindValidation
}
