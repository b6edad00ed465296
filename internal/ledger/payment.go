package ledger

import (
	"github.com/shopspring/decimal"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
)

// StatusFor derives the payment status from what has been paid so far
func StatusFor(total, paid decimal.Decimal) model.PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return model.PaymentPaid
	case paid.IsPositive():
		return model.PaymentPartial
	default:
		return model.PaymentUnpaid
	}
}

// ApplyPayment validates 0 < amount <= total − paid and returns the new
// paid amount and status
func ApplyPayment(total, paid, amount decimal.Decimal) (decimal.Decimal, model.PaymentStatus, error) {
	outstanding := total.Sub(paid)
	if !amount.IsPositive() || amount.GreaterThan(outstanding) {
		return paid, StatusFor(total, paid), apperr.ErrInvalidPaymentAmount.
			Msgf("payment must be greater than 0 and at most %s", outstanding.String()).
			With("amount", amount.String()).
			With("outstanding", outstanding.String())
	}
	newPaid := paid.Add(amount)
	if newPaid.GreaterThanOrEqual(total) {
		return newPaid, model.PaymentPaid, nil
	}
	return newPaid, model.PaymentPartial, nil
}
