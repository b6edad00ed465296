package validator

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"go-minimart-pos/internal/apperr"
)

type paymentRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" validate:"uuid_required"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency  string          `json:"currency" validate:"required,len=3"`
}

func TestCheck(t *testing.T) {
	ok := paymentRequest{InvoiceID: uuid.New(), Amount: decimal.NewFromInt(5000), Currency: "VND"}
	assert.NoError(t, Check(ok))

	missing := ok
	missing.InvoiceID = uuid.Nil
	err := Check(missing)
	assert.True(t, errors.Is(err, apperr.ErrMissingRequiredField))
	assert.Equal(t, "invoice_id", apperr.As(err).Details["field"])

	zero := ok
	zero.Amount = decimal.Zero
	err = Check(zero)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Equal(t, "amount", apperr.As(err).Details["field"])

	badCurrency := ok
	badCurrency.Currency = "DOLLAR"
	errs := ValidateStruct(badCurrency)
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "currency", errs[0].FailedField)
		assert.Equal(t, "len", errs[0].Tag)
	}
}
