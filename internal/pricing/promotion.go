package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"go-minimart-pos/internal/model"
)

var hundred = decimal.NewFromInt(100)

// IsApplicable reports whether the promotion applies to subtotal at now.
// Both the date window and the minimum spend are inclusive.
func IsApplicable(p *model.Promotion, subtotal decimal.Decimal, now time.Time) bool {
	if p == nil || !p.IsActive {
		return false
	}
	if now.Before(p.StartDate) || now.After(p.EndDate) {
		return false
	}
	return subtotal.GreaterThanOrEqual(p.MinimumSpend)
}

// Discount returns the amount the promotion takes off subtotal. The result
// is never larger than subtotal.
func Discount(p *model.Promotion, subtotal decimal.Decimal, now time.Time) decimal.Decimal {
	if !IsApplicable(p, subtotal, now) {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch p.Type {
	case model.PromotionPercent:
		d = subtotal.Mul(p.Value).Div(hundred)
	case model.PromotionFixedAmount:
		d = p.Value
	default:
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
