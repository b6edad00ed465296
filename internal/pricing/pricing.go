// Package pricing resolves selling units, price tiers and line prices.
package pricing

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
)

type Tier string

// Upper bounds for a single document line
const (
	MaxQuantity         = 1_000_000
	MaxConversionFactor = 100_000
	maxBaseQuantity     = math.MaxInt32
)

const (
	TierRetail    Tier = "RETAIL"
	TierWholesale Tier = "WHOLESALE"
)

// ParseTier accepts "", RETAIL or WHOLESALE (any case). Empty selects the
// wholesale tier, which is what the counter screen preselects.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToUpper(strings.TrimSpace(s))) {
	case "", TierWholesale:
		return TierWholesale, nil
	case TierRetail:
		return TierRetail, nil
	default:
		return "", apperr.Invalid("unknown price tier '%s'", s).With("field", "price_tier")
	}
}

// ConversionFactor returns how many base units one unitName equals
func ConversionFactor(p *model.Product, unitName string) (int, error) {
	if unitName == "" || strings.EqualFold(unitName, p.Unit) {
		return 1, nil
	}
	for _, u := range p.Units {
		if strings.EqualFold(u.Name, unitName) {
			return u.ConversionFactor, nil
		}
	}
	return 0, apperr.ErrUnknownUnit.
		Msgf("unit '%s' is not defined for product '%s'", unitName, p.Name).
		With("product_id", p.ID.String()).
		With("unit", unitName)
}

// BaseQuantity converts quantity entered in a unit of factor into base
// units. Both must be positive and the product must fit in an int32.
func BaseQuantity(quantity, factor int) (int, error) {
	if quantity <= 0 {
		return 0, apperr.Invalid("quantity must be greater than zero").With("field", "quantity")
	}
	if factor <= 0 {
		return 0, apperr.Invalid("conversion factor must be greater than zero").With("field", "conversion_factor")
	}
	if quantity > maxBaseQuantity/factor {
		return 0, apperr.Invalid("quantity %d x %d exceeds the base unit limit", quantity, factor).
			With("field", "quantity").
			With("limit", maxBaseQuantity)
	}
	return quantity * factor, nil
}

// BasePrice returns the per-base-unit price for a tier
func BasePrice(p *model.Product, tier Tier) decimal.Decimal {
	if tier == TierWholesale && p.WholesalePrice.GreaterThan(decimal.Zero) {
		return p.WholesalePrice
	}
	return p.RetailPrice
}

// UnitPrice is basePrice × factor − discount, never below zero
func UnitPrice(basePrice decimal.Decimal, factor int, discount decimal.Decimal) decimal.Decimal {
	price := basePrice.Mul(decimal.NewFromInt(int64(factor))).Sub(discount)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// LineInput is one requested line of a sale
type LineInput struct {
	Quantity     int
	Unit         string
	Tier         Tier
	LineDiscount decimal.Decimal
}

// Quote is the priced form of a LineInput
type Quote struct {
	UnitName     string          `json:"unit_name"`
	Factor       int             `json:"conversion_factor"`
	BaseQuantity int             `json:"base_quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// QuoteLine prices a line against the product's current prices
func QuoteLine(p *model.Product, in LineInput) (Quote, error) {
	factor, err := ConversionFactor(p, in.Unit)
	if err != nil {
		return Quote{}, err
	}
	base, err := BaseQuantity(in.Quantity, factor)
	if err != nil {
		return Quote{}, err
	}
	unitName := in.Unit
	if unitName == "" {
		unitName = p.Unit
	}
	price := UnitPrice(BasePrice(p, in.Tier), factor, in.LineDiscount)
	return Quote{
		UnitName:     unitName,
		Factor:       factor,
		BaseQuantity: base,
		UnitPrice:    price,
		LineTotal:    price.Mul(decimal.NewFromInt(int64(in.Quantity))),
	}, nil
}

// UnitOption is a sellable unit of a product
type UnitOption struct {
	Name             string `json:"name"`
	ConversionFactor int    `json:"conversion_factor"`
	IsBase           bool   `json:"is_base"`
}

// AvailableUnits lists the base unit first, then alternates by factor
func AvailableUnits(p *model.Product) []UnitOption {
	alts := make([]model.ProductUnit, len(p.Units))
	copy(alts, p.Units)
	sort.SliceStable(alts, func(i, j int) bool {
		return alts[i].ConversionFactor < alts[j].ConversionFactor
	})

	opts := []UnitOption{{Name: p.Unit, ConversionFactor: 1, IsBase: true}}
	for _, u := range alts {
		opts = append(opts, UnitOption{Name: u.Name, ConversionFactor: u.ConversionFactor})
	}
	return opts
}
