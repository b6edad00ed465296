package ledger

import "github.com/shopspring/decimal"

// CostScale is the number of decimals product cost is stored with
const CostScale = 4

// CostPerBaseUnit converts an entered unit cost in a foreign currency into a
// base-currency cost for one base unit
func CostPerBaseUnit(enteredCost, rate decimal.Decimal, factor int) decimal.Decimal {
	if factor <= 0 {
		factor = 1
	}
	return enteredCost.Mul(rate).Div(decimal.NewFromInt(int64(factor)))
}

// WeightedAverageCost returns the new cost after receiving qty base units at
// lineCost each, given the stock level before the receipt
func WeightedAverageCost(currentCost decimal.Decimal, currentStock int, lineCost decimal.Decimal, qty int) decimal.Decimal {
	if currentStock <= 0 || qty <= 0 {
		if qty <= 0 {
			return currentCost
		}
		return lineCost.Round(CostScale)
	}
	oldStock := decimal.NewFromInt(int64(currentStock))
	received := decimal.NewFromInt(int64(qty))

	value := currentCost.Mul(oldStock).Add(lineCost.Mul(received))
	return value.Div(oldStock.Add(received)).Round(CostScale)
}
