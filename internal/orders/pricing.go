package orders

import "github.com/shopspring/decimal"

// Unit prices and the tax multiplier applied to every order.
var (
	Product1Price = decimal.RequireFromString("6.50")
	Product2Price = decimal.RequireFromString("14.50")
	Product3Price = decimal.RequireFromString("31.99")
	TaxMultiplier = decimal.RequireFromString("1.13")
)

// Quantities holds the ordered count of each product. Absent fields are zero.
type Quantities struct {
	Product1 int
	Product2 int
	Product3 int
}

// Totals is the priced result of a set of quantities.
type Totals struct {
	BeforeTax decimal.Decimal
	AfterTax  decimal.Decimal
}

// Calculate prices q. Each amount is rounded to two places exactly once; the
// after-tax amount is derived from the already rounded pre-tax amount.
func Calculate(q Quantities) Totals {
	before := Product1Price.Mul(decimal.NewFromInt(int64(q.Product1))).
		Add(Product2Price.Mul(decimal.NewFromInt(int64(q.Product2)))).
		Add(Product3Price.Mul(decimal.NewFromInt(int64(q.Product3)))).
		Round(2)

	return Totals{
		BeforeTax: before,
		AfterTax:  before.Mul(TaxMultiplier).Round(2),
	}
}
