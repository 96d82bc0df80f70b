package cart

import (
	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
)

// Summary is the priced view of a cart.
type Summary struct {
	Items     []models.CartItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	TaxRate   decimal.Decimal   `json:"tax_rate"`
	Tax       decimal.Decimal   `json:"tax"`
	Discount  decimal.Decimal   `json:"discount"`
	Shipping  decimal.Decimal   `json:"shipping"`
	Total     decimal.Decimal   `json:"total"`
}

// Summarize prices items at rate. Discount and shipping are not offered and
// stay zero.
func Summarize(items []models.CartItem, rate decimal.Decimal) Summary {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
		count += item.Quantity
	}
	tax := subtotal.Mul(rate).Round(2)

	return Summary{
		Items:     items,
		ItemCount: count,
		Subtotal:  subtotal.Round(2),
		TaxRate:   rate,
		Tax:       tax,
		Discount:  decimal.Zero,
		Shipping:  decimal.Zero,
		Total:     subtotal.Add(tax).Round(2),
	}
}

// LineTotal is price x quantity rounded to paise.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
