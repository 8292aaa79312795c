package domain

import "github.com/shopspring/decimal"

// TaxRate is applied to the cart subtotal both in the cart summary and when a
// payment is submitted.
var TaxRate = decimal.RequireFromString("0.12")

type CartLineItem struct {
	ProductID int             `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Icon      string          `json:"icon"`
	Quantity  int             `json:"quantity"`
}

func (l CartLineItem) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Items    int             `json:"items"`
}

// Summarize computes subtotal, tax and total for the given lines.
func Summarize(lines []CartLineItem) Summary {
	subtotal := decimal.Zero
	items := 0
	for _, line := range lines {
		subtotal = subtotal.Add(line.Total())
		items += line.Quantity
	}

	tax := subtotal.Mul(TaxRate)
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
		Items:    items,
	}
}
