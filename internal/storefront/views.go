package storefront

import (
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/shop"
)

type productView struct {
	domain.Product
	StockLevel domain.StockLevel `json:"stock_level"`
	InCart     int               `json:"in_cart"`
}

type productListView struct {
	Products   []productView `json:"products"`
	Categories []string      `json:"categories"`
}

func newProductView(p domain.Product, inCart int) productView {
	return productView{Product: p, StockLevel: p.StockLevel(), InCart: inCart}
}

type cartLineView struct {
	domain.CartLineItem
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartView struct {
	Items   []cartLineView `json:"items"`
	Summary domain.Summary `json:"summary"`
	Count   int            `json:"count"`
}

func newCartView(v shop.CartView) cartView {
	items := make([]cartLineView, 0, len(v.Lines))
	for _, line := range v.Lines {
		items = append(items, cartLineView{CartLineItem: line, LineTotal: line.Total()})
	}
	return cartView{Items: items, Summary: v.Summary, Count: v.Summary.Items}
}

type usersView struct {
	Users   []domain.User `json:"users"`
	Current *domain.User  `json:"current"`
}

type paymentView struct {
	domain.Payment
	MethodLabel string `json:"metodo_pago_label"`
}

type checkoutView struct {
	shop.Draft
	Methods []methodView `json:"methods"`
}

type methodView struct {
	Value domain.PaymentMethod `json:"value"`
	Label string               `json:"label"`
}

func paymentMethods() []methodView {
	out := make([]methodView, 0, len(domain.PaymentMethods))
	for _, m := range domain.PaymentMethods {
		out = append(out, methodView{Value: m, Label: m.Label()})
	}
	return out
}
