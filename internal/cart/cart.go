// Package cart implements the shopping cart: one line per product, quantities
// bounded by the product's current stock.
package cart

import (
	"errors"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var (
	ErrStockExceeded = errors.New("insufficient stock")
	ErrUnavailable   = errors.New("product unavailable")
	ErrNotInCart     = errors.New("product not in cart")
)

// Products looks up the current state of a product.
type Products interface {
	Get(id int) (domain.Product, bool)
}

type Outcome int

const (
	OutcomeAdded Outcome = iota + 1
	OutcomeIncremented
	OutcomeUpdated
	OutcomeRemoved
)

// Cart is not safe for concurrent use.
type Cart struct {
	products Products
	lines    []domain.CartLineItem
}

// New builds a cart from previously persisted lines. Lines with a non-positive
// quantity are dropped and duplicate product ids are merged.
func New(products Products, lines []domain.CartLineItem) *Cart {
	c := &Cart{products: products}
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if i := c.index(line.ProductID); i >= 0 {
			c.lines[i].Quantity += line.Quantity
			continue
		}
		c.lines = append(c.lines, line)
	}
	return c
}

// Reconcile checks the lines against the current catalog. Lines whose product
// is gone or out of stock are dropped and quantities above stock are lowered
// to it. It reports whether anything changed.
func (c *Cart) Reconcile() bool {
	changed := false
	kept := c.lines[:0]
	for _, line := range c.lines {
		product, ok := c.products.Get(line.ProductID)
		if !ok || !product.Available() {
			changed = true
			continue
		}
		if line.Quantity > product.Stock {
			line.Quantity = product.Stock
			changed = true
		}
		kept = append(kept, line)
	}
	c.lines = kept
	return changed
}

// Add puts one unit of the product in the cart. A new line snapshots the
// product's name, price and icon.
func (c *Cart) Add(productID int) (Outcome, error) {
	product, ok := c.products.Get(productID)
	if !ok || !product.Available() {
		return 0, ErrUnavailable
	}

	if i := c.index(productID); i >= 0 {
		if c.lines[i].Quantity >= product.Stock {
			return 0, ErrStockExceeded
		}
		c.lines[i].Quantity++
		return OutcomeIncremented, nil
	}

	c.lines = append(c.lines, domain.CartLineItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Icon:      product.Icon,
		Quantity:  1,
	})
	return OutcomeAdded, nil
}

// ChangeQuantity adds delta to the line's quantity. A result of zero or less
// removes the line; a result above the product's stock is rejected and leaves
// the cart unchanged.
func (c *Cart) ChangeQuantity(productID, delta int) (Outcome, error) {
	i := c.index(productID)
	if i < 0 {
		return 0, ErrNotInCart
	}
	product, ok := c.products.Get(productID)
	if !ok {
		return 0, ErrUnavailable
	}

	quantity := c.lines[i].Quantity + delta
	if quantity <= 0 {
		c.removeAt(i)
		return OutcomeRemoved, nil
	}
	if quantity > product.Stock {
		return 0, ErrStockExceeded
	}

	c.lines[i].Quantity = quantity
	return OutcomeUpdated, nil
}

func (c *Cart) Remove(productID int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Lines() []domain.CartLineItem {
	return append([]domain.CartLineItem{}, c.lines...)
}

// Len is the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Summary() domain.Summary {
	return domain.Summarize(c.lines)
}

func (c *Cart) index(productID int) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
