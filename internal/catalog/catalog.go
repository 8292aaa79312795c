// Package catalog holds the in-memory product list.
//
// A Catalog is not safe for concurrent use; the shop controller serialises
// access to it.
package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrInvalidProduct = errors.New("invalid product")

// Icons are assigned at random to products created through Add.
var Icons = []string{"📦", "🎁", "🛍️", "📱", "💻", "🎧", "👕", "👟", "☕", "📚"}

type Catalog struct {
	products []domain.Product
	pickIcon func(n int) int
}

type Option func(*Catalog)

// WithIconPicker replaces the random icon choice; pick returns an index in [0, n).
func WithIconPicker(pick func(n int) int) Option {
	return func(c *Catalog) {
		c.pickIcon = pick
	}
}

func New(products []domain.Product, opts ...Option) *Catalog {
	c := &Catalog{
		products: append([]domain.Product(nil), products...),
		pickIcon: rand.IntN,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SeedDefaults fills an empty catalog with DefaultProducts. It reports whether
// anything was seeded.
func (c *Catalog) SeedDefaults() bool {
	if len(c.products) > 0 {
		return false
	}
	c.products = DefaultProducts()
	return true
}

func (c *Catalog) Len() int {
	return len(c.products)
}

func (c *Catalog) List() []domain.Product {
	return append([]domain.Product(nil), c.products...)
}

func (c *Catalog) Get(id int) (domain.Product, bool) {
	if i := c.index(id); i >= 0 {
		return c.products[i], true
	}
	return domain.Product{}, false
}

// Filter returns the products whose name or description contains search
// (case-insensitive) and, when category is not empty, whose category equals it.
// Catalog order is preserved.
func (c *Catalog) Filter(search, category string) []domain.Product {
	needle := strings.ToLower(search)

	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		matchesSearch := strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
		matchesCategory := category == "" || p.Category == category
		if matchesSearch && matchesCategory {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the distinct categories in order of first appearance.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

type NewProduct struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
}

func (in NewProduct) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case in.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	case in.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return nil
}

// Add appends a product with id max+1 and a random icon.
func (c *Catalog) Add(in NewProduct) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:          c.nextID(),
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
		Icon:        Icons[c.pickIcon(len(Icons))],
	}
	c.products = append(c.products, p)
	return p, nil
}

func (c *Catalog) Delete(id int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.products = append(c.products[:i], c.products[i+1:]...)
	return true
}

// DecrementStock removes qty units from the product's stock, flooring at zero.
func (c *Catalog) DecrementStock(id, qty int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.products[i].Stock = max(c.products[i].Stock-qty, 0)
	return true
}

func (c *Catalog) nextID() int {
	maxID := 0
	for _, p := range c.products {
		maxID = max(maxID, p.ID)
	}
	return maxID + 1
}

func (c *Catalog) index(id int) int {
	for i, p := range c.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
