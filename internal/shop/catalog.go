package shop

import (
	"context"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/storage"
)

type ProductFilter struct {
	Search   string
	Category string
}

func (s *Shop) Products(filter ProductFilter) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Filter(filter.Search, filter.Category)
}

func (s *Shop) Product(id int) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Get(id)
}

func (s *Shop) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Categories()
}

func (s *Shop) AddProduct(ctx context.Context, in catalog.NewProduct) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.catalog.Add(in)
	if err != nil {
		s.notify(ctx, notify.Warning, "Invalid product")
		return domain.Product{}, err
	}
	if err := s.persist(ctx, storage.KeyProducts); err != nil {
		return p, err
	}

	s.notify(ctx, notify.Success, "Product added")
	s.logger.Info("product added", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// DeleteProduct removes the product and its cart line once confirmed. It
// reports whether the product was deleted; a cancelled prompt is not an error.
func (s *Shop) DeleteProduct(ctx context.Context, id int, confirm Confirmer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkingOut {
		return false, ErrCheckoutInProgress
	}
	if _, ok := s.catalog.Get(id); !ok {
		return false, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	if !confirm.Confirm(DeleteProductPrompt) {
		return false, nil
	}

	s.catalog.Delete(id)
	keys := []string{storage.KeyProducts}
	if s.cart.Remove(id) {
		s.cartChanged()
		keys = append(keys, storage.KeyCart)
	}
	if err := s.persist(ctx, keys...); err != nil {
		return true, err
	}

	s.notify(ctx, notify.Info, "Product deleted")
	s.logger.Info("product deleted", "product_id", id)
	return true, nil
}
