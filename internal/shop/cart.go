package shop

import (
	"context"
	"errors"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/storage"
)

type CartView struct {
	Lines   []domain.CartLineItem `json:"items"`
	Summary domain.Summary        `json:"summary"`
}

func (s *Shop) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartView{Lines: s.cart.Lines(), Summary: s.cart.Summary()}
}

// AddToCart adds one unit of the product. Running out of stock is reported
// as a warning and returned as cart.ErrStockExceeded or cart.ErrUnavailable.
func (s *Shop) AddToCart(ctx context.Context, productID int) (cart.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkingOut {
		return 0, ErrCheckoutInProgress
	}

	outcome, err := s.cart.Add(productID)
	switch {
	case errors.Is(err, cart.ErrStockExceeded):
		s.metrics.CartOperation(ctx, "add", "stock_exceeded")
		s.notify(ctx, notify.Warning, "Insufficient stock")
		return 0, err
	case errors.Is(err, cart.ErrUnavailable):
		s.metrics.CartOperation(ctx, "add", "unavailable")
		s.notify(ctx, notify.Warning, "Product unavailable")
		return 0, err
	case err != nil:
		return 0, err
	}
	s.cartChanged()

	if err := s.persist(ctx, storage.KeyCart); err != nil {
		return outcome, err
	}

	if outcome == cart.OutcomeAdded {
		s.metrics.CartOperation(ctx, "add", "added")
		s.notify(ctx, notify.Success, "Product added to cart")
	} else {
		s.metrics.CartOperation(ctx, "add", "incremented")
		s.notify(ctx, notify.Success, "Quantity updated")
	}
	return outcome, nil
}

func (s *Shop) ChangeQuantity(ctx context.Context, productID, delta int) (cart.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkingOut {
		return 0, ErrCheckoutInProgress
	}

	outcome, err := s.cart.ChangeQuantity(productID, delta)
	switch {
	case errors.Is(err, cart.ErrStockExceeded):
		s.metrics.CartOperation(ctx, "change_quantity", "stock_exceeded")
		s.notify(ctx, notify.Warning, "Insufficient stock")
		return 0, err
	case err != nil:
		return 0, err
	}
	s.cartChanged()

	if err := s.persist(ctx, storage.KeyCart); err != nil {
		return outcome, err
	}

	if outcome == cart.OutcomeRemoved {
		s.metrics.CartOperation(ctx, "change_quantity", "removed")
		s.notify(ctx, notify.Info, "Product removed from cart")
	} else {
		s.metrics.CartOperation(ctx, "change_quantity", "updated")
	}
	return outcome, nil
}

func (s *Shop) RemoveFromCart(ctx context.Context, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkingOut {
		return ErrCheckoutInProgress
	}
	if !s.cart.Remove(productID) {
		return cart.ErrNotInCart
	}
	s.cartChanged()
	if err := s.persist(ctx, storage.KeyCart); err != nil {
		return err
	}

	s.metrics.CartOperation(ctx, "remove", "removed")
	s.notify(ctx, notify.Info, "Product removed from cart")
	return nil
}

// ClearCart empties the cart once confirmed and reports whether it did. An
// empty cart is left alone without prompting.
func (s *Shop) ClearCart(ctx context.Context, confirm Confirmer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkingOut {
		return false, ErrCheckoutInProgress
	}
	if s.cart.Len() == 0 {
		return false, nil
	}
	if !confirm.Confirm(ClearCartPrompt) {
		return false, nil
	}

	s.cart.Clear()
	s.cartChanged()
	if err := s.persist(ctx, storage.KeyCart); err != nil {
		return true, err
	}

	s.metrics.CartOperation(ctx, "clear", "cleared")
	s.notify(ctx, notify.Info, "Cart emptied")
	return true, nil
}
