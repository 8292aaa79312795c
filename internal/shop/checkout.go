package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/payments"
	"github.com/joao-fontenele/storefront/internal/storage"
)

var (
	ErrMissingSelection   = errors.New("missing selection")
	ErrCheckoutInProgress = errors.New("a payment is already being processed")
	ErrInvalidMethod      = errors.New("invalid payment method")
)

// Draft is what the user confirms before paying.
type Draft struct {
	OrderID string          `json:"order_id"`
	User    domain.User     `json:"user"`
	Total   decimal.Decimal `json:"total"`
	Summary domain.Summary  `json:"summary"`
}

// PrepareCheckout checks that there is something to pay for and someone to
// pay for it. The draft's order id is reused by Checkout while the cart is
// unchanged and the payments service was unreachable, so a retried submission
// carries the same idempotency key. A rejection or a cart change starts a new
// order id.
func (s *Shop) PrepareCheckout(ctx context.Context) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.checkSelection(ctx)
	if err != nil {
		return Draft{}, err
	}
	if s.draftOrderID == "" {
		s.draftOrderID = s.nextOrderID()
	}

	summary := s.cart.Summary()
	return Draft{
		OrderID: s.draftOrderID,
		User:    user,
		Total:   summary.Total,
		Summary: summary,
	}, nil
}

// CheckoutInProgress reports whether a payment is being submitted.
func (s *Shop) CheckoutInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkingOut
}

// Checkout submits the cart to the payments service. Stock and cart are only
// touched after the service accepts the order; cart mutations are refused
// while the submission is in flight.
func (s *Shop) Checkout(ctx context.Context, method domain.PaymentMethod) (domain.Receipt, error) {
	order, lines, err := s.beginCheckout(ctx, method)
	if err != nil {
		return domain.Receipt{}, err
	}

	s.logger.Info("submitting order",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total", order.Total.StringFixed(2),
		"method", string(order.Method),
	)
	receipt, submitErr := s.payments.SubmitOrder(ctx, order)

	s.mu.Lock()
	s.checkingOut = false
	if submitErr != nil {
		s.failCheckout(ctx, order, submitErr)
		s.mu.Unlock()
		return domain.Receipt{}, submitErr
	}

	for _, line := range lines {
		s.catalog.DecrementStock(line.ProductID, line.Quantity)
	}
	s.cart.Clear()
	s.draftOrderID = ""
	persistErr := s.persist(ctx, storage.KeyProducts, storage.KeyCart)

	s.metrics.Checkout(ctx, "success", order.Total.InexactFloat64())
	s.notify(ctx, notify.Success, "Payment processed successfully")
	if receipt.InvoiceNumber != "" {
		s.notify(ctx, notify.Info, "Invoice: "+receipt.InvoiceNumber)
	}
	s.mu.Unlock()

	s.logger.Info("order paid", "order_id", order.ID, "invoice_number", receipt.InvoiceNumber)
	s.publish(ctx, order, receipt)

	if persistErr != nil {
		return receipt, persistErr
	}
	return receipt, nil
}

func (s *Shop) beginCheckout(ctx context.Context, method domain.PaymentMethod) (domain.Order, []domain.CartLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkingOut {
		return domain.Order{}, nil, ErrCheckoutInProgress
	}
	user, err := s.checkSelection(ctx)
	if err != nil {
		return domain.Order{}, nil, err
	}
	if !method.Valid() {
		s.notify(ctx, notify.Warning, "Select a payment method")
		return domain.Order{}, nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	if s.draftOrderID == "" {
		s.draftOrderID = s.nextOrderID()
	}
	lines := s.cart.Lines()
	summary := domain.Summarize(lines)

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.OrderItem{Name: line.Name, Quantity: line.Quantity, Price: line.Price})
	}

	s.checkingOut = true
	return domain.Order{
		ID:     s.draftOrderID,
		UserID: user.ID,
		Total:  summary.Total,
		Method: method,
		Items:  items,
	}, lines, nil
}

// nextOrderID returns an order id later than any issued before, even when the
// clock has not moved a millisecond. Callers hold s.mu.
func (s *Shop) nextOrderID() string {
	t := s.now().Truncate(time.Millisecond)
	if !t.After(s.lastOrderAt) {
		t = s.lastOrderAt.Add(time.Millisecond)
	}
	s.lastOrderAt = t
	return payments.NewOrderID(t)
}

// cartChanged drops the pending order id so the next checkout submits a new
// order. Callers hold s.mu.
func (s *Shop) cartChanged() {
	s.draftOrderID = ""
}

// checkSelection requires a non-empty cart and a current user. Callers hold s.mu.
func (s *Shop) checkSelection(ctx context.Context) (domain.User, error) {
	if s.cart.Len() == 0 {
		s.notify(ctx, notify.Warning, "The cart is empty")
		return domain.User{}, fmt.Errorf("%w: cart is empty", ErrMissingSelection)
	}
	user, ok := s.users.Current()
	if !ok {
		s.notify(ctx, notify.Warning, "Select a user first")
		return domain.User{}, fmt.Errorf("%w: no current user", ErrMissingSelection)
	}
	return user, nil
}

// failCheckout reports a failed submission. Callers hold s.mu.
func (s *Shop) failCheckout(ctx context.Context, order domain.Order, err error) {
	var rejected *payments.ServerRejectedError
	switch {
	case errors.As(err, &rejected):
		// The service may have recorded the order before rejecting it and
		// refuses a second payment for the same id.
		s.draftOrderID = ""
		s.metrics.Checkout(ctx, "rejected", 0)
		s.notify(ctx, notify.Error, rejected.Message)
		s.logger.Warn("order rejected", "order_id", order.ID, "status", rejected.Status, "error", rejected.Message)
	default:
		s.metrics.Checkout(ctx, "connectivity_error", 0)
		s.notify(ctx, notify.Error, "Could not connect to the payment service")
		s.logger.Error("order submission failed", "order_id", order.ID, "error", err)
	}
}

func (s *Shop) publish(ctx context.Context, order domain.Order, receipt domain.Receipt) {
	if s.publisher == nil {
		return
	}

	event := domain.PaymentCompletedEvent{
		EventID:       uuid.NewString(),
		OrderID:       order.ID,
		UserID:        order.UserID,
		InvoiceNumber: receipt.InvoiceNumber,
		Total:         order.Total,
		Method:        order.Method,
		Items:         order.Items,
		Timestamp:     s.now().UTC(),
	}
	if err := s.publisher.PublishPaymentCompleted(ctx, event); err != nil {
		s.logger.Error("failed to publish payment completed event", "order_id", order.ID, "error", err)
	}
}
