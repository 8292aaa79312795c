package shop

import (
	"context"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/notify"
)

// Payments fetches the payment history. The service is called without
// holding the shop lock.
func (s *Shop) Payments(ctx context.Context) ([]domain.Payment, error) {
	list, err := s.payments.ListPayments(ctx)
	if err != nil {
		s.logger.Error("failed to load payments", "error", err)
		s.notify(ctx, notify.Error, "Could not load payments")
		return nil, err
	}
	return list, nil
}

func (s *Shop) Invoices(ctx context.Context) ([]domain.Invoice, error) {
	list, err := s.payments.ListInvoices(ctx)
	if err != nil {
		s.logger.Error("failed to load invoices", "error", err)
		s.notify(ctx, notify.Error, "Could not load invoices")
		return nil, err
	}
	return list, nil
}
