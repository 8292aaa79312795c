package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "storefront/shop"

// ShopMetrics records storefront activity. A nil *ShopMetrics is valid and
// records nothing.
type ShopMetrics struct {
	cartOperations metric.Int64Counter
	checkouts      metric.Int64Counter
	checkoutTotal  metric.Float64Histogram
	notifications  metric.Int64Counter
}

// NewShopMetrics creates the instruments on the global MeterProvider.
func NewShopMetrics() (*ShopMetrics, error) {
	meter := otel.Meter(meterName)

	cartOperations, err := meter.Int64Counter("storefront.cart.operations",
		metric.WithDescription("Cart mutations by operation and outcome."),
	)
	if err != nil {
		return nil, err
	}

	checkouts, err := meter.Int64Counter("storefront.checkouts",
		metric.WithDescription("Checkout attempts by outcome."),
	)
	if err != nil {
		return nil, err
	}

	checkoutTotal, err := meter.Float64Histogram("storefront.checkout.total",
		metric.WithDescription("Order totals of successful checkouts."),
		metric.WithUnit("{currency}"),
	)
	if err != nil {
		return nil, err
	}

	notifications, err := meter.Int64Counter("storefront.notifications",
		metric.WithDescription("User facing notifications by kind."),
	)
	if err != nil {
		return nil, err
	}

	return &ShopMetrics{
		cartOperations: cartOperations,
		checkouts:      checkouts,
		checkoutTotal:  checkoutTotal,
		notifications:  notifications,
	}, nil
}

func (m *ShopMetrics) CartOperation(ctx context.Context, operation, outcome string) {
	if m == nil {
		return
	}
	m.cartOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func (m *ShopMetrics) Checkout(ctx context.Context, outcome string, total float64) {
	if m == nil {
		return
	}
	m.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == "success" {
		m.checkoutTotal.Record(ctx, total)
	}
}

func (m *ShopMetrics) Notification(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
