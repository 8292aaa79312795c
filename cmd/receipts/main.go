package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTelEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, telemetry.TracerConfig{
			ServiceName:    "storefront-receipts",
			ServiceVersion: cfg.ServiceVersion,
			Endpoint:       cfg.OTLPEndpoint,
		})
		if err != nil {
			logger.Error("failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, cfg.PaymentTopic, cfg.ConsumerGroup)
	defer func() { _ = consumer.Close() }()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting receipts consumer",
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.PaymentTopic,
		"group", cfg.ConsumerGroup,
	)

	err := consumer.ConsumePaymentCompleted(ctx, func(ctx context.Context, event domain.PaymentCompletedEvent) error {
		logger.InfoContext(ctx, "payment completed",
			"event_id", event.EventID,
			"order_id", event.OrderID,
			"user_id", event.UserID,
			"invoice_number", event.InvoiceNumber,
			"total", event.Total.StringFixed(2),
			"method", string(event.Method),
			"items", len(event.Items),
		)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
