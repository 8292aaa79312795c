package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/payments"
	"github.com/joao-fontenele/storefront/internal/shop"
	"github.com/joao-fontenele/storefront/internal/storage"
	"github.com/joao-fontenele/storefront/internal/storefront"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	if cfg.OTelEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, telemetry.TracerConfig{
			ServiceName:    "storefront",
			ServiceVersion: cfg.ServiceVersion,
			Endpoint:       cfg.OTLPEndpoint,
		})
		if err != nil {
			logger.Error("failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(ctx) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront", cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	shopMetrics, err := telemetry.NewShopMetrics()
	if err != nil {
		logger.Error("failed to create shop metrics", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   cfg.PaymentsTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	paymentsClient := payments.NewClient(cfg.PaymentsAPIURL, httpClient, payments.WithLogger(logger))

	deps := shop.Deps{
		Store:    store,
		Payments: paymentsClient,
		Metrics:  shopMetrics,
		Logger:   logger,
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.PaymentTopic)
		defer func() { _ = producer.Close() }()
		deps.Publisher = producer
	}

	s, err := shop.Open(ctx, deps)
	if err != nil {
		logger.Error("failed to open shop", "error", err)
		_ = store.Close()
		os.Exit(1)
	}
	defer func() { _ = s.Close() }()

	handler := storefront.NewHandler(s, paymentsClient, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(handler.HandleListProducts))
	mux.HandleFunc("POST /products", telemetry.WithHTTPRoute(handler.HandleCreateProduct))
	mux.HandleFunc("DELETE /products/{id}", telemetry.WithHTTPRoute(handler.HandleDeleteProduct))
	mux.HandleFunc("GET /cart", telemetry.WithHTTPRoute(handler.HandleGetCart))
	mux.HandleFunc("POST /cart/items", telemetry.WithHTTPRoute(handler.HandleAddCartItem))
	mux.HandleFunc("PATCH /cart/items/{productId}", telemetry.WithHTTPRoute(handler.HandleChangeQuantity))
	mux.HandleFunc("DELETE /cart/items/{productId}", telemetry.WithHTTPRoute(handler.HandleRemoveCartItem))
	mux.HandleFunc("DELETE /cart", telemetry.WithHTTPRoute(handler.HandleClearCart))
	mux.HandleFunc("GET /users", telemetry.WithHTTPRoute(handler.HandleListUsers))
	mux.HandleFunc("POST /users", telemetry.WithHTTPRoute(handler.HandleCreateUser))
	mux.HandleFunc("PUT /users/current", telemetry.WithHTTPRoute(handler.HandleSelectUser))
	mux.HandleFunc("GET /checkout", telemetry.WithHTTPRoute(handler.HandlePrepareCheckout))
	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(handler.HandleCheckout))
	mux.HandleFunc("GET /payments", telemetry.WithHTTPRoute(handler.HandleListPayments))
	mux.HandleFunc("GET /invoices", telemetry.WithHTTPRoute(handler.HandleListInvoices))
	mux.HandleFunc("GET /notifications", telemetry.WithHTTPRoute(handler.HandleNotifications))
	mux.HandleFunc("GET /health", handler.HandleHealth)
	mux.HandleFunc("GET /ready", handler.HandleReady)
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "storefront",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout: 10 * time.Second,
		// Checkout waits on the payments service.
		WriteTimeout: cfg.PaymentsTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("starting storefront service",
			"port", cfg.Port,
			"storage", cfg.StorageDriver,
			"payments_api", cfg.PaymentsAPIURL,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
