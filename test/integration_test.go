//go:build integration

package test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/payments"
	"github.com/joao-fontenele/storefront/internal/shop"
	"github.com/joao-fontenele/storefront/internal/storage"
)

func TestPostgresStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(ctx, pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	store := storage.NewPostgresStore(db)
	defer func() { _ = store.Close() }()

	var missing []domain.User
	found, err := store.Load(ctx, storage.KeyUsers, &missing)
	if err != nil {
		t.Fatalf("unexpected error loading missing key: %v", err)
	}
	if found {
		t.Fatal("expected missing key to be reported as not found")
	}

	users := []domain.User{{ID: 1, Name: "Juan Pérez", Email: "juan@example.com"}}
	if err := store.Save(ctx, storage.KeyUsers, users); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	users = append(users, domain.User{ID: 2, Name: "Ana", Email: "ana@example.com"})
	if err := store.Save(ctx, storage.KeyUsers, users); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	var loaded []domain.User
	found, err = store.Load(ctx, storage.KeyUsers, &loaded)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if !found || len(loaded) != 2 || loaded[1].Name != "Ana" {
		t.Fatalf("unexpected users: found=%v %+v", found, loaded)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO storefront.kv_entries (key, value) VALUES ($1, $2)`,
		storage.KeyProducts, `{"not":"a list"}`); err != nil {
		t.Fatalf("failed to insert raw value: %v", err)
	}
	var products []domain.Product
	_, err = store.Load(ctx, storage.KeyProducts, &products)
	if !errors.Is(err, storage.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestCheckoutFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	brokers, kafkaCleanup := SetupKafka(ctx, t)
	defer kafkaCleanup()

	db, err := OpenDB(ctx, pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pagos/completo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"mensaje":"Pago procesado","pago":{"id":1},"factura":{"numero_factura":"FAC-20250301-0001"}}`))
	}))
	defer api.Close()

	producer := messaging.NewProducer(brokers, messaging.DefaultPaymentTopic)
	defer func() { _ = producer.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := shop.Open(ctx, shop.Deps{
		Store:     storage.NewPostgresStore(db),
		Payments:  payments.NewClient(api.URL+"/api", api.Client()),
		Publisher: producer,
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("failed to open shop: %v", err)
	}
	defer func() { _ = s.Close() }()

	for _, id := range []int{13, 13, 14} {
		if _, err := s.AddToCart(ctx, id); err != nil {
			t.Fatalf("failed to add product %d: %v", id, err)
		}
	}

	receipt, err := s.Checkout(ctx, domain.PaymentMethodPayPal)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if receipt.InvoiceNumber != "FAC-20250301-0001" {
		t.Fatalf("unexpected invoice number: %s", receipt.InvoiceNumber)
	}

	reopenedDB, err := OpenDB(ctx, pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to reopen DB: %v", err)
	}
	reopened, err := shop.Open(ctx, shop.Deps{
		Store:    storage.NewPostgresStore(reopenedDB),
		Payments: payments.NewClient(api.URL+"/api", api.Client()),
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("failed to reopen shop: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	if p, _ := reopened.Product(13); p.Stock != 48 {
		t.Fatalf("expected persisted stock 48, got %d", p.Stock)
	}
	if lines := reopened.Cart().Lines; len(lines) != 0 {
		t.Fatalf("expected persisted cart to be empty, got %+v", lines)
	}

	consumer := messaging.NewConsumer(brokers, messaging.DefaultPaymentTopic, "storefront-test",
		messaging.WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	consumeCtx, consumeCancel := context.WithTimeout(ctx, 30*time.Second)
	defer consumeCancel()

	var received domain.PaymentCompletedEvent
	errStop := errors.New("stop")
	err = consumer.ConsumePaymentCompleted(consumeCtx, func(_ context.Context, event domain.PaymentCompletedEvent) error {
		received = event
		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("failed to consume event: %v", err)
	}

	if received.OrderID != receipt.OrderID {
		t.Fatalf("expected order %s, got %s", receipt.OrderID, received.OrderID)
	}
	if received.InvoiceNumber != "FAC-20250301-0001" {
		t.Fatalf("unexpected invoice number in event: %s", received.InvoiceNumber)
	}
	if len(received.Items) != 2 {
		t.Fatalf("expected 2 items in event, got %d", len(received.Items))
	}
	if received.EventID == "" {
		t.Fatal("expected event id to be set")
	}
}
