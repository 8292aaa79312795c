package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func useTracing(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func testEvent() domain.PaymentCompletedEvent {
	return domain.PaymentCompletedEvent{
		EventID:       "6f1c9a2e-0000-4000-8000-000000000001",
		OrderID:       "ORD-1700000000000",
		UserID:        1,
		InvoiceNumber: "FAC-1",
		Total:         decimal.RequireFromString("22.4"),
		Method:        domain.PaymentMethodPayPal,
		Items:         []domain.OrderItem{{Name: "Book", Quantity: 2, Price: decimal.RequireFromString("10")}},
		Timestamp:     time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestProducer_PublishPaymentCompleted(t *testing.T) {
	useTracing(t)

	writer := &recordingWriter{}
	p := &Producer{writer: writer, topic: DefaultPaymentTopic}

	if err := p.PublishPaymentCompleted(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(writer.msgs))
	}

	msg := writer.msgs[0]
	if string(msg.Key) != "ORD-1700000000000" {
		t.Errorf("expected key to be the order id, got %s", msg.Key)
	}

	var decoded domain.PaymentCompletedEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if decoded.InvoiceNumber != "FAC-1" || !decoded.Total.Equal(decimal.RequireFromString("22.4")) {
		t.Errorf("unexpected payload: %+v", decoded)
	}

	if NewMessageCarrier(&msg).Get("traceparent") == "" {
		t.Error("expected traceparent header to be injected")
	}
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &recordingWriter{err: errors.New("leader not available")}, topic: DefaultPaymentTopic}

	err := p.PublishPaymentCompleted(context.Background(), testEvent())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestConsumer_ProcessMessageContinuesTrace(t *testing.T) {
	useTracing(t)

	writer := &recordingWriter{}
	p := &Producer{writer: writer, topic: DefaultPaymentTopic}

	ctx, span := otel.Tracer("test").Start(context.Background(), "checkout")
	if err := p.PublishPaymentCompleted(ctx, testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	span.End()

	c := &Consumer{topic: DefaultPaymentTopic, groupID: "test"}
	var gotTraceID trace.TraceID
	err := c.processMessage(context.Background(), writer.msgs[0], func(ctx context.Context, payload []byte) error {
		gotTraceID = trace.SpanContextFromContext(ctx).TraceID()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTraceID != span.SpanContext().TraceID() {
		t.Errorf("expected trace %s, got %s", span.SpanContext().TraceID(), gotTraceID)
	}
}

func TestConsumer_ProcessMessageHandlerError(t *testing.T) {
	c := &Consumer{topic: DefaultPaymentTopic, groupID: "test"}
	want := errors.New("boom")

	err := c.processMessage(context.Background(), kafka.Message{Value: []byte(`{}`)}, func(context.Context, []byte) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestMessageCarrier(t *testing.T) {
	msg := kafka.Message{}
	c := NewMessageCarrier(&msg)

	c.Set("traceparent", "a")
	c.Set("tracestate", "b")
	c.Set("traceparent", "c")

	if got := c.Get("traceparent"); got != "c" {
		t.Errorf("expected overwritten value, got %q", got)
	}
	if got := c.Get("missing"); got != "" {
		t.Errorf("expected empty value, got %q", got)
	}
	if keys := c.Keys(); len(keys) != 2 {
		t.Errorf("expected 2 keys, got %v", keys)
	}
}
