// Package payments talks to the remote payments service that records
// completed orders and issues invoices.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// IdempotencyKeyHeader carries the order id on submissions.
const IdempotencyKeyHeader = "Idempotency-Key"

// DefaultRejectionMessage is used when the service rejects an order without
// saying why.
const DefaultRejectionMessage = "payment could not be processed"

const maxResponseBytes = 4 << 20

var ErrConnectivity = errors.New("could not reach the payment service")

// ServerRejectedError is returned when the service answers a submission with
// a non-2xx status.
type ServerRejectedError struct {
	Status  int
	Message string
}

func (e *ServerRejectedError) Error() string {
	return e.Message
}

// NewOrderID derives an order id from the wall clock in milliseconds.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%d", now.UnixMilli())
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

// WithLogger sets the logger used to report history rows that could not be
// decoded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL string, client *http.Client, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitItem struct {
	Name     string      `json:"nombre"`
	Quantity int         `json:"cantidad"`
	Price    json.Number `json:"precio"`
}

type submitRequest struct {
	OrderID string               `json:"orden_id"`
	UserID  int                  `json:"usuario_id"`
	Total   json.Number          `json:"monto_total"`
	Method  domain.PaymentMethod `json:"metodo_pago"`
	Items   []submitItem         `json:"items"`
}

type submitResponse struct {
	Message string `json:"mensaje"`
	Error   string `json:"error"`
	Payment *struct {
		ID domain.RecordID `json:"id"`
	} `json:"pago"`
	Invoice *struct {
		Number       string `json:"numero_factura"`
		LegacyNumber string `json:"numero"`
	} `json:"factura"`
}

// SubmitOrder posts a completed order. A non-2xx answer yields a
// *ServerRejectedError carrying the server's message; a transport failure or an
// unreadable success body yields an error wrapping ErrConnectivity.
func (c *Client) SubmitOrder(ctx context.Context, order domain.Order) (domain.Receipt, error) {
	body := submitRequest{
		OrderID: order.ID,
		UserID:  order.UserID,
		Total:   json.Number(order.Total.StringFixed(2)),
		Method:  order.Method,
		Items:   make([]submitItem, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		body.Items = append(body.Items, submitItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    json.Number(item.Price.String()),
		})
	}

	data, err := json.Marshal(body)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pagos/completo", bytes.NewReader(data))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyKeyHeader, order.ID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: submit order %s: %v", ErrConnectivity, order.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: read submit response: %v", ErrConnectivity, err)
	}

	var decoded submitResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(decoded.Error)
		if decodeErr != nil || message == "" {
			message = DefaultRejectionMessage
		}
		return domain.Receipt{}, &ServerRejectedError{Status: resp.StatusCode, Message: message}
	}

	if decodeErr != nil {
		return domain.Receipt{}, fmt.Errorf("%w: unreadable submit response: %v", ErrConnectivity, decodeErr)
	}

	receipt := domain.Receipt{OrderID: order.ID, Message: decoded.Message}
	if decoded.Payment != nil {
		receipt.PaymentID = string(decoded.Payment.ID)
	}
	if decoded.Invoice != nil {
		receipt.InvoiceNumber = decoded.Invoice.Number
		if receipt.InvoiceNumber == "" {
			receipt.InvoiceNumber = decoded.Invoice.LegacyNumber
		}
	}
	return receipt, nil
}

// ListPayments fetches the payment history. Anything other than a JSON array
// is treated as an empty history and rows that cannot be decoded are skipped;
// only transport failures are errors.
func (c *Client) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	return getList[domain.Payment](ctx, c, "/pagos")
}

// ListInvoices fetches issued invoices with the same leniency as ListPayments.
func (c *Client) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	return getList[domain.Invoice](ctx, c, "/facturas")
}

// Health checks that the service answers on /health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payments service returned status %d", resp.StatusCode)
	}
	return nil
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrConnectivity, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConnectivity, path, err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return []T{}, nil
	}

	items := make([]T, 0, len(rows))
	for i, row := range rows {
		var item T
		if err := json.Unmarshal(row, &item); err != nil {
			c.logger.Warn("skipping undecodable row", "path", path, "index", i, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
