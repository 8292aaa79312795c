package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "tarjeta_credito"
	PaymentMethodDebitCard  PaymentMethod = "tarjeta_debito"
	PaymentMethodPayPal     PaymentMethod = "paypal"
	PaymentMethodTransfer   PaymentMethod = "transferencia"
)

// PaymentMethods lists the accepted methods in display order.
var PaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPayPal,
	PaymentMethodTransfer,
}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// Label returns the human readable name, or the raw value for unknown methods.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentMethodCreditCard:
		return "Credit card"
	case PaymentMethodDebitCard:
		return "Debit card"
	case PaymentMethodPayPal:
		return "PayPal"
	case PaymentMethodTransfer:
		return "Bank transfer"
	default:
		return string(m)
	}
}

type OrderItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type Order struct {
	ID     string          `json:"id"`
	UserID int             `json:"user_id"`
	Total  decimal.Decimal `json:"total"`
	Method PaymentMethod   `json:"method"`
	Items  []OrderItem     `json:"items"`
}

type Receipt struct {
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id,omitempty"`
	InvoiceNumber string `json:"invoice_number"`
	Message       string `json:"message,omitempty"`
}

// RecordID is a server-assigned identifier that may arrive as a JSON number
// or a JSON string.
type RecordID string

func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = RecordID(n.String())
	return nil
}

// Timestamp accepts the timestamp layouts produced by the payments service,
// including ISO 8601 values without a zone. Unparseable values decode to the
// zero time instead of failing the whole document.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

type Payment struct {
	ID          RecordID        `json:"id"`
	OrderID     string          `json:"orden_id"`
	UserID      int             `json:"usuario_id"`
	TotalAmount decimal.Decimal `json:"monto_total"`
	Method      PaymentMethod   `json:"metodo_pago"`
	Status      string          `json:"estado"`
	CreatedAt   Timestamp       `json:"fecha_creacion"`
}

type Invoice struct {
	InvoiceNumber string          `json:"numero_factura"`
	OrderID       string          `json:"orden_id"`
	UserID        int             `json:"usuario_id"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"impuesto"`
	TotalAmount   decimal.Decimal `json:"monto_total"`
	IssuedAt      Timestamp       `json:"fecha_emision"`
}
