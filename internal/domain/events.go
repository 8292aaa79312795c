package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentCompletedEvent struct {
	EventID       string          `json:"event_id"`
	OrderID       string          `json:"order_id"`
	UserID        int             `json:"user_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Total         decimal.Decimal `json:"total"`
	Method        PaymentMethod   `json:"method"`
	Items         []OrderItem     `json:"items"`
	Timestamp     time.Time       `json:"timestamp"`
}
