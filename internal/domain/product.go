package domain

import "github.com/shopspring/decimal"

type StockLevel string

const (
	StockLevelOut StockLevel = "out"
	StockLevelLow StockLevel = "low"
	StockLevelOK  StockLevel = "ok"
)

// LowStockThreshold is the stock below which a product is flagged as low.
const LowStockThreshold = 5

type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
}

func (p Product) StockLevel() StockLevel {
	switch {
	case p.Stock <= 0:
		return StockLevelOut
	case p.Stock < LowStockThreshold:
		return StockLevelLow
	default:
		return StockLevelOK
	}
}

func (p Product) Available() bool {
	return p.Stock > 0
}
