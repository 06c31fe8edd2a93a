package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product row of a persisted order.
type LineItem struct {
	ProductCode string
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

// Order is a server-owned transaction.
type Order struct {
	ID          string
	InvoiceNo   string
	Customer    string
	UserID      string
	Date        time.Time
	TotalAmount decimal.Decimal
	Lines       []LineItem
}

// Item references a product in a create request.
type Item struct {
	ProductCode string
	Quantity    int
}

// OrderRequest is what the gateway sends to create an order.
type OrderRequest struct {
	UserID         string
	Customer       string
	Items          []Item
	IdempotencyKey string
}

// HistoryEntry is an order as listed in a user's history, numbered from 1.
type HistoryEntry struct {
	Number int
	Order  Order
}
