package domain

import "time"

// Order is a cart after checkout confirmation. Immutable from the client.
type Order struct {
	ID             int64
	Items          []CartItem
	TotalAmount    Money
	TotalItems     int
	DeliveryMethod DeliveryMethod
	Address        string
	Status         string
	CreatedAt      time.Time
}

// Submission is the payload that turns a cart into an order.
type Submission struct {
	CartID         int64
	Address        string
	DeliveryMethod DeliveryMethod
	Status         CartStatus
}

type HistorySource string

const (
	HistoryLive        HistorySource = "live"
	HistoryCached      HistorySource = "cached"
	HistoryPlaceholder HistorySource = "placeholder"
)

type OrderHistory struct {
	Orders []Order
	Source HistorySource
}

type Session struct {
	Token   string
	OwnerID string
}
