package domain

import "time"

// OrderType distinguishes limit orders from market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// OrderSide indicates whether an order buys or sells shares.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus represents the lifecycle state of an order. An order rests
// until it is fully filled; there is no cancellation and no expiry.
type OrderStatus string

const (
	OrderStatusResting         OrderStatus = "resting"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
)

// Order represents a buy or sell instruction submitted by a participant.
// ID is a monotonic sequence number assigned by the order book when the
// order is appended. It is stable for the order's whole lifetime and also
// determines scan order during matching.
type Order struct {
	ID        uint64
	Owner     string
	Symbol    string
	Side      OrderSide
	Type      OrderType
	Price     int64 // limit price in token units, 0 only for market orders
	Quantity  int64
	Remaining int64 // decremented only by the matching engine
	Status    OrderStatus
	CreatedAt time.Time
	Trades    []*Trade
}

// Filled returns the quantity executed so far.
func (o *Order) Filled() int64 {
	return o.Quantity - o.Remaining
}
