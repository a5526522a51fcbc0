package domain

import "time"

// Trade represents a matched execution between a buy and a sell order.
type Trade struct {
	TradeID    string
	Symbol     string
	Buyer      string
	Seller     string
	Amount     int64
	Price      int64 // token units per share
	ExecutedAt time.Time
}

// Cost returns the settlement value of the trade in token units.
func (t *Trade) Cost() int64 {
	return t.Amount * t.Price
}
