package domain

import "time"

// InstrumentRegisteredEvent is emitted after a successful registration.
type InstrumentRegisteredEvent struct {
	Symbol      string
	Name        string
	TotalShares int64
	Price       int64
}

// OrderPlacedEvent is emitted after an order passes validation and is
// appended to the book, before the matching pass runs.
type OrderPlacedEvent struct {
	Caller  string
	Symbol  string
	Amount  int64
	Price   int64
	Side    OrderSide
	Type    OrderType
	OrderID uint64
}

// TradeExecutedEvent is emitted after a trade has settled.
type TradeExecutedEvent struct {
	TradeID    string
	Buyer      string
	Seller     string
	Symbol     string
	Amount     int64
	Price      int64
	ExecutedAt time.Time
}

// Notifier receives engine events. Implementations must not block: the
// engine calls these while holding its write lock.
type Notifier interface {
	InstrumentRegistered(e InstrumentRegisteredEvent)
	OrderPlaced(e OrderPlacedEvent)
	TradeExecuted(e TradeExecutedEvent)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) InstrumentRegistered(InstrumentRegisteredEvent) {}
func (NopNotifier) OrderPlaced(OrderPlacedEvent)                   {}
func (NopNotifier) TradeExecuted(TradeExecutedEvent)               {}

// MultiNotifier fans events out to several notifiers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) InstrumentRegistered(e InstrumentRegisteredEvent) {
	for _, n := range m {
		n.InstrumentRegistered(e)
	}
}

func (m MultiNotifier) OrderPlaced(e OrderPlacedEvent) {
	for _, n := range m {
		n.OrderPlaced(e)
	}
}

func (m MultiNotifier) TradeExecuted(e TradeExecutedEvent) {
	for _, n := range m {
		n.TradeExecuted(e)
	}
}
