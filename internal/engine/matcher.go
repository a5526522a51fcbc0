package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmelo/sharebook/internal/domain"
)

// SubmitRequest is the input for order submission.
type SubmitRequest struct {
	Symbol string
	Amount int64
	Price  int64
	Side   domain.OrderSide
	Type   domain.OrderType
	Caller string
}

// Submit validates an incoming order, appends it to the book, and runs one
// crossing pass. At most one trade executes per call; any unmatched
// quantity rests on the book until a future submission triggers another
// pass. On a settlement failure the whole call is rolled back, including
// the append, and domain.ErrTokenTransferFailed is returned.
//
// Preconditions, checked in order with no state mutated on failure:
// instrument exists, amount positive, price positive unless market, limit
// buyers can afford amount×price, sellers hold enough shares. Market buys
// skip the funds pre-check: their cost is unknown until a counter-party
// price is discovered, so funds are re-checked at execution time instead.
func (e *Engine) Submit(req SubmitRequest) (*domain.Order, *domain.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.instruments.Exists(req.Symbol) {
		return nil, nil, domain.ErrInstrumentNotFound
	}
	if req.Amount <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}
	if req.Price <= 0 && req.Type != domain.OrderTypeMarket {
		return nil, nil, domain.ErrInvalidPrice
	}
	if req.Side == domain.OrderSideBuy && req.Type == domain.OrderTypeLimit {
		balance, err := e.tokens.BalanceOf(req.Caller)
		if err != nil {
			return nil, nil, fmt.Errorf("token balance lookup: %w", err)
		}
		if balance < req.Amount*req.Price {
			return nil, nil, domain.ErrInsufficientFunds
		}
	}
	if req.Side == domain.OrderSideSell {
		if e.ownership.Balance(req.Symbol, req.Caller) < req.Amount {
			return nil, nil, domain.ErrInsufficientShares
		}
	}

	order := &domain.Order{
		Owner:     req.Caller,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Price:     req.Price,
		Quantity:  req.Amount,
		Remaining: req.Amount,
		Status:    domain.OrderStatusResting,
		CreatedAt: time.Now(),
		Trades:    []*domain.Trade{},
	}
	e.book.Append(order)
	e.orders.Create(order)

	e.notifier.OrderPlaced(domain.OrderPlacedEvent{
		Caller:  order.Owner,
		Symbol:  order.Symbol,
		Amount:  order.Quantity,
		Price:   order.Price,
		Side:    order.Side,
		Type:    order.Type,
		OrderID: order.ID,
	})

	trade, err := e.matchOnce(req.Symbol)
	if err != nil {
		// Reject the whole call: the appended order must not survive a
		// failed submission.
		e.book.Remove(order.ID)
		e.orders.Delete(order.ID)
		return nil, nil, err
	}

	return order, trade, nil
}

// matchOnce runs one crossing pass for the symbol. It scans resting orders
// in insertion order with a nested pair search over positions i < j and
// executes the first compatible opposite-side pair it finds. The policy is
// first-found, not best-price. Within a pair the buy and sell roles
// follow each order's side, whichever arrived first. A pair is compatible
// when the buy is a market order or its limit is at least the sell's
// limit.
//
// Balances are re-validated against the discovered trade immediately before
// mutating; a pair failing the re-check is skipped and the scan continues.
// At most one trade executes; the pass returns after it.
func (e *Engine) matchOnce(symbol string) (*domain.Trade, error) {
	resting := e.book.Scan()

	for i := 0; i < len(resting); i++ {
		first := resting[i]
		if first.Symbol != symbol {
			continue
		}
		for j := i + 1; j < len(resting); j++ {
			second := resting[j]
			if second.Symbol != symbol || second.Side == first.Side {
				continue
			}

			buy, sell := first, second
			if buy.Side != domain.OrderSideBuy {
				buy, sell = second, first
			}
			if buy.Type != domain.OrderTypeMarket && buy.Price < sell.Price {
				continue
			}

			// A crossing limit buy trades at its own price; a market buy
			// trades at the resting seller's price.
			price := buy.Price
			if buy.Type == domain.OrderTypeMarket {
				price = sell.Price
			}
			amount := buy.Remaining
			if sell.Remaining < amount {
				amount = sell.Remaining
			}

			// Re-check both sides at the point of mutation. The
			// submission-time checks can be stale by now: the seller may
			// have parted with shares, and market buys were never funds
			// checked at all.
			if e.ownership.Balance(symbol, sell.Owner) < amount {
				continue
			}
			buyerFunds, err := e.tokens.BalanceOf(buy.Owner)
			if err != nil || buyerFunds < amount*price {
				continue
			}

			return e.execute(buy, sell, symbol, amount, price)
		}
	}

	return nil, nil
}

// execute settles one trade: move shares, request the token transfer, and
// update both orders. Ownership is mutated first and rolled back if the
// token transfer fails, keeping the call all-or-nothing.
func (e *Engine) execute(buy, sell *domain.Order, symbol string, amount, price int64) (*domain.Trade, error) {
	if err := e.ownership.Debit(symbol, sell.Owner, amount); err != nil {
		return nil, err
	}
	e.ownership.Credit(symbol, buy.Owner, amount)

	if err := e.tokens.TransferFrom(buy.Owner, sell.Owner, amount*price); err != nil {
		// Compensating rollback of the share movement.
		if derr := e.ownership.Debit(symbol, buy.Owner, amount); derr == nil {
			e.ownership.Credit(symbol, sell.Owner, amount)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenTransferFailed, err)
	}

	trade := &domain.Trade{
		TradeID:    uuid.New().String(),
		Symbol:     symbol,
		Buyer:      buy.Owner,
		Seller:     sell.Owner,
		Amount:     amount,
		Price:      price,
		ExecutedAt: time.Now(),
	}

	buy.Remaining -= amount
	sell.Remaining -= amount
	buy.Trades = append(buy.Trades, trade)
	sell.Trades = append(sell.Trades, trade)

	if buy.Remaining == 0 {
		buy.Status = domain.OrderStatusFilled
		e.book.Remove(buy.ID)
	} else {
		buy.Status = domain.OrderStatusPartiallyFilled
	}
	if sell.Remaining == 0 {
		sell.Status = domain.OrderStatusFilled
		e.book.Remove(sell.ID)
	} else {
		sell.Status = domain.OrderStatusPartiallyFilled
	}

	e.trades.Append(trade)

	e.notifier.TradeExecuted(domain.TradeExecutedEvent{
		TradeID:    trade.TradeID,
		Buyer:      trade.Buyer,
		Seller:     trade.Seller,
		Symbol:     trade.Symbol,
		Amount:     trade.Amount,
		Price:      trade.Price,
		ExecutedAt: trade.ExecutedAt,
	})

	return trade, nil
}
