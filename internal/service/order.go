package service

import (
	"fmt"

	"github.com/dmelo/sharebook/internal/domain"
	"github.com/dmelo/sharebook/internal/engine"
	"github.com/dmelo/sharebook/internal/store"
)

// ValidOrderStatuses lists all valid order status values for validation.
var ValidOrderStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusResting:         true,
	domain.OrderStatusPartiallyFilled: true,
	domain.OrderStatusFilled:          true,
}

// SubmitOrderRequest represents the input for order submission.
type SubmitOrderRequest struct {
	Type   domain.OrderType
	Side   domain.OrderSide
	Symbol string
	Amount int64
	Price  int64
	Caller string
}

// SubmitOrderResult is the outcome of a submission: the accepted order and
// the trade executed by the matching pass, if any.
type SubmitOrderResult struct {
	Order *domain.Order
	Trade *domain.Trade
}

// OrderService handles order submission, retrieval, and listing.
type OrderService struct {
	engine *engine.Engine
	orders *store.OrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(eng *engine.Engine, orders *store.OrderStore) *OrderService {
	return &OrderService{
		engine: eng,
		orders: orders,
	}
}

// SubmitOrder validates the request shape and delegates to the engine. The
// engine enforces the semantic preconditions (instrument existence, amount,
// price, funds, shares) and runs the crossing pass.
func (s *OrderService) SubmitOrder(req SubmitOrderRequest) (*SubmitOrderResult, error) {
	if req.Type != domain.OrderTypeLimit && req.Type != domain.OrderTypeMarket {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown order type: %s. Must be one of: limit, market", req.Type),
		}
	}
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return nil, &domain.ValidationError{
			Message: "side must be 'buy' or 'sell'",
		}
	}
	if !symbolRegex.MatchString(req.Symbol) {
		return nil, &domain.ValidationError{
			Message: "symbol must match ^[A-Z]{1,10}$",
		}
	}
	if !accountRegex.MatchString(req.Caller) {
		return nil, &domain.ValidationError{
			Message: "caller must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}

	order, trade, err := s.engine.Submit(engine.SubmitRequest{
		Symbol: req.Symbol,
		Amount: req.Amount,
		Price:  req.Price,
		Side:   req.Side,
		Type:   req.Type,
		Caller: req.Caller,
	})
	if err != nil {
		return nil, err
	}

	return &SubmitOrderResult{Order: order, Trade: trade}, nil
}

// GetOrder retrieves an order by id, resting or filled.
func (s *OrderService) GetOrder(id uint64) (*domain.Order, error) {
	return s.orders.Get(id)
}

// ListOrders returns an account's orders, newest first, with an optional
// status filter and 1-based pagination.
func (s *OrderService) ListOrders(owner string, status *domain.OrderStatus, page, limit int) ([]*domain.Order, int, error) {
	if !accountRegex.MatchString(owner) {
		return nil, 0, &domain.ValidationError{
			Message: "account must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if status != nil && !ValidOrderStatuses[*status] {
		return nil, 0, &domain.ValidationError{
			Message: "status must be one of: resting, partially_filled, filled",
		}
	}
	if page < 1 {
		return nil, 0, &domain.ValidationError{Message: "page must be >= 1"}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{Message: "limit must be between 1 and 100"}
	}

	orders, total := s.orders.ListByOwner(owner, status, page, limit)
	return orders, total, nil
}
