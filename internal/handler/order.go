package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmelo/sharebook/internal/domain"
	"github.com/dmelo/sharebook/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// submitOrderRequest is the JSON request body for POST /orders.
type submitOrderRequest struct {
	Type   string `json:"type"`
	Side   string `json:"side"`
	Symbol string `json:"symbol"`
	Amount int64  `json:"amount"`
	Price  int64  `json:"price"`
	Caller string `json:"caller"`
}

// orderResponse is the JSON shape of an order.
type orderResponse struct {
	OrderID   uint64          `json:"order_id"`
	Owner     string          `json:"owner"`
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"`
	Type      string          `json:"type"`
	Price     int64           `json:"price"`
	Quantity  int64           `json:"quantity"`
	Filled    int64           `json:"filled"`
	Remaining int64           `json:"remaining"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"created_at"`
	Trades    []tradeResponse `json:"trades"`
}

// tradeResponse is the JSON shape of a trade.
type tradeResponse struct {
	TradeID    string `json:"trade_id"`
	Symbol     string `json:"symbol"`
	Buyer      string `json:"buyer"`
	Seller     string `json:"seller"`
	Amount     int64  `json:"amount"`
	Price      int64  `json:"price"`
	ExecutedAt string `json:"executed_at"`
}

// submitOrderResponse is the JSON response for POST /orders. Trade is null
// when the matching pass found no compatible counter-party.
type submitOrderResponse struct {
	Order orderResponse  `json:"order"`
	Trade *tradeResponse `json:"trade"`
}

// orderListResponse is the JSON response for GET /accounts/{account}/orders.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.orderSvc.SubmitOrder(service.SubmitOrderRequest{
		Type:   domain.OrderType(req.Type),
		Side:   domain.OrderSide(req.Side),
		Symbol: req.Symbol,
		Amount: req.Amount,
		Price:  req.Price,
		Caller: req.Caller,
	})
	if err != nil {
		mapOrderError(w, err)
		return
	}

	resp := submitOrderResponse{
		Order: buildOrderResponse(result.Order),
	}
	if result.Trade != nil {
		t := buildTradeResponse(result.Trade)
		resp.Trade = &t
	}

	WriteJSON(w, http.StatusCreated, resp)
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "order_id must be a positive integer")
		return
	}

	order, err := h.orderSvc.GetOrder(id)
	if err != nil {
		mapOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// ListOrders handles GET /accounts/{account}/orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var status *domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.OrderStatus(s)
		status = &st
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be a valid integer")
			return
		}
		page = v
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
			return
		}
		limit = v
	}

	orders, total, err := h.orderSvc.ListOrders(account, status, page, limit)
	if err != nil {
		mapOrderError(w, err)
		return
	}

	resp := orderListResponse{
		Orders: make([]orderResponse, len(orders)),
		Total:  total,
		Page:   page,
		Limit:  limit,
	}
	for i, o := range orders {
		resp.Orders[i] = buildOrderResponse(o)
	}

	WriteJSON(w, http.StatusOK, resp)
}

// buildOrderResponse converts a domain order to its response form.
func buildOrderResponse(o *domain.Order) orderResponse {
	trades := make([]tradeResponse, len(o.Trades))
	for i, t := range o.Trades {
		trades[i] = buildTradeResponse(t)
	}

	return orderResponse{
		OrderID:   o.ID,
		Owner:     o.Owner,
		Symbol:    o.Symbol,
		Side:      string(o.Side),
		Type:      string(o.Type),
		Price:     o.Price,
		Quantity:  o.Quantity,
		Filled:    o.Filled(),
		Remaining: o.Remaining,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Trades:    trades,
	}
}

// buildTradeResponse converts a domain trade to its response form.
func buildTradeResponse(t *domain.Trade) tradeResponse {
	return tradeResponse{
		TradeID:    t.TradeID,
		Symbol:     t.Symbol,
		Buyer:      t.Buyer,
		Seller:     t.Seller,
		Amount:     t.Amount,
		Price:      t.Price,
		ExecutedAt: t.ExecutedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// mapOrderError maps domain errors to HTTP responses for order endpoints.
func mapOrderError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrInstrumentNotFound):
		WriteError(w, http.StatusNotFound, "instrument_not_found", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidAmount):
		WriteError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		WriteError(w, http.StatusBadRequest, "invalid_price", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusConflict, "insufficient_funds", err.Error())
	case errors.Is(err, domain.ErrInsufficientShares):
		WriteError(w, http.StatusConflict, "insufficient_shares", err.Error())
	case errors.Is(err, domain.ErrTokenTransferFailed):
		WriteError(w, http.StatusConflict, "token_transfer_failed", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
