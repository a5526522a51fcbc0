package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmelo/sharebook/internal/domain"
	"github.com/dmelo/sharebook/internal/service"
)

// MarketHandler handles HTTP requests for book, trade, and balance
// endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// bookOrderResponse is a single resting order in the book response.
type bookOrderResponse struct {
	OrderID   uint64 `json:"order_id"`
	Owner     string `json:"owner"`
	Side      string `json:"side"`
	Type      string `json:"type"`
	Price     int64  `json:"price"`
	Remaining int64  `json:"remaining"`
}

// bookResponse is the JSON response for GET /instruments/{symbol}/book.
type bookResponse struct {
	Symbol     string              `json:"symbol"`
	Orders     []bookOrderResponse `json:"orders"`
	SnapshotAt string              `json:"snapshot_at"`
}

// tradeListResponse is the JSON response for GET /instruments/{symbol}/trades.
type tradeListResponse struct {
	Symbol string          `json:"symbol"`
	Trades []tradeResponse `json:"trades"`
}

// shareBalanceResponse is the JSON response for the holder balance endpoint.
type shareBalanceResponse struct {
	Symbol string `json:"symbol"`
	Holder string `json:"holder"`
	Shares int64  `json:"shares"`
}

// tokenBalanceResponse is the JSON response for the token balance endpoint.
type tokenBalanceResponse struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}

// fundRequest is the JSON request body for POST /faucet.
type fundRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

// GetBook handles GET /instruments/{symbol}/book.
func (h *MarketHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	book, err := h.marketSvc.Book(symbol)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	orders := make([]bookOrderResponse, len(book.Orders))
	for i, o := range book.Orders {
		orders[i] = bookOrderResponse{
			OrderID:   o.OrderID,
			Owner:     o.Owner,
			Side:      string(o.Side),
			Type:      string(o.Type),
			Price:     o.Price,
			Remaining: o.Remaining,
		}
	}

	WriteJSON(w, http.StatusOK, bookResponse{
		Symbol:     book.Symbol,
		Orders:     orders,
		SnapshotAt: book.SnapshotAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

// GetTrades handles GET /instruments/{symbol}/trades.
func (h *MarketHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	trades, err := h.marketSvc.Trades(symbol)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	resp := tradeListResponse{
		Symbol: symbol,
		Trades: make([]tradeResponse, len(trades)),
	}
	for i, t := range trades {
		resp.Trades[i] = buildTradeResponse(t)
	}

	WriteJSON(w, http.StatusOK, resp)
}

// GetShareBalance handles GET /instruments/{symbol}/holders/{holder}.
func (h *MarketHandler) GetShareBalance(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	holder := chi.URLParam(r, "holder")

	balance, err := h.marketSvc.ShareBalance(symbol, holder)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, shareBalanceResponse{
		Symbol: balance.Symbol,
		Holder: balance.Holder,
		Shares: balance.Shares,
	})
}

// GetTokenBalance handles GET /accounts/{account}/tokens.
func (h *MarketHandler) GetTokenBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	balance, err := h.marketSvc.TokenBalance(account)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tokenBalanceResponse{
		Account: account,
		Balance: balance,
	})
}

// Fund handles POST /faucet.
func (h *MarketHandler) Fund(w http.ResponseWriter, r *http.Request) {
	var req fundRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	balance, err := h.marketSvc.Fund(req.Account, req.Amount)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tokenBalanceResponse{
		Account: req.Account,
		Balance: balance,
	})
}

// mapMarketError maps domain errors to HTTP responses for market endpoints.
func mapMarketError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrInstrumentNotFound):
		WriteError(w, http.StatusNotFound, "instrument_not_found", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
