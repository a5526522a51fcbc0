package service

import (
	"time"

	"github.com/dmelo/sharebook/internal/domain"
	"github.com/dmelo/sharebook/internal/engine"
	"github.com/dmelo/sharebook/internal/ledger"
	"github.com/dmelo/sharebook/internal/store"
)

// BookOrder is one resting order in a book snapshot.
type BookOrder struct {
	OrderID   uint64
	Owner     string
	Side      domain.OrderSide
	Type      domain.OrderType
	Price     int64
	Remaining int64
}

// BookResponse represents the response for the book endpoint. Orders are
// listed in scan order, the order the matching pass would visit them.
type BookResponse struct {
	Symbol     string
	Orders     []BookOrder
	SnapshotAt time.Time
}

// ShareBalanceResponse represents the response for the holder balance
// endpoint.
type ShareBalanceResponse struct {
	Symbol string
	Holder string
	Shares int64
}

// MarketService handles read-only queries: book snapshots, trade history,
// share balances, and token balances.
type MarketService struct {
	instruments *store.InstrumentStore
	book        *engine.OrderBook
	trades      *store.TradeStore
	ownership   *ledger.Ownership
	tokens      domain.TokenLedger
}

// NewMarketService creates a new MarketService with the given dependencies.
func NewMarketService(
	instruments *store.InstrumentStore,
	book *engine.OrderBook,
	trades *store.TradeStore,
	ownership *ledger.Ownership,
	tokens domain.TokenLedger,
) *MarketService {
	return &MarketService{
		instruments: instruments,
		book:        book,
		trades:      trades,
		ownership:   ownership,
		tokens:      tokens,
	}
}

// Book returns the resting orders for a symbol in scan order.
func (s *MarketService) Book(symbol string) (*BookResponse, error) {
	if !s.instruments.Exists(symbol) {
		return nil, domain.ErrInstrumentNotFound
	}

	resting := s.book.BySymbol(symbol)
	orders := make([]BookOrder, len(resting))
	for i, o := range resting {
		orders[i] = BookOrder{
			OrderID:   o.ID,
			Owner:     o.Owner,
			Side:      o.Side,
			Type:      o.Type,
			Price:     o.Price,
			Remaining: o.Remaining,
		}
	}

	return &BookResponse{
		Symbol:     symbol,
		Orders:     orders,
		SnapshotAt: time.Now(),
	}, nil
}

// Trades returns all executed trades for a symbol in chronological order.
func (s *MarketService) Trades(symbol string) ([]*domain.Trade, error) {
	if !s.instruments.Exists(symbol) {
		return nil, domain.ErrInstrumentNotFound
	}
	return s.trades.GetBySymbol(symbol), nil
}

// ShareBalance returns a holder's share balance for a symbol. Unknown
// holders have a zero balance.
func (s *MarketService) ShareBalance(symbol, holder string) (*ShareBalanceResponse, error) {
	if !s.instruments.Exists(symbol) {
		return nil, domain.ErrInstrumentNotFound
	}
	if !accountRegex.MatchString(holder) {
		return nil, &domain.ValidationError{
			Message: "holder must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}

	return &ShareBalanceResponse{
		Symbol: symbol,
		Holder: holder,
		Shares: s.ownership.Balance(symbol, holder),
	}, nil
}

// TokenBalance returns an account's payment-token balance.
func (s *MarketService) TokenBalance(account string) (int64, error) {
	if !accountRegex.MatchString(account) {
		return 0, &domain.ValidationError{
			Message: "account must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	return s.tokens.BalanceOf(account)
}

// Fund moves tokens from the ledger reserve to an account. Exposed so
// participants can be funded in test and demo deployments.
func (s *MarketService) Fund(account string, amount int64) (int64, error) {
	if !accountRegex.MatchString(account) {
		return 0, &domain.ValidationError{
			Message: "account must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if amount <= 0 {
		return 0, &domain.ValidationError{
			Message: "amount must be a positive integer",
		}
	}
	if err := s.tokens.Transfer(account, amount); err != nil {
		return 0, err
	}
	return s.tokens.BalanceOf(account)
}
