// Package engine implements the matching core: the order book, instrument
// registration, and the crossing pass that settles trades against the
// ownership and token ledgers.
package engine

import (
	"sync"
	"time"

	"github.com/dmelo/sharebook/internal/domain"
	"github.com/dmelo/sharebook/internal/ledger"
	"github.com/dmelo/sharebook/internal/store"
)

// Engine owns every state-mutating operation. A single mutex serializes
// Register and Submit calls, so each call runs to completion against the
// book, the ownership ledger, and the token ledger with no interleaving.
// A failed precondition leaves all three untouched.
type Engine struct {
	mu sync.Mutex

	book        *OrderBook
	instruments *store.InstrumentStore
	orders      *store.OrderStore
	trades      *store.TradeStore
	ownership   *ledger.Ownership
	tokens      domain.TokenLedger
	notifier    domain.Notifier
}

// New creates an Engine with the given dependencies.
func New(
	book *OrderBook,
	instruments *store.InstrumentStore,
	orders *store.OrderStore,
	trades *store.TradeStore,
	ownership *ledger.Ownership,
	tokens domain.TokenLedger,
	notifier domain.Notifier,
) *Engine {
	return &Engine{
		book:        book,
		instruments: instruments,
		orders:      orders,
		trades:      trades,
		ownership:   ownership,
		tokens:      tokens,
		notifier:    notifier,
	}
}

// RegisterRequest is the input for instrument registration.
type RegisterRequest struct {
	Name        string
	Symbol      string
	TotalShares int64
	Price       int64
	Caller      string
}

// Register creates an instrument and credits the caller the full share
// supply. Preconditions are checked in order, first failure wins, and a
// failed call changes nothing.
func (e *Engine) Register(req RegisterRequest) (*domain.Instrument, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.instruments.Exists(req.Symbol) {
		return nil, domain.ErrAlreadyRegistered
	}
	if req.TotalShares <= 0 {
		return nil, domain.ErrInvalidShareCount
	}
	if req.Price <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	inst := &domain.Instrument{
		Name:           req.Name,
		Symbol:         req.Symbol,
		Owner:          req.Caller,
		TotalShares:    req.TotalShares,
		ReferencePrice: req.Price,
		CreatedAt:      time.Now(),
	}
	if err := e.instruments.Create(inst); err != nil {
		return nil, err
	}

	// Absolute set is safe: the symbol is new, no prior balance exists.
	e.ownership.Set(req.Symbol, req.Caller, req.TotalShares)

	e.notifier.InstrumentRegistered(domain.InstrumentRegisteredEvent{
		Symbol:      inst.Symbol,
		Name:        inst.Name,
		TotalShares: inst.TotalShares,
		Price:       inst.ReferencePrice,
	})

	return inst, nil
}
