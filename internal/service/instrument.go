package service

import (
	"regexp"

	"github.com/dmelo/sharebook/internal/domain"
	"github.com/dmelo/sharebook/internal/engine"
	"github.com/dmelo/sharebook/internal/store"
)

var (
	accountRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	symbolRegex  = regexp.MustCompile(`^[A-Z]{1,10}$`)
)

// RegisterInstrumentRequest represents the input for instrument registration.
type RegisterInstrumentRequest struct {
	Name        string
	Symbol      string
	TotalShares int64
	Price       int64
	Caller      string
}

// InstrumentService handles instrument registration and lookups.
type InstrumentService struct {
	engine      *engine.Engine
	instruments *store.InstrumentStore
}

// NewInstrumentService creates a new InstrumentService.
func NewInstrumentService(eng *engine.Engine, instruments *store.InstrumentStore) *InstrumentService {
	return &InstrumentService{
		engine:      eng,
		instruments: instruments,
	}
}

// Register validates the request shape and delegates to the engine, which
// enforces uniqueness and positivity and credits the issuer's shares.
func (s *InstrumentService) Register(req RegisterInstrumentRequest) (*domain.Instrument, error) {
	if req.Name == "" || len(req.Name) > 128 {
		return nil, &domain.ValidationError{
			Message: "name must be a non-empty string of at most 128 characters",
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

	return s.engine.Register(engine.RegisterRequest{
		Name:        req.Name,
		Symbol:      req.Symbol,
		TotalShares: req.TotalShares,
		Price:       req.Price,
		Caller:      req.Caller,
	})
}

// Get retrieves an instrument by symbol.
func (s *InstrumentService) Get(symbol string) (*domain.Instrument, error) {
	return s.instruments.Get(symbol)
}

// List returns all instruments in registration order.
func (s *InstrumentService) List() []*domain.Instrument {
	return s.instruments.List()
}
