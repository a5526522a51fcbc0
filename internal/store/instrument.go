package store

import (
	"sync"

	"github.com/dmelo/sharebook/internal/domain"
)

// InstrumentStore is a thread-safe in-memory store for instruments,
// keyed by symbol. Symbols are never deleted or updated.
type InstrumentStore struct {
	mu          sync.RWMutex
	instruments map[string]*domain.Instrument
	symbols     []string // insertion order, for listing
}

// NewInstrumentStore creates an empty InstrumentStore.
func NewInstrumentStore() *InstrumentStore {
	return &InstrumentStore{
		instruments: make(map[string]*domain.Instrument),
	}
}

// Create adds an instrument to the store. It returns
// domain.ErrAlreadyRegistered if the symbol is already present.
func (s *InstrumentStore) Create(inst *domain.Instrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instruments[inst.Symbol]; exists {
		return domain.ErrAlreadyRegistered
	}
	s.instruments[inst.Symbol] = inst
	s.symbols = append(s.symbols, inst.Symbol)
	return nil
}

// Get retrieves an instrument by symbol. It returns
// domain.ErrInstrumentNotFound if the symbol does not exist.
func (s *InstrumentStore) Get(symbol string) (*domain.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instruments[symbol]
	if !ok {
		return nil, domain.ErrInstrumentNotFound
	}
	return inst, nil
}

// Exists returns true if the symbol has been registered.
func (s *InstrumentStore) Exists(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.instruments[symbol]
	return ok
}

// List returns all instruments in registration order.
func (s *InstrumentStore) List() []*domain.Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Instrument, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		out = append(out, s.instruments[symbol])
	}
	return out
}
