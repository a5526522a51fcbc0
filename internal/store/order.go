package store

import (
	"sync"

	"github.com/dmelo/sharebook/internal/domain"
)

// OrderStore is a thread-safe in-memory store for every order ever
// submitted, with a primary index by order id and a secondary index by
// owner. Orders stay in the store after leaving the book so that filled
// orders remain queryable.
type OrderStore struct {
	mu          sync.RWMutex
	orders      map[uint64]*domain.Order
	ownerOrders map[string][]*domain.Order // owner → orders (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:      make(map[uint64]*domain.Order),
		ownerOrders: make(map[string][]*domain.Order),
	}
}

// Create adds an order to the store and appends it to the
// owner's secondary index.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o
	s.ownerOrders[o.Owner] = append(s.ownerOrders[o.Owner], o)
}

// Get retrieves an order by id. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (s *OrderStore) Get(id uint64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// Delete removes an order from both indexes. Used when a submission is
// rejected after its order was already recorded.
func (s *OrderStore) Delete(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return
	}
	delete(s.orders, id)

	owned := s.ownerOrders[o.Owner]
	for i, other := range owned {
		if other.ID == id {
			s.ownerOrders[o.Owner] = append(owned[:i], owned[i+1:]...)
			break
		}
	}
}

// ListByOwner returns orders for an owner in reverse chronological order
// (newest first). If status is non-nil, only orders matching that status
// are included. Pagination is 1-based. Returns the matching orders for the
// requested page and the total count of matching orders (before pagination).
func (s *OrderStore) ListByOwner(owner string, status *domain.OrderStatus, page, limit int) ([]*domain.Order, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.ownerOrders[owner]

	// Filter by status if provided, collecting in reverse order.
	filtered := make([]*domain.Order, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if status != nil && all[i].Status != *status {
			continue
		}
		filtered = append(filtered, all[i])
	}

	total := len(filtered)

	// Apply pagination.
	start := (page - 1) * limit
	if start >= total {
		return []*domain.Order{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return filtered[start:end], total
}
