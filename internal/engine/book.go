package engine

import (
	"sync"

	"github.com/google/btree"

	"github.com/dmelo/sharebook/internal/domain"
)

// bookEntry is a resting order keyed by its insertion sequence number.
type bookEntry struct {
	seq   uint64
	order *domain.Order
}

// bookLess orders entries by insertion sequence. Ascend therefore yields
// orders in arrival order, the scan order the matching pass requires.
func bookLess(a, b bookEntry) bool {
	return a.seq < b.seq
}

// OrderBook holds every resting order, across all symbols, in insertion
// order. Orders are identified by a stable monotonic id (the sequence
// number itself) with a secondary index for O(log n) removal, so removing
// one order never disturbs the identity of any other.
type OrderBook struct {
	mu      sync.RWMutex
	tree    *btree.BTreeG[bookEntry]
	index   map[uint64]bookEntry // order id → entry
	nextSeq uint64
}

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	const degree = 32
	return &OrderBook{
		tree:  btree.NewG[bookEntry](degree, bookLess),
		index: make(map[uint64]bookEntry),
	}
}

// Append assigns the order its id and adds it to the book.
func (b *OrderBook) Append(o *domain.Order) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	o.ID = b.nextSeq
	entry := bookEntry{seq: o.ID, order: o}
	b.tree.ReplaceOrInsert(entry)
	b.index[o.ID] = entry
	return o.ID
}

// Remove deletes an order from the book by id. Removing an unknown id is
// a no-op.
func (b *OrderBook) Remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.index[id]
	if !ok {
		return
	}
	delete(b.index, id)
	b.tree.Delete(entry)
}

// Get returns the resting order with the given id.
func (b *OrderBook) Get(id uint64) (*domain.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return entry.order, true
}

// Scan returns all resting orders in insertion order.
func (b *OrderBook) Scan() []*domain.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*domain.Order, 0, b.tree.Len())
	b.tree.Ascend(func(e bookEntry) bool {
		out = append(out, e.order)
		return true
	})
	return out
}

// BySymbol returns the resting orders for one symbol in insertion order.
func (b *OrderBook) BySymbol(symbol string) []*domain.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*domain.Order, 0)
	b.tree.Ascend(func(e bookEntry) bool {
		if e.order.Symbol == symbol {
			out = append(out, e.order)
		}
		return true
	})
	return out
}

// Len returns the number of resting orders across all symbols.
func (b *OrderBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.tree.Len()
}
