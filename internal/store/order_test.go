package store

import (
	"sync"
	"testing"
	"time"

	"github.com/dmelo/sharebook/internal/domain"
)

func newTestOrder(id uint64, owner string, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ID:        id,
		Owner:     owner,
		Symbol:    "ACME",
		Side:      domain.OrderSideBuy,
		Type:      domain.OrderTypeLimit,
		Price:     10,
		Quantity:  5,
		Remaining: 5,
		Status:    domain.OrderStatusResting,
		CreatedAt: createdAt,
	}
}

func TestOrderStore_Create_and_Get(t *testing.T) {
	s := NewOrderStore()
	o := newTestOrder(1, "alice", time.Now())

	s.Create(o)

	got, err := s.Get(1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("expected id 1, got %d", got.ID)
	}
	if got.Owner != "alice" {
		t.Fatalf("expected alice, got %s", got.Owner)
	}
}

func TestOrderStore_Get_NotFound(t *testing.T) {
	s := NewOrderStore()

	_, err := s.Get(42)
	if err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderStore_Delete(t *testing.T) {
	s := NewOrderStore()
	s.Create(newTestOrder(1, "alice", time.Now()))
	s.Create(newTestOrder(2, "alice", time.Now()))

	s.Delete(1)

	if _, err := s.Get(1); err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound after delete, got %v", err)
	}
	if _, err := s.Get(2); err != nil {
		t.Fatalf("expected order 2 untouched, got %v", err)
	}

	orders, total := s.ListByOwner("alice", nil, 1, 10)
	if total != 1 || len(orders) != 1 || orders[0].ID != 2 {
		t.Fatalf("expected only order 2 in owner index, got total=%d orders=%v", total, orders)
	}

	// Deleting an unknown id is a no-op.
	s.Delete(99)
}

func TestOrderStore_ListByOwner_ReverseChronological(t *testing.T) {
	s := NewOrderStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := uint64(1); i <= 5; i++ {
		o := newTestOrder(i, "alice", base.Add(time.Duration(i)*time.Minute))
		s.Create(o)
	}

	orders, total := s.ListByOwner("alice", nil, 1, 10)
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if len(orders) != 5 {
		t.Fatalf("expected 5 orders, got %d", len(orders))
	}

	// Newest first.
	for i := 0; i < len(orders)-1; i++ {
		if !orders[i].CreatedAt.After(orders[i+1].CreatedAt) {
			t.Fatalf("orders not in reverse chronological order at index %d", i)
		}
	}
}

func TestOrderStore_ListByOwner_StatusFilter(t *testing.T) {
	s := NewOrderStore()
	now := time.Now()

	resting := newTestOrder(1, "alice", now)
	filled := newTestOrder(2, "alice", now)
	filled.Status = domain.OrderStatusFilled
	filled.Remaining = 0
	s.Create(resting)
	s.Create(filled)

	status := domain.OrderStatusFilled
	orders, total := s.ListByOwner("alice", &status, 1, 10)
	if total != 1 {
		t.Fatalf("expected total 1, got %d", total)
	}
	if len(orders) != 1 || orders[0].ID != 2 {
		t.Fatalf("expected only the filled order, got %v", orders)
	}
}

func TestOrderStore_ListByOwner_Pagination(t *testing.T) {
	s := NewOrderStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := uint64(1); i <= 7; i++ {
		s.Create(newTestOrder(i, "alice", base.Add(time.Duration(i)*time.Minute)))
	}

	page1, total := s.ListByOwner("alice", nil, 1, 3)
	if total != 7 || len(page1) != 3 {
		t.Fatalf("page 1: expected total=7 len=3, got total=%d len=%d", total, len(page1))
	}
	page3, _ := s.ListByOwner("alice", nil, 3, 3)
	if len(page3) != 1 {
		t.Fatalf("page 3: expected 1 order, got %d", len(page3))
	}

	// Past the end.
	page4, total := s.ListByOwner("alice", nil, 4, 3)
	if len(page4) != 0 || total != 7 {
		t.Fatalf("page 4: expected empty page with total=7, got len=%d total=%d", len(page4), total)
	}
}

func TestOrderStore_ListByOwner_UnknownOwner(t *testing.T) {
	s := NewOrderStore()

	orders, total := s.ListByOwner("nobody", nil, 1, 10)
	if total != 0 || len(orders) != 0 {
		t.Fatalf("expected empty result, got total=%d len=%d", total, len(orders))
	}
}

func TestOrderStore_ConcurrentAccess(t *testing.T) {
	s := NewOrderStore()

	var wg sync.WaitGroup
	for i := uint64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			s.Create(newTestOrder(id, "alice", time.Now()))
			s.Get(id)
			s.ListByOwner("alice", nil, 1, 100)
		}(i)
	}
	wg.Wait()

	_, total := s.ListByOwner("alice", nil, 1, 100)
	if total != 50 {
		t.Fatalf("expected 50 orders, got %d", total)
	}
}
