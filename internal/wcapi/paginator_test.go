package wcapi

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

type stubFetcher struct {
	mu      sync.Mutex
	perPage map[int][]Order
	pages   []int
	active  int
	maxSeen int
}

func (s *stubFetcher) FetchPage(_ context.Context, q PageQuery) []Order {
	s.mu.Lock()
	s.active++
	if s.active > s.maxSeen {
		s.maxSeen = s.active
	}
	s.pages = append(s.pages, q.Page)
	s.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	s.active--
	orders := s.perPage[q.Page]
	s.mu.Unlock()
	return orders
}

func TestFetchAllMergesDisjointPages(t *testing.T) {
	stub := &stubFetcher{perPage: map[int][]Order{
		1: {{ID: 101}, {ID: 102}},
		2: {{ID: 201}, {ID: 202}},
		// page 3 yields nothing, later pages must still be fetched
		4: {{ID: 401}, {ID: 402}},
		5: {{ID: 501}, {ID: 502}},
	}}
	paginator, err := NewPaginator(stub, 5, 2, quietLogger())
	if err != nil {
		t.Fatalf("new paginator: %v", err)
	}

	orders := paginator.FetchAll(context.Background(), time.Date(2024, 9, 22, 0, 0, 0, 0, time.UTC))

	if len(orders) != 8 {
		t.Fatalf("expected 8 orders, got %d", len(orders))
	}
	seen := make(map[int64]bool, len(orders))
	for _, order := range orders {
		if seen[order.ID] {
			t.Fatalf("order %d merged twice", order.ID)
		}
		seen[order.ID] = true
	}

	sort.Ints(stub.pages)
	if len(stub.pages) != 5 {
		t.Fatalf("expected 5 page fetches, got %v", stub.pages)
	}
	for i, page := range stub.pages {
		if page != i+1 {
			t.Fatalf("pages fetched = %v", stub.pages)
		}
	}
	if stub.maxSeen > 2 {
		t.Fatalf("worker bound exceeded: %d concurrent fetches", stub.maxSeen)
	}
}

func TestFetchAllEmptyStore(t *testing.T) {
	stub := &stubFetcher{perPage: map[int][]Order{}}
	paginator, err := NewPaginator(stub, 3, 3, quietLogger())
	if err != nil {
		t.Fatalf("new paginator: %v", err)
	}
	if orders := paginator.FetchAll(context.Background(), time.Now()); len(orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(orders))
	}
}
