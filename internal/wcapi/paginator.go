package wcapi

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultPageCeiling = 10
	defaultWorkers     = 5
)

// PageFetcher fetches one page without failing. *Fetcher satisfies it.
type PageFetcher interface {
	FetchPage(ctx context.Context, q PageQuery) []Order
}

// Paginator fans page fetches out over a bounded worker pool. Every page up
// to the ceiling is requested eagerly, so one empty or failed page in the
// middle never hides the pages behind it. Results merge in arrival order;
// callers sort.
type Paginator struct {
	fetcher PageFetcher
	pages   int
	workers int
	logger  *log.Logger
}

// NewPaginator constructs a Paginator over fetcher. pages and workers fall
// back to defaults when zero or negative.
func NewPaginator(fetcher PageFetcher, pages, workers int, logger *log.Logger) (*Paginator, error) {
	if fetcher == nil {
		return nil, errors.New("wcapi: nil page fetcher")
	}
	if pages <= 0 {
		pages = defaultPageCeiling
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Paginator{fetcher: fetcher, pages: pages, workers: workers, logger: logger}, nil
}

// FetchAll fetches pages 1 through the ceiling concurrently and merges the
// results. Pages land in disjoint slots, so no order is lost or duplicated
// regardless of completion order.
func (p *Paginator) FetchAll(ctx context.Context, after time.Time) []Order {
	slots := make([][]Order, p.pages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for page := 1; page <= p.pages; page++ {
		page := page
		g.Go(func() error {
			slots[page-1] = p.fetcher.FetchPage(gctx, PageQuery{After: after, Page: page})
			return nil
		})
	}
	// Workers report failures by leaving their slot empty, never by error.
	_ = g.Wait()

	var orders []Order
	for _, slot := range slots {
		orders = append(orders, slot...)
	}
	p.logger.Printf("fetched %d orders over %d pages", len(orders), p.pages)
	return orders
}
