package wcapi

import (
	"context"
	"errors"
	"log"
	"net/url"
	"time"

	"wc-ledger/internal/observability/metrics"
)

const (
	defaultAttempts    = 3
	defaultBaseTimeout = 10 * time.Second
	defaultTimeoutStep = 5 * time.Second
)

// PageClient fetches one page of orders. *Client satisfies it.
type PageClient interface {
	Page(ctx context.Context, q PageQuery) ([]Order, error)
}

// Fetcher wraps a PageClient with per-page retries. Timeouts and connection
// failures are transient and retried with a longer deadline each attempt;
// upstream statuses, decode failures and cancellation end the page
// immediately. A page that never succeeds degrades to an empty result, so a
// sync run loses at most that page.
type Fetcher struct {
	client   PageClient
	attempts int
	base     time.Duration
	step     time.Duration
	logger   *log.Logger
}

// FetcherOption adjusts a Fetcher.
type FetcherOption func(*Fetcher)

// WithAttempts sets how many tries each page gets.
func WithAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithTimeouts sets the first-attempt deadline and the escalation added on
// each following attempt.
func WithTimeouts(base, step time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if base > 0 {
			f.base = base
		}
		if step >= 0 {
			f.step = step
		}
	}
}

// NewFetcher constructs a Fetcher around client.
func NewFetcher(client PageClient, logger *log.Logger, opts ...FetcherOption) (*Fetcher, error) {
	if client == nil {
		return nil, errors.New("wcapi: nil page client")
	}
	if logger == nil {
		logger = log.Default()
	}
	f := &Fetcher{
		client:   client,
		attempts: defaultAttempts,
		base:     defaultBaseTimeout,
		step:     defaultTimeoutStep,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FetchPage fetches one page, retrying transient failures. It never returns
// an error; an exhausted or permanently failed page is an empty slice.
func (f *Fetcher) FetchPage(ctx context.Context, q PageQuery) []Order {
	start := time.Now()
	for attempt := 0; attempt < f.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			f.logger.Printf("orders page %d: aborted: %v", q.Page, err)
			metrics.ObservePage(metrics.ResultError, time.Since(start))
			return nil
		}
		timeout := f.base + time.Duration(attempt)*f.step
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		orders, err := f.client.Page(attemptCtx, q)
		cancel()
		if err == nil {
			metrics.ObservePage(metrics.ResultSuccess, time.Since(start))
			return orders
		}
		if !transient(err) {
			f.logger.Printf("orders page %d: giving up: %v", q.Page, err)
			metrics.ObservePage(metrics.ResultError, time.Since(start))
			return nil
		}
		if attempt+1 < f.attempts {
			metrics.IncPageRetry(retryReason(err))
		}
		f.logger.Printf("orders page %d: attempt %d/%d (%s) failed: %v", q.Page, attempt+1, f.attempts, timeout, err)
	}
	f.logger.Printf("orders page %d: no attempt succeeded, continuing without it", q.Page)
	metrics.ObservePage(metrics.ResultError, time.Since(start))
	return nil
}

// transient reports whether err is a timeout or connection failure. Anything
// the server actually answered, and caller-side cancellation, is permanent.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr)
}

func retryReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return metrics.RetryTimeout
	}
	return metrics.RetryConnection
}
