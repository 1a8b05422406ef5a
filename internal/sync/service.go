// Package sync drives one full ledger run: fetch the order window,
// project each order into ledger cells and fold the results into the
// workbook.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"wc-ledger/internal/history"
	"wc-ledger/internal/jalali"
	"wc-ledger/internal/ledger"
	"wc-ledger/internal/observability/metrics"
	"wc-ledger/internal/orders"
	"wc-ledger/internal/wcapi"
)

const (
	defaultDaysBack = 30
)

var defaultExcludedStatuses = []string{"cancelled", "pending"}

// OrderSource yields every order paid since the window start.
type OrderSource interface {
	FetchAll(ctx context.Context, after time.Time) []wcapi.Order
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Service orchestrates a ledger run.
type Service struct {
	source    OrderSource
	projector *orders.Projector
	store     *ledger.Store
	runs      *history.Store
	exclude   []string
	daysBack  int
	clock     Clock
	logger    *log.Logger
}

// Option configures the service.
type Option func(*Service)

// WithHistory records every run in the given store.
func WithHistory(runs *history.Store) Option {
	return func(s *Service) {
		s.runs = runs
	}
}

// WithExcludedStatuses drops fetched orders whose status slug is listed.
func WithExcludedStatuses(statuses []string) Option {
	return func(s *Service) {
		s.exclude = statuses
	}
}

// WithDaysBack sets how far before now the fetch window may reach. The
// window still opens on a month boundary so the current bucket is always
// re-read whole.
func WithDaysBack(days int) Option {
	return func(s *Service) {
		if days >= 0 {
			s.daysBack = days
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a sync service.
func NewService(source OrderSource, projector *orders.Projector, store *ledger.Store, logger *log.Logger, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.New("sync: nil order source")
	}
	if projector == nil {
		return nil, errors.New("sync: nil projector")
	}
	if store == nil {
		return nil, errors.New("sync: nil store")
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{
		source:    source,
		projector: projector,
		store:     store,
		exclude:   defaultExcludedStatuses,
		daysBack:  defaultDaysBack,
		clock:     systemClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Summary reports what one run did.
type Summary struct {
	WindowStart time.Time
	Fetched     int
	Excluded    int
	Skipped     int
	New         int
	Updated     int
	Unchanged   int
}

// Run fetches the current window, projects every order in ascending id
// order and upserts the results. Orders that cannot be projected, and
// unpaid orders not yet in the workbook, are skipped and logged; only
// storage failures abort the run. On success the workbook is finalized
// and saved.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveRun(result, time.Since(start))
	}()

	window := jalali.MonthStart(s.clock.Now(), s.daysBack)
	summary := Summary{WindowStart: window}

	s.logger.Printf("run: fetching orders paid since %s", window.Format("2006-01-02"))
	fetched := s.source.FetchAll(ctx, window)
	summary.Fetched = len(fetched)

	batch := make([]wcapi.Order, 0, len(fetched))
	for _, order := range fetched {
		if s.excludedStatus(order.Status) {
			summary.Excluded++
			continue
		}
		batch = append(batch, order)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].ID < batch[j].ID })

	for _, order := range batch {
		row, err := s.projector.Project(order)
		if err != nil {
			summary.Skipped++
			s.logger.Printf("run: order %d skipped: %v", order.ID, err)
			continue
		}
		outcome, err := s.store.Upsert(row)
		if err != nil {
			if errors.Is(err, ledger.ErrDatelessRow) {
				summary.Skipped++
				s.logger.Printf("run: order %d skipped: %v", order.ID, err)
				continue
			}
			result = metrics.ResultError
			runErr := fmt.Errorf("sync: order %d: %w", order.ID, err)
			s.recordRun(ctx, start, summary, runErr)
			return summary, runErr
		}
		switch outcome {
		case ledger.RowInserted:
			summary.New++
		case ledger.RowUpdated:
			summary.Updated++
		default:
			summary.Unchanged++
		}
	}

	if err := s.store.Finalize(); err != nil {
		result = metrics.ResultError
		runErr := fmt.Errorf("sync: finalize: %w", err)
		s.recordRun(ctx, start, summary, runErr)
		return summary, runErr
	}
	if err := s.store.Save(); err != nil {
		result = metrics.ResultError
		runErr := fmt.Errorf("sync: save: %w", err)
		s.recordRun(ctx, start, summary, runErr)
		return summary, runErr
	}

	metrics.AddOrders(metrics.OrderOutcomeNew, summary.New)
	metrics.AddOrders(metrics.OrderOutcomeUpdated, summary.Updated)
	metrics.AddOrders(metrics.OrderOutcomeUnchanged, summary.Unchanged)
	metrics.AddOrders(metrics.OrderOutcomeSkipped, summary.Skipped)

	s.logger.Printf("run: %d fetched, %d new, %d updated, %d unchanged, %d skipped, %d excluded",
		summary.Fetched, summary.New, summary.Updated, summary.Unchanged, summary.Skipped, summary.Excluded)
	s.recordRun(ctx, start, summary, nil)
	return summary, nil
}

func (s *Service) excludedStatus(status string) bool {
	status = strings.TrimSpace(status)
	for _, slug := range s.exclude {
		if strings.EqualFold(status, slug) {
			return true
		}
	}
	return false
}

// recordRun persists the run outcome when a history store is attached.
// Failures are logged and swallowed so history never breaks a run.
func (s *Service) recordRun(ctx context.Context, started time.Time, summary Summary, runErr error) {
	if s.runs == nil {
		return
	}
	run := history.Run{
		StartedAt:   started,
		FinishedAt:  time.Now(),
		WindowStart: summary.WindowStart,
		Fetched:     summary.Fetched,
		New:         summary.New,
		Updated:     summary.Updated,
		Unchanged:   summary.Unchanged,
		Skipped:     summary.Skipped,
		Status:      history.StatusOK,
	}
	if runErr != nil {
		run.Status = history.StatusFailed
		run.Error = runErr.Error()
	}
	if _, err := s.runs.RecordRun(ctx, run); err != nil {
		s.logger.Printf("run: history record failed: %v", err)
	}
}
