package metrics

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	metricPrefix = "wcledger_"

	resultSuccess = "success"
	resultError   = "error"

	retryReasonTimeout    = "timeout"
	retryReasonConnection = "connection"

	orderOutcomeNew       = "new"
	orderOutcomeUpdated   = "updated"
	orderOutcomeUnchanged = "unchanged"
	orderOutcomeSkipped   = "skipped"
)

var (
	registerOnce sync.Once

	pageRequests *prometheus.CounterVec
	pageRetries  *prometheus.CounterVec
	pageLatency  *prometheus.HistogramVec

	orderOutcomes *prometheus.CounterVec

	runTotal   *prometheus.CounterVec
	runLatency *prometheus.HistogramVec

	labelSheetsTotal *prometheus.CounterVec
)

// Init registers ledger metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		pageRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "page_requests_total",
				Help: "Total order page fetches by result",
			},
			[]string{"result"},
		)
		pageRetries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "page_retries_total",
				Help: "Total page fetch retries by reason",
			},
			[]string{"reason"},
		)
		pageLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "page_latency_seconds",
				Help:    "Order page fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		orderOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "orders_total",
				Help: "Total processed orders by outcome",
			},
			[]string{"outcome"},
		)

		runTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total ledger runs by result",
			},
			[]string{"result"},
		)
		runLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_latency_seconds",
				Help:    "Full ledger run latency in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"result"},
		)

		labelSheetsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "label_sheets_total",
				Help: "Total mailing label exports by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			pageRequests,
			pageRetries,
			pageLatency,
			orderOutcomes,
			runTotal,
			runLatency,
			labelSheetsTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObservePage records one page fetch duration and result.
func ObservePage(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if pageRequests != nil {
		pageRequests.WithLabelValues(result).Inc()
	}
	if pageLatency != nil {
		pageLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncPageRetry increments the page retry counter by reason.
func IncPageRetry(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if pageRetries != nil {
		pageRetries.WithLabelValues(reason).Inc()
	}
}

// AddOrders increments the order outcome counter by count.
func AddOrders(outcome string, count int) {
	if count <= 0 {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	if orderOutcomes != nil {
		orderOutcomes.WithLabelValues(outcome).Add(float64(count))
	}
}

// ObserveRun records one full run duration and result.
func ObserveRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if runTotal != nil {
		runTotal.WithLabelValues(result).Inc()
	}
	if runLatency != nil {
		runLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncLabelSheet increments the mailing label export counter.
func IncLabelSheet(result string) {
	if result == "" {
		result = resultSuccess
	}
	if labelSheetsTotal != nil {
		labelSheetsTotal.WithLabelValues(result).Inc()
	}
}

// Push delivers all registered metrics to a Pushgateway. A blank url
// is a no-op.
func Push(ctx context.Context, url, job string, logger *log.Logger) {
	if url == "" {
		return
	}
	if job == "" {
		job = "wc-ledger"
	}
	err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx)
	if err != nil && logger != nil {
		logger.Printf("metrics push failed: %v", err)
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	RetryTimeout    = retryReasonTimeout
	RetryConnection = retryReasonConnection

	OrderOutcomeNew       = orderOutcomeNew
	OrderOutcomeUpdated   = orderOutcomeUpdated
	OrderOutcomeUnchanged = orderOutcomeUnchanged
	OrderOutcomeSkipped   = orderOutcomeSkipped
)
