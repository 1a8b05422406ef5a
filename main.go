package main

import (
	"context"
	"database/sql"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wc-ledger/internal/config"
	"wc-ledger/internal/history"
	"wc-ledger/internal/ledger"
	"wc-ledger/internal/mailmerge"
	"wc-ledger/internal/observability/metrics"
	"wc-ledger/internal/orders"
	ordersync "wc-ledger/internal/sync"
	"wc-ledger/internal/wcapi"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	labelsMode := flag.Bool("labels", false, "build the mailing label PDF from the workbook instead of syncing")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := log.New(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    5,
		MaxBackups: 2,
	}), "", log.LstdFlags)

	locale, err := cfg.ResolvedLocale()
	if err != nil {
		logger.Fatalf("locale error: %v", err)
	}
	schema, err := ledger.NewSchema(locale.Labels)
	if err != nil {
		logger.Fatalf("schema error: %v", err)
	}
	store, err := ledger.Open(cfg.LedgerPath, schema, cfg.Styles, locale.Aggregates, logger)
	if err != nil {
		logger.Fatalf("ledger open error: %v", err)
	}
	defer store.Close()

	if *labelsMode {
		buildLabels(cfg, locale, schema, store, logger)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.HistoryDSN != "" {
		db, err = sql.Open("pgx", cfg.HistoryDSN)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
	}
	metrics.Init(db, logger)

	client, err := wcapi.NewClient(wcapi.Config{
		BaseURL:  cfg.API.BaseURL,
		Key:      cfg.API.Key,
		Secret:   cfg.API.Secret,
		AuthMode: wcapi.AuthMode(cfg.API.AuthMode),
		PerPage:  cfg.API.PerPage,
	})
	if err != nil {
		logger.Fatalf("api client error: %v", err)
	}
	fetcher, err := wcapi.NewFetcher(client, logger,
		wcapi.WithAttempts(cfg.API.Attempts),
		wcapi.WithTimeouts(
			time.Duration(cfg.API.TimeoutSeconds)*time.Second,
			time.Duration(cfg.API.TimeoutStep)*time.Second,
		),
	)
	if err != nil {
		logger.Fatalf("fetcher error: %v", err)
	}
	paginator, err := wcapi.NewPaginator(fetcher, cfg.API.Pages, cfg.API.Workers, logger)
	if err != nil {
		logger.Fatalf("paginator error: %v", err)
	}
	projector, err := orders.NewProjector(schema, orders.ProjectorConfig{
		StatusLabels: locale.Statuses,
		Regions:      cfg.RegionTable(),
		DispatchKey:  cfg.Meta.Dispatch,
		TrackingKey:  cfg.Meta.Tracking,
		DeliveryKey:  cfg.Meta.Delivery,
		BirthdayKey:  cfg.Meta.Birthday,
	})
	if err != nil {
		logger.Fatalf("projector error: %v", err)
	}

	opts := []ordersync.Option{
		ordersync.WithExcludedStatuses(cfg.ExcludeStatuses),
		ordersync.WithDaysBack(cfg.DaysBack),
	}
	if db != nil {
		runs := history.NewStore(db)
		if err := runs.EnsureSchema(ctx); err != nil {
			logger.Fatalf("history schema error: %v", err)
		}
		opts = append(opts, ordersync.WithHistory(runs))
	}
	service, err := ordersync.NewService(paginator, projector, store, logger, opts...)
	if err != nil {
		logger.Fatalf("sync service error: %v", err)
	}

	summary, runErr := service.Run(ctx)
	pushMetrics(cfg, logger)
	if runErr != nil {
		logger.Fatalf("run error: %v", runErr)
	}
	logger.Printf("ledger %s: %d orders in window, %d new, %d updated", cfg.LedgerPath, summary.Fetched, summary.New, summary.Updated)
}

func buildLabels(cfg config.Config, locale config.Locale, schema *ledger.Schema, store *ledger.Store, logger *log.Logger) {
	metrics.Init(nil, logger)
	wanted := locale.Statuses["processing"]
	rows, err := store.DataRows()
	if err != nil {
		metrics.IncLabelSheet(metrics.ResultError)
		pushMetrics(cfg, logger)
		logger.Fatalf("labels error: %v", err)
	}
	records := mailmerge.RecordsFrom(schema, rows, wanted)
	pdf, err := mailmerge.BuildLabelsPDF(records, mailmerge.Options{FontPath: cfg.LabelFontPath})
	if err != nil {
		metrics.IncLabelSheet(metrics.ResultError)
		pushMetrics(cfg, logger)
		logger.Fatalf("labels error: %v", err)
	}
	if err := os.WriteFile(cfg.LabelsPath, pdf, 0o644); err != nil {
		metrics.IncLabelSheet(metrics.ResultError)
		pushMetrics(cfg, logger)
		logger.Fatalf("labels write error: %v", err)
	}
	metrics.IncLabelSheet(metrics.ResultSuccess)
	pushMetrics(cfg, logger)
	logger.Printf("labels %s: %d records", cfg.LabelsPath, len(records))
}

// pushMetrics is best-effort: a run must not fail because the gateway is
// down. Runs with no push URL configured skip it entirely.
func pushMetrics(cfg config.Config, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	metrics.Push(ctx, cfg.MetricsPushURL, cfg.MetricsJob, logger)
}
