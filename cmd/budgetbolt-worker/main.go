package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetbolt/internal/amqp"
	"budgetbolt/internal/backend"
	"budgetbolt/internal/cli"
	"budgetbolt/internal/export"
	"budgetbolt/internal/log"
	"budgetbolt/internal/metrics"
	"budgetbolt/internal/reports"
	"budgetbolt/internal/sheets"
	gsheet "budgetbolt/internal/sheets/google"
	"budgetbolt/internal/sheets/memory"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting budgetbolt-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the export worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateStore(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Cleanup()

	locale, err := gsheet.ParseLocale(cfg.ExportLocale)
	if err != nil {
		logger.Error("Invalid export locale", log.FieldError, err.Error())
		os.Exit(1)
	}

	var writer sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, locale)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.New(locale)
		logger.Info("Google Sheets disabled, reports are kept in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	var (
		recorder   export.Recorder
		opts       []reports.Option
		metricsSrv *http.Server
	)
	if cfg.MetricsEnabled {
		m := metrics.New()
		if res.CacheStats != nil {
			m.RegisterCache("categories", res.CacheStats)
		}
		recorder = m
		opts = append(opts, reports.WithRecorder(m))

		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		metricsSrv = &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", log.FieldError, err.Error())
			}
		}()
	}

	builder := reports.NewBuilder(res.Store, opts...)
	processor := export.NewProcessor(amqpClient, export.NewWorker(builder, writer, recorder, logger))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Export processor stop error", log.FieldError, err.Error())
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(ctx)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start export processor", log.FieldError, err.Error())
		os.Exit(1)
	}

	select {
	case <-processor.Done():
		if err := processor.Err(); err != nil {
			logger.Error("Export consumption failed", log.FieldError, err.Error())
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
