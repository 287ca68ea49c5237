package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetbolt/internal/amqp"
	"budgetbolt/internal/auth"
	"budgetbolt/internal/backend"
	"budgetbolt/internal/cli"
	apphttp "budgetbolt/internal/http"
	"budgetbolt/internal/log"
	"budgetbolt/internal/metrics"
	"budgetbolt/internal/reports"
	"budgetbolt/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

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

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		if res.CacheStats != nil {
			m.RegisterCache("categories", res.CacheStats)
		}
	}

	// Exports are optional; without a broker the API refuses them with 503.
	var publisher services.ExportPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, exports disabled", log.FieldError, err.Error())
		} else {
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledger := services.NewLedgerService(res.Store, publisher)
	opts := []reports.Option{}
	if m != nil {
		opts = append(opts, reports.WithRecorder(m))
	}
	builder := reports.NewBuilder(res.Store, opts...)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
	}, apphttp.Deps{
		Ledger:  ledger,
		Reports: builder,
		Tokens:  auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTokenTTL),
		Metrics: m,
		Logger:  logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err.Error())
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Storage close error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting budgetbolt API",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"environment", cfg.Environment,
		"exports_enabled", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
