package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/airquality-report-service/internal/adapter/earthdata"
	kafkaadapter "github.com/couchcryptid/airquality-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/airquality-report-service/internal/adapter/netcdf"
	"github.com/couchcryptid/airquality-report-service/internal/adapter/web"
	"github.com/couchcryptid/airquality-report-service/internal/config"
	"github.com/couchcryptid/airquality-report-service/internal/domain"
	"github.com/couchcryptid/airquality-report-service/internal/observability"
	"github.com/couchcryptid/airquality-report-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := earthdata.NewClient(cfg.EarthdataUsername, cfg.EarthdataPassword,
		cfg.EarthdataTimeout, cfg.CMRBaseURL, cfg.URSBaseURL, metrics, logger)
	acquirer := earthdata.NewAcquirer(client, cfg.GranuleCacheDir, cfg.GranuleShortName, metrics, logger)
	reader := netcdf.NewReader(domain.OMIL3Grid(), metrics, logger)

	p := pipeline.New(acquirer, reader, cfg.Region(), cfg.Window, cfg.HighRiskThreshold, logger, metrics)

	// Report event publishing is feature-flagged via KAFKA_BROKERS.
	var publisher web.ReportPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled() {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaReportTopic, metrics, logger)
		publisher = kafkaPublisher
		logger.Info("report event publishing enabled", "topic", cfg.KafkaReportTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("report event publishing disabled")
	}

	srv, err := web.NewServer(cfg.HTTPAddr(), p, p, publisher, metrics, logger)
	if err != nil {
		logger.Error("failed to create http server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
