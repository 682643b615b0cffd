package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/remindcare/metrics/internal/audit"
	"github.com/remindcare/metrics/internal/collector"
	"github.com/remindcare/metrics/internal/config"
	"github.com/remindcare/metrics/internal/exporter"
	"github.com/remindcare/metrics/internal/handler"
	"github.com/remindcare/metrics/internal/migration"
	models "github.com/remindcare/metrics/internal/model"
	"github.com/remindcare/metrics/internal/repository"
	"github.com/remindcare/metrics/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	serverConfig, err := config.NewServerConfig()
	if err != nil {
		return err
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var storage repository.Repository
	if serverConfig.DatabaseDSN != "" {
		if err := migration.RunMigrations(ctx, serverConfig.DatabaseDSN, logger); err != nil {
			return err
		}
		storage, err = repository.NewDBStorage(serverConfig.DatabaseDSN)
		if err != nil {
			return err
		}
		logger.Info("using database storage")
	} else {
		storage = repository.NewMemStorage()
		logger.Info("using in-memory storage")
	}
	defer storage.Close()

	metricService := service.NewMetricsService(storage)
	if serverConfig.Restore && metricService.IsMemStorage() {
		if err := metricService.RestoreMetrics(ctx, serverConfig.FileStoragePath, logger); err != nil {
			logger.Errorf("couldn't restore metrics: %v", err)
		}
	}

	// Audit pipeline: handlers publish to eventChan, the broadcaster fans
	// out to the configured subscribers.
	var auditLog audit.AuditLogger
	eventChan := make(chan models.AuditEvent, 100)
	var subs []chan<- models.AuditEvent
	if serverConfig.AuditFile != "" {
		fileChan := make(chan models.AuditEvent, 100)
		subs = append(subs, fileChan)
		go audit.FileSubscriber(fileChan, *serverConfig, logger)
	}
	if serverConfig.AuditURL != "" {
		urlChan := make(chan models.AuditEvent, 100)
		subs = append(subs, urlChan)
		go audit.URLSubscriber(urlChan, *serverConfig, logger)
	}
	if len(subs) > 0 {
		auditLog = audit.NewAuditLogger(eventChan, logger)
		go audit.Broadcaster(eventChan, subs...)
	}

	// The server's own request metrics, flushed into storage on the
	// store interval.
	requestMetrics := collector.New()
	exporterDone := make(chan struct{})
	if serverConfig.StoreInterval > 0 {
		exp := exporter.New(requestMetrics, storage, time.Duration(serverConfig.StoreInterval)*time.Second, logger)
		go func() {
			exp.Run(ctx)
			close(exporterDone)
		}()
	} else {
		close(exporterDone)
	}

	router := handler.Router(storage, logger, serverConfig, metricService, auditLog, requestMetrics)
	server := &http.Server{
		Addr:    serverConfig.Address,
		Handler: router,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("server shutdown failed: %v", err)
		}

		if metricService.IsMemStorage() {
			if err := metricService.SaveMetrics(shutdownCtx, serverConfig.FileStoragePath); err != nil {
				logger.Errorf("couldn't save metrics on shutdown: %v", err)
			}
		}
	}()

	logger.Infof("starting server on %s", serverConfig.Address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	<-exporterDone
	return nil
}
