package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"invoicerecon/internal/config"
	"invoicerecon/internal/extraction"
	"invoicerecon/internal/handler"
	"invoicerecon/internal/logger"
	"invoicerecon/internal/parser"
	_ "invoicerecon/internal/parser/claude"
	_ "invoicerecon/internal/parser/gemini"
	_ "invoicerecon/internal/parser/openai"
	"invoicerecon/internal/port"
	"invoicerecon/internal/reconcile"
	"invoicerecon/internal/router"
	"invoicerecon/internal/service"
	s3storage "invoicerecon/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize extraction chain
	docParser, err := parser.NewChain(&cfg.Parser, logger.Component(log, "parser"))
	if err != nil {
		return fmt.Errorf("failed to initialize parser: %w", err)
	}

	// Initialize reconciliation
	recCfg, err := reconcile.ParseConfig(cfg.Reconcile.Mode, cfg.Reconcile.Tolerance)
	if err != nil {
		return fmt.Errorf("invalid reconcile config: %w", err)
	}
	engine, err := reconcile.NewEngine(recCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	// Initialize storage (optional)
	var storage port.ObjectStorage
	if cfg.Storage.Enabled() {
		storage, err = s3storage.NewS3Client(ctx, &cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Initialize services
	batchSvc := service.NewBatchService(docParser, extraction.NewNormalizer(), engine, log)
	exportSvc := service.NewExportService(storage, &cfg.Storage, &cfg.Export, log)
	sessionSvc := service.NewSessionService(batchSvc, log,
		service.OnDelete(func(ctx context.Context, id uuid.UUID) error {
			return exportSvc.Unpublish(ctx, id.String())
		}),
	)

	// Initialize handlers
	sessionH := handler.NewSessionHandler(sessionSvc, cfg.Upload)
	exportH := handler.NewExportHandler(sessionSvc, exportSvc)
	healthH := handler.NewHealthHandler(engine)

	// Setup router
	r := router.Setup(log, cfg.CORS.AllowedOrigins, sessionH, exportH, healthH)
	// Forms larger than one maximum-size file spill to temporary files.
	r.MaxMultipartMemory = cfg.Upload.MaxFileSizeBytes()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":      cfg.Server.Port,
			"mode":      engine.Mode(),
			"tolerance": engine.Tolerance().String(),
			"storage":   cfg.Storage.Enabled(),
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
