package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"cardocs/internal/database/migration"
	handlers "cardocs/internal/http/handler"
	"cardocs/internal/http/middleware"
	"cardocs/internal/metrics"
	"cardocs/internal/otel"
	"cardocs/internal/reconcile"
	"cardocs/internal/registry"
	"cardocs/internal/repository/postgres"
	"cardocs/internal/service"
	"cardocs/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "openapi",
			Usage: "Path of the OpenAPI document served at /openapi.yaml",
			Value: "openapi.yaml",
		},
		&cli.BoolFlag{
			Name:  "skip-migrate",
			Usage: "Do not create missing tables on startup",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if !cCtx.Bool("skip-migrate") {
		if err := migration.EnsureMigrated(ctx, rt.db, logger, rt.cfg.Database.Host); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	objStore, err := storage.NewMinIO(rt.cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.New(promReg)
	if err != nil {
		return fmt.Errorf("failed to register domain metrics: %w", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(promReg)
	if err != nil {
		return fmt.Errorf("failed to register http metrics: %w", err)
	}

	docRepo := postgres.NewDocumentPostgres(rt.db)
	uploadRepo := postgres.NewUploadPostgres(rt.db)

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(recorder),
		service.WithPresignExpiry(rt.cfg.MinIO.PresignExpiry),
	}
	docSvc := service.NewDocumentService(docRepo, svcOpts...)
	uploadSvc := service.NewUploadService(objStore, uploadRepo, svcOpts...)

	reg := registry.New(docSvc, uploadSvc, registry.WithLogger(logger))
	if err := reg.Refresh(ctx); err != nil {
		// the mirror fills on the first successful list
		logger.WithError(err).WithField("event", "registry_refresh_failed").Warn("initial registry refresh failed")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             rt.cfg.MaxUploadMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:          rt.db,
		Registry:    reg,
		Classifier:  rt.classifier(),
		Reconciler:  reconcile.New(objStore, uploadRepo, recorder, logger, reconcile.WithGrace(rt.cfg.ReconcileGrace)),
		Gatherer:    promReg,
		OpenAPIPath: cCtx.String("openapi"),
	})

	addr := ":" + rt.cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": addr, "app_host": rt.cfg.AppHost}).Info("server starting")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Error("tracing shutdown failed")
	}
	return nil
}
