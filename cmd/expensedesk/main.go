package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"expensedesk/internal/backend"
	"expensedesk/internal/cli"
	apphttp "expensedesk/internal/http"
	applog "expensedesk/internal/log"
	"expensedesk/internal/workflow"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	if err := cfg.Validate(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	wf, err := workflow.New(ctx, res.Store, workflow.Options{
		Notifier: res.Notifier,
		Logger:   logger.Logger,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to load expenses", err, "backend", cfg.DataBackend)
	}

	srv := apphttp.NewServer(":"+cfg.Port, wf, apphttp.Options{
		Logger:           logger.WithComponent(applog.ComponentHTTP),
		Pinger:           res.Pinger,
		SummaryCacheSize: cfg.SummaryCacheSize,
		SummaryCacheTTL:  cfg.SummaryCacheTTL,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expensedesk server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"expenses", wf.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		return
	}
	logger.Info("Server stopped gracefully")
}
