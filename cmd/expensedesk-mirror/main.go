package main

import (
	"context"
	"errors"

	"expensedesk/internal/amqp"
	"expensedesk/internal/cli"
	"expensedesk/internal/config"
	applog "expensedesk/internal/log"
	gsheet "expensedesk/internal/sheets/google"
	"expensedesk/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting expensedesk-mirror")

	if err := cfg.ValidateSheets(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	if cfg.AMQPURL == "" {
		cli.Fatal(logger, "Configuration validation failed", errors.New("AMQP_URL is required for the mirror worker"))
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	sheets, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}
	if err := sheets.EnsureHeader(ctx); err != nil {
		cli.Fatal(logger, "Failed to prepare expense sheet", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	mirror := worker.NewMirrorWorker(sheets, logger.Logger)

	// Only SQLite outlives the server process, so it is the only store worth
	// reconciling against on startup.
	if cfg.DataBackend == config.BackendSQLite {
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		logger.Info("Performing startup reconcile", "db_path", cfg.SQLiteDBPath)
		if err := mirror.Reconcile(ctx, repo); err != nil {
			logger.Error("Startup reconcile failed", applog.FieldError, err)
		}
		repo.Close()
	}

	if err := client.Consume(ctx, mirror.HandleCreated); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		return
	}
	logger.Info("expensedesk-mirror stopped")
}
