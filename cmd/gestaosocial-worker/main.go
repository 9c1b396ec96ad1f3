package main

import (
	"context"
	"errors"
	"time"

	"gestaosocial/internal/amqp"
	"gestaosocial/internal/backend"
	"gestaosocial/internal/cli"
	"gestaosocial/internal/config"
	applog "gestaosocial/internal/log"
	gsheet "gestaosocial/internal/sheets/google"
	"gestaosocial/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	if err != nil {
		cli.Fatal(nil, "Configuration validation failed", err)
	}

	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	defer logger.Close()

	logger.Info("Starting gestaosocial-worker",
		"queue", cfg.AMQPQueue,
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sync_interval", cfg.SyncInterval)

	// The worker only reads rows; publishing stays with the server.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger.Logger, "Invalid backend configuration", err)
	}
	backendCfg.AMQPURL = ""
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend)).
		CreateBackend(context.Background(), backendCfg)
	if err != nil {
		cli.Fatal(logger.Logger, "Failed to open SQLite repository", err)
	}

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		res.Close()
		cli.Fatal(logger.Logger, "Failed to initialize Google Sheets client", err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		res.Close()
		cli.Fatal(logger.Logger, "Failed to initialize AMQP client", err)
	}

	ctx, done := cli.GracefulShutdown(logger.Logger, shutdownTimeout, nil)

	w := worker.NewRosterWorker(res.Backend, sheetsClient, logger.WithComponent(applog.ComponentWorker))

	if err := w.SyncRoster(ctx); err != nil {
		logger.Warn("Initial roster sync failed", applog.FieldError, err)
	}

	go w.RunPeriodic(ctx, cfg.SyncInterval)

	go func() {
		err := amqpClient.ConsumeChanges(ctx, w.HandleChange)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Change consumer stopped", applog.FieldError, err)
		}
	}()

	logger.Info("Worker ready, waiting for change events")
	cli.WaitForShutdown(ctx, done)

	if err := amqpClient.Close(); err != nil {
		logger.Error("AMQP close error", applog.FieldError, err)
	}
	if err := res.Close(); err != nil {
		logger.Error("Backend close error", applog.FieldError, err)
	}
}
