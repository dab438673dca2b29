package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fust/internal/amqp"
	"fust/internal/cli"
	"fust/internal/config"
	applog "fust/internal/log"
	gsheet "fust/internal/sheets/google"
	"fust/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentWorker)

	logger.Info("Starting fust-worker")

	cfg := cli.LoadAndValidateConfig(logger, func(c *config.Config) error {
		return errors.Join(c.Validate(), c.ValidateWorker())
	})

	if err := run(logger, cfg); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(logger *applog.Logger, cfg *config.Config) error {
	ctx, stop := cli.ShutdownContext(context.Background())
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	exporter := worker.NewOverzichtWorker(repo, sheetsClient)

	// Catch up on movements recorded while the worker was down.
	if err := exporter.Export(ctx); err != nil {
		logger.Error("Startup export failed", applog.FieldError, err)
	} else {
		logger.Info("Startup export completed")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeMutatieCreated(gctx, exporter.HandleMutatieCreated)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("consume mutatie events: %w", err)
		}
		return nil
	})

	if cfg.ExportInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.ExportInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := exporter.Export(gctx); err != nil {
						logger.Error("Periodic export failed", applog.FieldError, err)
					}
				}
			}
		})
	} else {
		logger.Info("Periodic export disabled")
	}

	return g.Wait()
}
