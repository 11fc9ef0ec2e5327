// billfold-worker keeps the consolidated CSV in sync with the store. It
// consumes bill-indexed messages from AMQP and periodically sweeps for
// pending bills in case messages were lost.
package main

import (
	"context"
	"os"
	"time"

	"billfold/internal/amqp"
	"billfold/internal/cli"
	"billfold/internal/config"
	"billfold/internal/exporter"
	"billfold/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting billfold-worker")

	// The worker never calls the LLM, so skip full pipeline validation
	cfg := config.Load()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	csvExporter, err := exporter.New(repo)
	if err != nil {
		logger.Error("Failed to initialize CSV exporter", "error", err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(repo, csvExporter, cfg.CSVPath)

	// AMQP is optional; without it the worker runs on the periodic sweep only
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		logger.Info("Initialized AMQP client",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", "error", err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close repository", "error", err)
		}
	})

	// On startup, re-export anything that might have been missed
	logger.Info("Performing startup export check...")
	if err := exportWorker.ProcessPendingExports(ctx); err != nil {
		logger.Error("Failed startup export check", "error", err)
		// Don't exit - continue with normal operation
	}

	if amqpClient != nil {
		go func() {
			if err := amqpClient.ConsumeBillIndexed(ctx, exportWorker.HandleBillIndexed); err != nil {
				if err != context.Canceled {
					logger.Error("Message consumption failed", "error", err)
				}
			}
		}()
	}

	// Periodic sweep for pending exports in case AMQP messages are lost
	ticker := time.NewTicker(cfg.ExportInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := exportWorker.ProcessPendingExports(ctx); err != nil {
					logger.Error("Periodic export sweep failed", "error", err)
				}
			}
		}
	}()

	logger.Info("Worker running",
		"export_interval", cfg.ExportInterval,
		"csv_path", cfg.CSVPath,
		"amqp_enabled", amqpClient != nil)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
