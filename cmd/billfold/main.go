// billfold scans a directory of bill images, extracts structured data
// through the two-stage pipeline and regenerates the consolidated CSV.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"billfold/internal/amqp"
	"billfold/internal/backend"
	"billfold/internal/cli"
	"billfold/internal/exporter"
	"billfold/internal/llm"
	"billfold/internal/services"
)

func main() {
	limit := flag.Int("limit", 0, "maximum number of documents to process (0 = all)")
	input := flag.String("input", "", "input directory override")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting billfold")

	cfg := cli.LoadAndValidateConfig(logger)
	if *input != "" {
		cfg.InputDir = *input
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize extraction backend", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}()

	parser := llm.NewExtractor(llm.OpenAIConfig{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.OpenAITimeout,
	})

	// AMQP is optional; without it the worker relies on its periodic sweep
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without publishing", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	pipeline := services.NewPipeline(result.Extractor, parser, repo, publisher, services.Options{
		InputDir:      cfg.InputDir,
		LayoutDir:     cfg.LayoutDir,
		StructuredDir: cfg.StructuredDir,
		Concurrency:   cfg.IngestConcurrency,
	})

	summary, err := pipeline.Run(ctx, *limit)
	if err != nil {
		logger.Error("Pipeline run failed", "error", err)
		os.Exit(1)
	}

	csvExporter, err := exporter.New(repo)
	if err != nil {
		logger.Error("Failed to initialize CSV exporter", "error", err)
		os.Exit(1)
	}

	rows, err := csvExporter.Export(ctx, cfg.CSVPath)
	if err != nil {
		logger.Error("Failed to export CSV", "error", err, "path", cfg.CSVPath)
		os.Exit(1)
	}
	if err := repo.MarkAllExported(ctx); err != nil {
		logger.Error("Failed to mark bills exported", "error", err)
		os.Exit(1)
	}

	logger.Info("Run complete",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"csv_rows", rows,
		"csv_path", cfg.CSVPath)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
