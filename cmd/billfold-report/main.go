// billfold-report renders the Markdown spending report and monthly
// spend plot from the consolidated CSV.
package main

import (
	"flag"
	"os"

	"billfold/internal/cli"
	"billfold/internal/config"
	"billfold/internal/log"
	"billfold/internal/report"
)

func main() {
	csvPath := flag.String("csv", "", "consolidated CSV path override")
	reportsDir := flag.String("reports", "", "reports output directory override")
	flag.Parse()

	cli.LoadEnvFile()

	logger := log.New(log.Config{Component: log.ComponentReport})
	log.SetDefault(logger)

	// Reporting only needs paths, so skip full pipeline validation
	cfg := config.Load()
	if *csvPath == "" {
		*csvPath = cfg.CSVPath
	}
	if *reportsDir == "" {
		*reportsDir = cfg.ReportsDir
	}

	logger.Info("Generating spending report",
		log.FieldPath, *csvPath,
		"reports_dir", *reportsDir)

	if err := report.Run(*csvPath, *reportsDir); err != nil {
		logger.Error("Report generation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Report written", "reports_dir", *reportsDir)
}
