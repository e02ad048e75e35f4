package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"abicomscraper/internal/report"
	"abicomscraper/pkg/config"
	"abicomscraper/pkg/logger"
)

var (
	// Report command flags
	reportDir     string
	reportCSV     string
	reportWorkers int
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inventory the downloaded image tree",
	Long: `Scan the output directory and summarize what has been collected:
files and sizes per monthly bucket, plus any image filed under the
wrong month. Optionally write the full file listing as CSV.`,
	Example: `  # Print the per-month summary
  abicomscraper report

  # Export the full listing
  abicomscraper report --csv inventory.csv`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportDir, "output", "o", "", "image directory to scan (default: data/images)")
	reportCmd.Flags().StringVar(&reportCSV, "csv", "", "write the full file listing to this CSV file")
	reportCmd.Flags().IntVar(&reportWorkers, "workers", runtime.NumCPU(), "number of concurrent file inspectors")
}

func runReport(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if reportDir != "" {
		flags["output"] = reportDir
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.GetLogger()

	inv, err := report.Scan(cfg.Output.BaseDirectory, reportWorkers, log)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", cfg.Output.BaseDirectory, err)
	}

	fmt.Println(report.RenderSummary(inv))

	if reportCSV != "" {
		f, err := os.Create(reportCSV)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", reportCSV, err)
		}
		defer f.Close()

		if err := report.WriteCSV(inv, f); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		fmt.Printf("Full listing written to %s\n", reportCSV)
	}

	return nil
}
