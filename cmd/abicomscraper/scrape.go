package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"abicomscraper/pkg/config"
	"abicomscraper/pkg/logger"
	"abicomscraper/pkg/scraper"
)

var (
	// Scrape command flags
	outputDir  string
	startPage  int
	maxPages   int
	retryCount int
	flatOutput bool
	datePolicy string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Walk the PPI listing and download missing price-table images",
	Long: `Walk the configured page range of the PPI category listing, open each
post, and download its price-table image.

Images land in monthly MM-YYYY folders named ppi-DD-MM-YYYY.jpg, keyed
by the date in the post URL. Images already on disk are never fetched
again, so the command is safe to run on a schedule. Interrupting a run
with Ctrl-C keeps everything downloaded so far.`,
	Example: `  # Collect with default settings (pages 1-4)
  abicomscraper scrape

  # Collect a deeper backlog into a specific directory
  abicomscraper scrape --max-pages 12 --output ./ppi-images

  # Flat layout without monthly folders
  abicomscraper scrape --flat

  # File undated posts under today's date instead of skipping them
  abicomscraper scrape --date-policy today`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for images (default: data/images)")
	scrapeCmd.Flags().IntVar(&startPage, "start-page", 0, "first listing page to visit")
	scrapeCmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum number of listing pages to visit")
	scrapeCmd.Flags().IntVar(&retryCount, "retry-count", 0, "maximum HTTP attempts per request")
	scrapeCmd.Flags().BoolVar(&flatOutput, "flat", false, "place all images directly in the output directory")
	scrapeCmd.Flags().StringVar(&datePolicy, "date-policy", "", `handling of undated posts: "skip" or "today"`)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, scrapeFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.WithField("version", version).Info("Abicom scraper starting")

	// Ctrl-C cancels the run but keeps everything already placed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := scraper.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize scraper: %w", err)
	}

	result, runErr := s.Run(ctx)
	printResult(result)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted; partial results kept")
			return nil
		}
		return runErr
	}
	return nil
}

// scrapeFlags builds the override map passed to config.Load, containing
// only the flags the user actually set
func scrapeFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if startPage > 0 {
		flags["start-page"] = startPage
	}
	if maxPages > 0 {
		flags["max-pages"] = maxPages
	}
	if retryCount > 0 {
		flags["retry-count"] = retryCount
	}
	if flatOutput {
		flags["flat"] = true
	}
	if datePolicy != "" {
		flags["date-policy"] = datePolicy
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	return flags
}

// printResult renders the run summary as a table
func printResult(result *scraper.Result) {
	if result == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Outcome", "Count"})
	t.AppendRows([]table.Row{
		{"Pages visited", result.PagesVisited},
		{"Posts found", result.PostsFound},
		{"Downloaded", result.Downloaded},
		{"Already present", result.AlreadyPresent},
		{"No image", result.NoImage},
		{"Skipped (no date)", result.Skipped},
		{"Failed", result.Failed},
	})
	t.AppendFooter(table.Row{"Duration", result.Duration.Round(time.Millisecond)})
	t.Render()

	if len(result.DownloadsByBucket) > 0 {
		buckets := make([]string, 0, len(result.DownloadsByBucket))
		for b := range result.DownloadsByBucket {
			buckets = append(buckets, b)
		}
		sort.Strings(buckets)

		bt := table.NewWriter()
		bt.SetOutputMirror(os.Stdout)
		bt.SetStyle(table.StyleLight)
		bt.AppendHeader(table.Row{"Bucket", "New images"})
		for _, b := range buckets {
			name := b
			if name == "" {
				name = "(flat)"
			}
			bt.AppendRow(table.Row{name, result.DownloadsByBucket[b]})
		}
		bt.Render()
	}
}
