package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"abicomscraper/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Abicom Scraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (ABICOM_*)
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created as '.abicomscraper.yaml' in the current
directory unless a different path is given with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration that a run would use, merged from all
sources: flags, environment variables, config file, and defaults.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# Abicom Scraper Configuration File
#
# Environment variables prefixed with ABICOM_ override this file,
# e.g. ABICOM_OUTPUT_DIR, ABICOM_MAX_PAGES.

# Target site
site:
  # PPI category listing to walk
  base_url: "https://abicom.com.br/categoria/ppi/"

  # User agent sent with every request (optional)
  user_agent: ""

# HTTP client
http:
  # Timeout for listing and post pages
  request_timeout: 30s

  # Timeout for image transfers
  download_timeout: 60s

  # Maximum attempts per request
  retry_count: 3

  # Base delay between attempts (grows linearly)
  retry_delay: 2s

# Pagination and pacing
scrape:
  start_page: 1
  max_pages: 4

  # Courtesy pauses against the site
  sleep_between_requests: 1s
  sleep_between_pages: 2s

  # Per-minute request budget; 0 uses the fixed pauses above instead
  requests_per_minute: 0

# Output tree
output:
  base_directory: "data/images"

  # Place images in monthly MM-YYYY folders
  organize_by_month: true

  # Posts without a date in their URL: "skip" or "today"
  date_policy: "skip"

# Logging
logging:
  # debug, info, warn, error
  level: "info"

  # Log file path (optional, stdout only when empty)
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".abicomscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	fmt.Printf("Configuration file created: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust the options to taste")
	fmt.Println("2. Run 'abicomscraper config validate' to check the configuration")
	fmt.Println("3. Start collecting with 'abicomscraper scrape'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (ABICOM_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (auto-detected)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Println("Configuration is valid")
	fmt.Println("\nSummary:")
	fmt.Printf("  Base URL: %s\n", cfg.Site.BaseURL)
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Pages: %d starting at %d\n", cfg.Scrape.MaxPages, cfg.Scrape.StartPage)
	fmt.Printf("  Retries: %d\n", cfg.HTTP.RetryCount)
	fmt.Printf("  Date policy: %s\n", cfg.Output.DatePolicy)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
