package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Date policy values accepted by Output.DatePolicy.
const (
	DatePolicySkip  = "skip"
	DatePolicyToday = "today"
)

// Config holds all configuration options for the Abicom scraper
type Config struct {
	// Target site settings
	Site SiteConfig `yaml:"site" json:"site"`

	// HTTP client settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Scrape loop settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig holds settings for the target site
type SiteConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RetryCount      int           `yaml:"retry_count" json:"retry_count"`
	RetryDelay      time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// ScrapeConfig holds pagination and pacing configuration
type ScrapeConfig struct {
	StartPage            int           `yaml:"start_page" json:"start_page"`
	MaxPages             int           `yaml:"max_pages" json:"max_pages"`
	SleepBetweenRequests time.Duration `yaml:"sleep_between_requests" json:"sleep_between_requests"`
	SleepBetweenPages    time.Duration `yaml:"sleep_between_pages" json:"sleep_between_pages"`
	// RequestsPerMinute caps post and image requests with a per-minute
	// budget instead of a fixed gap. Zero keeps the fixed-gap pacing.
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory   string `yaml:"base_directory" json:"base_directory"`
	OrganizeByMonth bool   `yaml:"organize_by_month" json:"organize_by_month"`
	// DatePolicy controls what happens to a post whose URL carries no
	// ppi-DD-MM-YYYY date: "skip" drops it, "today" files it under the
	// current date.
	DatePolicy string `yaml:"date_policy" json:"date_policy"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:   "https://abicom.com.br/categoria/ppi/",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
		HTTP: HTTPConfig{
			RequestTimeout:  30 * time.Second,
			DownloadTimeout: 60 * time.Second,
			RetryCount:      3,
			RetryDelay:      2 * time.Second,
		},
		Scrape: ScrapeConfig{
			StartPage:            1,
			MaxPages:             4,
			SleepBetweenRequests: 1 * time.Second,
			SleepBetweenPages:    2 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory:   filepath.Join("data", "images"),
			OrganizeByMonth: true,
			DatePolicy:      DatePolicySkip,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("ABICOM_BASE_URL"); baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if userAgent := os.Getenv("ABICOM_USER_AGENT"); userAgent != "" {
		c.Site.UserAgent = userAgent
	}

	if retries := os.Getenv("ABICOM_RETRY_COUNT"); retries != "" {
		var val int
		fmt.Sscanf(retries, "%d", &val)
		if val > 0 {
			c.HTTP.RetryCount = val
		}
	}

	if maxPages := os.Getenv("ABICOM_MAX_PAGES"); maxPages != "" {
		var val int
		fmt.Sscanf(maxPages, "%d", &val)
		if val > 0 {
			c.Scrape.MaxPages = val
		}
	}

	if rpm := os.Getenv("ABICOM_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Scrape.RequestsPerMinute = val
		}
	}

	if outputDir := os.Getenv("ABICOM_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if organize := os.Getenv("ABICOM_ORGANIZE_BY_MONTH"); organize != "" {
		c.Output.OrganizeByMonth = strings.ToLower(organize) == "true"
	}

	if policy := os.Getenv("ABICOM_DATE_POLICY"); policy != "" {
		c.Output.DatePolicy = strings.ToLower(policy)
	}

	if logLevel := os.Getenv("ABICOM_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".abicomscraper.yaml",
		".abicomscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "abicomscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "abicomscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".abicomscraper.yaml"),
		filepath.Join(os.Getenv("HOME"), ".abicomscraper.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	} else if !strings.HasPrefix(c.Site.BaseURL, "http://") && !strings.HasPrefix(c.Site.BaseURL, "https://") {
		errs = append(errs, errors.New("site base URL must be absolute"))
	}

	if c.HTTP.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.HTTP.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.HTTP.RetryCount <= 0 {
		errs = append(errs, errors.New("retry count must be positive"))
	}
	if c.HTTP.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}

	if c.Scrape.StartPage <= 0 {
		errs = append(errs, errors.New("start page must be positive"))
	}
	if c.Scrape.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.Scrape.SleepBetweenRequests < 0 {
		errs = append(errs, errors.New("sleep between requests cannot be negative"))
	}
	if c.Scrape.SleepBetweenPages < 0 {
		errs = append(errs, errors.New("sleep between pages cannot be negative"))
	}
	if c.Scrape.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	switch strings.ToLower(c.Output.DatePolicy) {
	case DatePolicySkip, DatePolicyToday:
	default:
		errs = append(errs, errors.New(`date policy must be "skip" or "today"`))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if startPage, ok := flags["start-page"].(int); ok && startPage > 0 {
		c.Scrape.StartPage = startPage
	}
	if maxPages, ok := flags["max-pages"].(int); ok && maxPages > 0 {
		c.Scrape.MaxPages = maxPages
	}
	if retries, ok := flags["retry-count"].(int); ok && retries > 0 {
		c.HTTP.RetryCount = retries
	}
	if flat, ok := flags["flat"].(bool); ok && flat {
		c.Output.OrganizeByMonth = false
	}
	if policy, ok := flags["date-policy"].(string); ok && policy != "" {
		c.Output.DatePolicy = policy
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".abicomscraper.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
