package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://abicom.com.br/categoria/ppi/", cfg.Site.BaseURL)
	assert.Equal(t, 3, cfg.HTTP.RetryCount)
	assert.Equal(t, 2*time.Second, cfg.HTTP.RetryDelay)
	assert.Equal(t, 4, cfg.Scrape.MaxPages)
	assert.True(t, cfg.Output.OrganizeByMonth)
	assert.Equal(t, DatePolicySkip, cfg.Output.DatePolicy)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ABICOM_OUTPUT_DIR", "/tmp/ppi")
	t.Setenv("ABICOM_MAX_PAGES", "9")
	t.Setenv("ABICOM_ORGANIZE_BY_MONTH", "false")
	t.Setenv("ABICOM_DATE_POLICY", "today")
	t.Setenv("ABICOM_REQUESTS_PER_MINUTE", "30")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/tmp/ppi", cfg.Output.BaseDirectory)
	assert.Equal(t, 9, cfg.Scrape.MaxPages)
	assert.False(t, cfg.Output.OrganizeByMonth)
	assert.Equal(t, DatePolicyToday, cfg.Output.DatePolicy)
	assert.Equal(t, 30, cfg.Scrape.RequestsPerMinute)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
site:
  base_url: https://example.com/categoria/ppi/
scrape:
  max_pages: 7
output:
  base_directory: /srv/images
  date_policy: today
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://example.com/categoria/ppi/", cfg.Site.BaseURL)
	assert.Equal(t, 7, cfg.Scrape.MaxPages)
	assert.Equal(t, "/srv/images", cfg.Output.BaseDirectory)
	assert.Equal(t, DatePolicyToday, cfg.Output.DatePolicy)
	// Untouched values keep their defaults.
	assert.Equal(t, 3, cfg.HTTP.RetryCount)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.Site.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.Site.BaseURL = "abicom.com.br/ppi" }},
		{"zero retry count", func(c *Config) { c.HTTP.RetryCount = 0 }},
		{"zero max pages", func(c *Config) { c.Scrape.MaxPages = 0 }},
		{"empty output dir", func(c *Config) { c.Output.BaseDirectory = "" }},
		{"unknown date policy", func(c *Config) { c.Output.DatePolicy = "guess" }},
		{"negative request budget", func(c *Config) { c.Scrape.RequestsPerMinute = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ABICOM_MAX_PAGES", "9")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"max-pages": 2,
		"flat":      true,
	})

	assert.Equal(t, 2, cfg.Scrape.MaxPages)
	assert.False(t, cfg.Output.OrganizeByMonth)
}
