package logger

import (
	"os"
	"path/filepath"
	"testing"

	"abicomscraper/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "valid config with info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "valid config with debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "warning alias",
			cfg:     &config.LoggingConfig{Level: "warning"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithFieldsReturnsNewLogger(t *testing.T) {
	base, err := New(&config.LoggingConfig{Level: "info"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	derived := base.WithField("bucket", "03-2024")
	if derived == base {
		t.Error("WithField should return a new logger instance")
	}

	// The derived logger must not mutate the base logger's fields.
	derived2 := derived.WithField("filename", "ppi-05-03-2024.jpg")
	if derived2 == derived {
		t.Error("WithField should return a new logger instance")
	}
}

func TestInitializeReportsBadLogFile(t *testing.T) {
	// A regular file where the log directory should go makes file output
	// setup fail; callers must see that error instead of silently
	// falling back to the default logger.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "logs")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0644); err != nil {
		t.Fatalf("failed to create blocker file: %v", err)
	}

	err := Initialize(&config.LoggingConfig{
		Level: "info",
		File:  filepath.Join(blocker, "run.log"),
	})
	if err == nil {
		t.Error("Initialize should fail when the log file cannot be opened")
	}
}

func TestGetLoggerWithoutInitialize(t *testing.T) {
	globalLogger = nil
	if GetLogger() == nil {
		t.Error("GetLogger should create a default logger when uninitialized")
	}
}
