// Package abicom talks to the Abicom site: it fetches listing and post
// pages, parses them, and extracts post links and price-table images.
package abicom

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"abicomscraper/pkg/errors"
	"abicomscraper/pkg/logger"
	"abicomscraper/pkg/retry"
)

// Client wraps an HTTP client with the headers, timeouts, and retry
// behavior the site expects
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	logger      logger.Logger
	retryConfig *retry.Config
}

// NewClient creates a client with default timeout and retry configuration
func NewClient(log logger.Logger) *Client {
	return NewClientWithConfig(30*time.Second, retry.DefaultConfig(), log)
}

// NewClientWithConfig creates a client with explicit timeout and retry
// configuration
func NewClientWithConfig(timeout time.Duration, retryConfig *retry.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if retryConfig == nil {
		retryConfig = retry.DefaultConfig()
	}
	retryConfig.Logger = log

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers:     defaultHeaders(),
		logger:      log,
		retryConfig: retryConfig,
	}
}

// SetHeader sets a custom header for all requests
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs a single HTTP GET, mapping failures to typed errors
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.LogRequest(http.MethodGet, url, 0, time.Since(start).Milliseconds())
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "request failed: %v", err)
	}

	logger.LogRequest(http.MethodGet, url, resp.StatusCode, time.Since(start).Milliseconds())

	if err := checkResponseStatus(resp.StatusCode, url); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

// Get performs an HTTP GET with retry and returns the response body
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	cfg := c.retryConfigFor(ctx)

	return retry.DoWithResult(func() ([]byte, error) {
		resp, err := c.doRequest(ctx, url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.New(errors.ErrorTypeNetwork, 0, "failed to read response body: %v", err)
		}
		return body, nil
	}, cfg)
}

// GetDocument fetches a page and parses it as HTML
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.New(errors.ErrorTypeParsing, 0, "failed to parse HTML from %s: %v", url, err)
	}

	return doc, nil
}

// DownloadFile streams a URL to destPath. The download is written to a
// temporary file first and renamed into place so a partial transfer never
// leaves a plausible-looking file on disk. Network fetches retry; the
// filesystem write does not.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string) error {
	cfg := c.retryConfigFor(ctx)

	return retry.Do(func() error {
		resp, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		dir := filepath.Dir(destPath)
		tmpFile, err := os.CreateTemp(dir, ".download-*.tmp")
		if err != nil {
			return errors.New(errors.ErrorTypeFilesystem, 0, "failed to create temp file in %s: %v", dir, err)
		}
		tmpPath := tmpFile.Name()

		if _, err := io.Copy(tmpFile, resp.Body); err != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
			return errors.New(errors.ErrorTypeFilesystem, 0, "failed to write download: %v", err)
		}

		if err := tmpFile.Close(); err != nil {
			os.Remove(tmpPath)
			return errors.New(errors.ErrorTypeFilesystem, 0, "failed to close temp file: %v", err)
		}

		if err := os.Rename(tmpPath, destPath); err != nil {
			os.Remove(tmpPath)
			return errors.New(errors.ErrorTypeFilesystem, 0, "failed to move download into place: %v", err)
		}

		return nil
	}, cfg)
}

// retryConfigFor returns a copy of the client's retry config bound to ctx
func (c *Client) retryConfigFor(ctx context.Context) *retry.Config {
	cfg := *c.retryConfig
	cfg.Context = ctx
	return &cfg
}

// checkResponseStatus maps HTTP status codes to typed errors
func checkResponseStatus(statusCode int, url string) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound:
		return errors.New(errors.ErrorTypeNotFound, statusCode, "page not found: %s", url)
	case statusCode == http.StatusTooManyRequests:
		return errors.New(errors.ErrorTypeRateLimit, statusCode, "rate limited by server")
	case statusCode >= 500:
		return errors.New(errors.ErrorTypeServerError, statusCode, "server error fetching %s", url)
	default:
		return errors.New(errors.ErrorTypeUnknown, statusCode, "unexpected status %d fetching %s", statusCode, url)
	}
}
