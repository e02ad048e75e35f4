package abicom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abicomscraper/pkg/logger"
	"abicomscraper/pkg/retry"
)

func testClient(maxAttempts int) *Client {
	cfg := &retry.Config{
		MaxAttempts: maxAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retry.DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	}
	return NewClientWithConfig(5*time.Second, cfg, logger.NewNopLogger())
}

func TestGetSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	body, err := testClient(3).Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Contains(t, string(body), "ok")
}

func TestGetSendsConfiguredHeaders(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := testClient(3)
	client.SetHeader("User-Agent", "custom-agent/1.0")

	_, err := client.Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "custom-agent/1.0", gotUserAgent)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	body, err := testClient(5).Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "recovered", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestGetExhaustsRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(3).Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestGetDoesNotRetryNotFound(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(3).Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestGetDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="entry-content"><img src="/t.jpg"></div></body></html>`))
	}))
	defer server.Close()

	doc, err := testClient(3).GetDocument(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("img").Length())
}

func TestDownloadFile(t *testing.T) {
	content := []byte("jpeg-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "ppi-05-03-2024.jpg")
	err := testClient(3).DownloadFile(context.Background(), server.URL, dest)

	require.NoError(t, err)
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestDownloadFileWriteFailureIsNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		// Promise more bytes than are sent so the copy to disk fails
		// mid-transfer.
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("truncated"))
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "ppi-05-03-2024.jpg")
	err := testClient(3).DownloadFile(context.Background(), server.URL, dest)

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "a failed write gets a single attempt")

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestDownloadFileFailureLeavesNoFile(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "ppi-05-03-2024.jpg")
	err := testClient(3).DownloadFile(context.Background(), server.URL, dest)

	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no file or temp leftover should remain after a failed download")
}
