// Package storage decides where each discovered image belongs on disk,
// remembers what is already there, and performs the download through the
// injected client. One image per post date is the invariant: the monthly
// index is consulted before any network transfer.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"abicomscraper/pkg/config"
	"abicomscraper/pkg/errors"
	"abicomscraper/pkg/logger"
	"abicomscraper/pkg/models"
)

// bucketDirPattern matches monthly bucket directory names, MM-YYYY
var bucketDirPattern = regexp.MustCompile(`^\d{2}-\d{4}$`)

// Downloader fetches a URL to a local path
type Downloader interface {
	DownloadFile(ctx context.Context, url, destPath string) error
}

// Manager owns the output tree. All placement decisions and index
// mutations go through it.
type Manager struct {
	baseDir         string
	organizeByMonth bool
	datePolicy      string
	downloader      Downloader
	logger          logger.Logger

	mu    sync.RWMutex
	index map[string]map[string]bool // bucket -> filename set; "" is the flat bucket
}

// NewManager creates a manager rooted at baseDir and scans the existing
// tree into the index, so reruns see previous downloads immediately
func NewManager(baseDir string, organizeByMonth bool, datePolicy string, d Downloader, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errors.New(errors.ErrorTypeFilesystem, 0, "failed to create output directory %s: %v", baseDir, err)
	}

	m := &Manager{
		baseDir:         baseDir,
		organizeByMonth: organizeByMonth,
		datePolicy:      datePolicy,
		downloader:      d,
		logger:          log,
		index:           make(map[string]map[string]bool),
	}

	if err := m.scanExisting(); err != nil {
		return nil, err
	}

	log.InfoWithFields("storage initialized", map[string]interface{}{
		"base_dir":  baseDir,
		"organized": organizeByMonth,
		"indexed":   m.TotalIndexed(),
	})

	return m, nil
}

// scanExisting walks the output tree and records every file already
// present. In organized mode only MM-YYYY directories are considered.
func (m *Manager) scanExisting() error {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return errors.New(errors.ErrorTypeFilesystem, 0, "failed to scan output directory: %v", err)
	}

	for _, entry := range entries {
		if m.organizeByMonth {
			if !entry.IsDir() || !bucketDirPattern.MatchString(entry.Name()) {
				continue
			}
			files, err := os.ReadDir(filepath.Join(m.baseDir, entry.Name()))
			if err != nil {
				m.logger.WarnWithFields("failed to scan bucket directory", map[string]interface{}{
					"bucket": entry.Name(),
					"error":  err.Error(),
				})
				continue
			}
			for _, f := range files {
				if !f.IsDir() {
					m.markPresent(entry.Name(), f.Name())
				}
			}
		} else if !entry.IsDir() {
			m.markPresent("", entry.Name())
		}
	}

	return nil
}

// ResolveDestination determines the bucket and filename for an image.
// Images from dated posts get the canonical ppi-DD-MM-YYYY name; undated
// posts are skipped or named from their URL slug under today's bucket,
// depending on the configured policy. ok is false when the image should
// not be placed at all.
func (m *Manager) ResolveDestination(img *models.Image) (bucket, filename string, ok bool) {
	key, found := models.ParseDateKey(img.SourceURL)
	if !found {
		key, found = models.ParseDateKey(img.URL)
	}

	if found {
		return m.bucketFor(key), key.Filename(img.Extension), true
	}

	if m.datePolicy == config.DatePolicyToday {
		key = models.DateKeyFromTime(time.Now())
		return m.bucketFor(key), models.SlugFromURL(img.SourceURL) + img.Extension, true
	}

	return "", "", false
}

// bucketFor maps a date key to a bucket name, honoring flat mode
func (m *Manager) bucketFor(key models.DateKey) string {
	if !m.organizeByMonth {
		return ""
	}
	return key.Bucket()
}

// Path returns the absolute path for a bucket/filename pair
func (m *Manager) Path(bucket, filename string) string {
	if bucket == "" {
		return filepath.Join(m.baseDir, filename)
	}
	return filepath.Join(m.baseDir, bucket, filename)
}

// IsAlreadyPresent reports whether the file is in the index and still on
// disk. A stale index entry for a file removed out-of-band is dropped.
func (m *Manager) IsAlreadyPresent(bucket, filename string) bool {
	m.mu.RLock()
	indexed := m.index[bucket][filename]
	m.mu.RUnlock()

	if !indexed {
		return false
	}

	if _, err := os.Stat(m.Path(bucket, filename)); err != nil {
		m.mu.Lock()
		delete(m.index[bucket], filename)
		m.mu.Unlock()
		return false
	}

	return true
}

// IsDatePresent reports whether an image for the given post date is
// already placed under either jpg extension. Used to skip post fetches
// entirely when the outcome is known from the URL alone.
func (m *Manager) IsDatePresent(key models.DateKey) bool {
	bucket := m.bucketFor(key)
	return m.IsAlreadyPresent(bucket, key.Filename(".jpg")) ||
		m.IsAlreadyPresent(bucket, key.Filename(".jpeg"))
}

// Acquire downloads the image into its resolved place. It returns
// (false, nil) when the image is already present or the policy says to
// skip it, and (true, nil) after a successful download. The index is
// only updated once the file is safely on disk.
func (m *Manager) Acquire(ctx context.Context, img *models.Image) (bool, error) {
	bucket, filename, ok := m.ResolveDestination(img)
	if !ok {
		m.logger.DebugWithFields("image skipped by date policy", map[string]interface{}{
			"source_url": img.SourceURL,
		})
		return false, nil
	}

	if m.IsAlreadyPresent(bucket, filename) {
		m.logger.DebugWithFields("image already present", map[string]interface{}{
			"bucket":   bucket,
			"filename": filename,
		})
		return false, nil
	}

	destPath := m.Path(bucket, filename)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return false, errors.New(errors.ErrorTypeFilesystem, 0, "failed to create bucket directory: %v", err)
	}

	if err := m.downloader.DownloadFile(ctx, img.URL, destPath); err != nil {
		logger.LogDownload(bucket, filename, img.URL, false, err)
		return false, err
	}

	m.markPresent(bucket, filename)
	img.SavedPath = destPath
	logger.LogDownload(bucket, filename, img.URL, true, nil)

	return true, nil
}

// markPresent records a file in the index
func (m *Manager) markPresent(bucket, filename string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index[bucket] == nil {
		m.index[bucket] = make(map[string]bool)
	}
	m.index[bucket][filename] = true
}

// TotalIndexed returns the number of files known to the index
func (m *Manager) TotalIndexed() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, files := range m.index {
		total += len(files)
	}
	return total
}

// BucketCounts returns the number of indexed files per bucket
func (m *Manager) BucketCounts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int, len(m.index))
	for bucket, files := range m.index {
		counts[bucket] = len(files)
	}
	return counts
}

// String describes the manager for debug output
func (m *Manager) String() string {
	return fmt.Sprintf("storage.Manager(base=%s, organized=%t, indexed=%d)", m.baseDir, m.organizeByMonth, m.TotalIndexed())
}
