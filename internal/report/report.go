// Package report inventories the image tree produced by collection runs:
// which dates are covered, how the monthly buckets are filled, and
// whether any file sits in the wrong bucket.
package report

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"abicomscraper/pkg/errors"
	"abicomscraper/pkg/logger"
	"abicomscraper/pkg/models"
)

// imageFilePattern matches placed image files, ppi-DD-MM-YYYY.jpg/.jpeg
var imageFilePattern = regexp.MustCompile(`^ppi-(\d{2})-(\d{2})-(\d{4})\.(jpg|jpeg)$`)

// bucketDirPattern matches monthly bucket directories, MM-YYYY
var bucketDirPattern = regexp.MustCompile(`^\d{2}-\d{4}$`)

// Entry is one placed image file
type Entry struct {
	Path     string
	Bucket   string
	Filename string
	Date     models.DateKey
	Size     int64
	ModTime  time.Time
	Misfiled bool
}

// BucketSummary aggregates one monthly bucket
type BucketSummary struct {
	Bucket    string
	Files     int
	TotalSize int64
	Misfiled  int
}

// Inventory is the full scan result, entries sorted by bucket then name
type Inventory struct {
	Entries   []Entry
	Buckets   []BucketSummary
	TotalSize int64
	Misfiled  int
}

// Scan walks the output tree and inventories every placed image, using
// numWorkers concurrent inspectors
func Scan(baseDir string, numWorkers int, log logger.Logger) (*Inventory, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	jobs, err := collectJobs(baseDir)
	if err != nil {
		return nil, err
	}

	pool := newWorkerPool(numWorkers, log)
	pool.start()

	inv := &Inventory{}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.results() {
			if result.Err != nil {
				log.WithError(result.Err).Warn("failed to inspect file")
				continue
			}
			inv.Entries = append(inv.Entries, result.Entry)
		}
	}()

	for _, job := range jobs {
		if err := pool.submit(job); err != nil {
			break
		}
	}
	pool.stop()
	wg.Wait()

	inv.finalize()

	log.InfoWithFields("inventory scan complete", map[string]interface{}{
		"base_dir": baseDir,
		"files":    len(inv.Entries),
		"buckets":  len(inv.Buckets),
		"misfiled": inv.Misfiled,
	})

	return inv, nil
}

// collectJobs finds every file matching the placed-image naming scheme,
// both inside monthly bucket directories and directly in the base
// directory for flat layouts
func collectJobs(baseDir string) ([]statJob, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeFilesystem, 0, "failed to read %s: %v", baseDir, err)
	}

	var jobs []statJob
	for _, entry := range entries {
		if entry.IsDir() {
			if !bucketDirPattern.MatchString(entry.Name()) {
				continue
			}
			bucketJobs, err := collectBucketJobs(baseDir, entry.Name())
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, bucketJobs...)
			continue
		}

		if job, ok := jobFor(filepath.Join(baseDir, entry.Name()), "", entry.Name()); ok {
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

func collectBucketJobs(baseDir, bucket string) ([]statJob, error) {
	dir := filepath.Join(baseDir, bucket)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeFilesystem, 0, "failed to read bucket %s: %v", bucket, err)
	}

	var jobs []statJob
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if job, ok := jobFor(filepath.Join(dir, f.Name()), bucket, f.Name()); ok {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// jobFor builds a stat job when the filename matches the naming scheme
func jobFor(path, bucket, filename string) (statJob, bool) {
	m := imageFilePattern.FindStringSubmatch(filename)
	if m == nil {
		return statJob{}, false
	}

	return statJob{
		Path:     path,
		Bucket:   bucket,
		Filename: filename,
		Date:     models.DateKey{Day: m[1], Month: m[2], Year: m[3]},
	}, true
}

// finalize sorts the entries and computes the per-bucket summaries
func (inv *Inventory) finalize() {
	sort.Slice(inv.Entries, func(i, j int) bool {
		if inv.Entries[i].Bucket != inv.Entries[j].Bucket {
			return inv.Entries[i].Bucket < inv.Entries[j].Bucket
		}
		return inv.Entries[i].Filename < inv.Entries[j].Filename
	})

	summaries := make(map[string]*BucketSummary)
	for _, e := range inv.Entries {
		inv.TotalSize += e.Size
		if e.Misfiled {
			inv.Misfiled++
		}

		s := summaries[e.Bucket]
		if s == nil {
			s = &BucketSummary{Bucket: e.Bucket}
			summaries[e.Bucket] = s
		}
		s.Files++
		s.TotalSize += e.Size
		if e.Misfiled {
			s.Misfiled++
		}
	}

	for _, s := range summaries {
		inv.Buckets = append(inv.Buckets, *s)
	}
	sort.Slice(inv.Buckets, func(i, j int) bool {
		return inv.Buckets[i].Bucket < inv.Buckets[j].Bucket
	})
}
