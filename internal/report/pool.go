package report

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"abicomscraper/pkg/logger"
	"abicomscraper/pkg/models"
)

// statJob identifies one candidate image file to inspect
type statJob struct {
	Path     string
	Bucket   string
	Filename string
	Date     models.DateKey
}

// statResult carries the inspected entry or the inspection error
type statResult struct {
	Entry Entry
	Err   error
}

// workerPool fans file inspection out over a fixed set of workers
type workerPool struct {
	numWorkers  int
	jobQueue    chan statJob
	resultQueue chan statResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      logger.Logger
}

func newWorkerPool(numWorkers int, log logger.Logger) *workerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &workerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan statJob, numWorkers*2),
		resultQueue: make(chan statResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		logger:      log,
	}
}

// start launches the workers
func (wp *workerPool) start() {
	wp.logger.DebugWithFields("starting inventory workers", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// stop signals that no more jobs are coming and waits for the workers to
// drain the queue before closing the result channel
func (wp *workerPool) stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// submit queues one file for inspection
func (wp *workerPool) submit(job statJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("inventory pool is shutting down")
	}
}

// results returns the channel inspection results arrive on
func (wp *workerPool) results() <-chan statResult {
	return wp.resultQueue
}

func (wp *workerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob stats one file and builds its inventory entry
func (wp *workerPool) processJob(job statJob) statResult {
	info, err := os.Stat(job.Path)
	if err != nil {
		return statResult{Err: fmt.Errorf("stat %s: %w", job.Path, err)}
	}

	entry := Entry{
		Path:     job.Path,
		Bucket:   job.Bucket,
		Filename: job.Filename,
		Date:     job.Date,
		Size:     info.Size(),
		ModTime:  info.ModTime().Truncate(time.Second),
	}

	// A file filed under the wrong month is worth flagging.
	if job.Bucket != "" && job.Date.Bucket() != job.Bucket {
		entry.Misfiled = true
	}

	return statResult{Entry: entry}
}
