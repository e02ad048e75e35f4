package scraper

import (
	"context"
	"fmt"
	"time"

	"abicomscraper/pkg/abicom"
	"abicomscraper/pkg/config"
	"abicomscraper/pkg/logger"
	"abicomscraper/pkg/models"
	"abicomscraper/pkg/ratelimit"
	"abicomscraper/pkg/retry"
	"abicomscraper/pkg/storage"
)

// Scraper orchestrates the listing walk and image collection
type Scraper struct {
	pageClient     *abicom.Client
	downloadClient *abicom.Client
	storageManager *storage.Manager
	requestPacer   ratelimit.Limiter
	pagePacer      ratelimit.Limiter
	config         *config.Config
	logger         logger.Logger
	visited        map[string]bool
}

// Result summarizes a collection run. Every discovered post lands in
// exactly one of the outcome counters.
type Result struct {
	PagesVisited      int
	PostsFound        int
	Downloaded        int
	AlreadyPresent    int
	NoImage           int
	Skipped           int
	Failed            int
	DownloadsByBucket map[string]int
	Duration          time.Duration
}

// New creates a Scraper from the given configuration. Listing and post
// pages use the request timeout; image transfers get the longer download
// timeout on a separate client.
func New(cfg *config.Config) (*Scraper, error) {
	log := logger.GetLogger()

	retryCfg := &retry.Config{
		MaxAttempts: cfg.HTTP.RetryCount,
		Backoff:     retry.NewLinearBackoff(cfg.HTTP.RetryDelay),
		RetryIf:     retry.DefaultRetryIf,
		Context:     context.Background(),
		Logger:      log,
	}

	pageClient := abicom.NewClientWithConfig(cfg.HTTP.RequestTimeout, retryCfg, log)
	downloadClient := abicom.NewClientWithConfig(cfg.HTTP.DownloadTimeout, retryCfg, log)
	if cfg.Site.UserAgent != "" {
		pageClient.SetHeader("User-Agent", cfg.Site.UserAgent)
		downloadClient.SetHeader("User-Agent", cfg.Site.UserAgent)
	}

	storageManager, err := storage.NewManager(
		cfg.Output.BaseDirectory,
		cfg.Output.OrganizeByMonth,
		cfg.Output.DatePolicy,
		downloadClient,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	return &Scraper{
		pageClient:     pageClient,
		downloadClient: downloadClient,
		storageManager: storageManager,
		requestPacer:   newRequestPacer(&cfg.Scrape),
		pagePacer:      ratelimit.NewFixedInterval(cfg.Scrape.SleepBetweenPages),
		config:         cfg,
		logger:         log,
		visited:        make(map[string]bool),
	}, nil
}

// newRequestPacer picks the pacing strategy for post and image requests:
// a per-minute token budget when one is configured, otherwise a fixed
// gap between requests
func newRequestPacer(cfg *config.ScrapeConfig) ratelimit.Limiter {
	if cfg.RequestsPerMinute > 0 {
		return ratelimit.NewTokenBucket(cfg.RequestsPerMinute, time.Minute)
	}
	return ratelimit.NewFixedInterval(cfg.SleepBetweenRequests)
}

// Storage exposes the underlying storage manager
func (s *Scraper) Storage() *storage.Manager {
	return s.storageManager
}

// Run walks the configured page range and collects one image per dated
// post. It stops early when a listing page yields no post links or the
// context is cancelled; in both cases everything already placed stays
// on disk and the partial result is returned.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{DownloadsByBucket: make(map[string]int)}

	startPage := s.config.Scrape.StartPage
	lastPage := startPage + s.config.Scrape.MaxPages - 1

	s.logger.InfoWithFields("starting collection run", map[string]interface{}{
		"base_url":   s.config.Site.BaseURL,
		"start_page": startPage,
		"max_pages":  s.config.Scrape.MaxPages,
	})

	for page := startPage; page <= lastPage; page++ {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("run cancelled, keeping partial results")
			result.Duration = time.Since(start)
			return result, err
		}

		if page > startPage {
			s.pagePacer.Wait()
		}

		pageURL := abicom.BuildPageURL(s.config.Site.BaseURL, page)
		doc, err := s.pageClient.GetDocument(ctx, pageURL)
		if err != nil {
			// A lost listing page costs its posts, not the run.
			result.Failed++
			s.logger.WithError(err).WithField("page_url", pageURL).Error("failed to fetch listing page")
			continue
		}
		result.PagesVisited++

		links := abicom.ExtractPostLinks(doc, pageURL)
		if len(links) == 0 {
			s.logger.InfoWithFields("listing page has no posts, stopping", map[string]interface{}{
				"page": page,
			})
			break
		}

		downloadedBefore := result.Downloaded
		if err := s.processPage(ctx, links, result); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		logger.LogPage(page, pageURL, len(links), result.Downloaded-downloadedBefore)
	}

	result.Duration = time.Since(start)

	s.logger.InfoWithFields("collection run finished", map[string]interface{}{
		"pages_visited":   result.PagesVisited,
		"posts_found":     result.PostsFound,
		"downloaded":      result.Downloaded,
		"already_present": result.AlreadyPresent,
		"no_image":        result.NoImage,
		"skipped":         result.Skipped,
		"failed":          result.Failed,
		"duration":        result.Duration.String(),
	})

	return result, nil
}

// processPage walks the post links from one listing page
func (s *Scraper) processPage(ctx context.Context, links []string, result *Result) error {
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("run cancelled, keeping partial results")
			return err
		}

		if s.visited[link] {
			continue
		}
		s.visited[link] = true

		// A listing URL that slipped through link extraction is never a
		// post; drop it without a fetch.
		if abicom.IsListingURL(link) {
			continue
		}
		result.PostsFound++

		// The post URL alone often decides the outcome: a dated post
		// whose image is already placed needs no fetch at all.
		if key, ok := models.ParseDateKey(link); ok {
			if s.storageManager.IsDatePresent(key) {
				result.AlreadyPresent++
				s.logger.DebugWithFields("post already collected", map[string]interface{}{
					"post_url": link,
					"bucket":   key.Bucket(),
				})
				continue
			}
		} else if s.config.Output.DatePolicy == config.DatePolicySkip {
			result.Skipped++
			s.logger.DebugWithFields("post has no date, skipping", map[string]interface{}{
				"post_url": link,
			})
			continue
		}

		s.requestPacer.Wait()
		s.processPost(ctx, link, result)
	}

	return nil
}

// processPost fetches one post, extracts its first content image, and
// places it through the storage manager
func (s *Scraper) processPost(ctx context.Context, postURL string, result *Result) {
	doc, err := s.pageClient.GetDocument(ctx, postURL)
	if err != nil {
		result.Failed++
		s.logger.WithError(err).WithField("post_url", postURL).Error("failed to fetch post")
		return
	}

	img, ok := abicom.ExtractFirstImage(doc, postURL)
	if !ok {
		result.NoImage++
		s.logger.DebugWithFields("post has no qualifying image", map[string]interface{}{
			"post_url": postURL,
		})
		return
	}

	bucket, _, ok := s.storageManager.ResolveDestination(img)
	if !ok {
		result.Skipped++
		return
	}

	downloaded, err := s.storageManager.Acquire(ctx, img)
	if err != nil {
		result.Failed++
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"post_url":  postURL,
			"image_url": img.URL,
		}).Error("failed to download image")
		return
	}

	if downloaded {
		result.Downloaded++
		result.DownloadsByBucket[bucket]++
	} else {
		result.AlreadyPresent++
	}
}
