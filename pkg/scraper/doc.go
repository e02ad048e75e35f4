// Package scraper orchestrates the collection run: paginating the PPI
// category listing, discovering post links, extracting the price-table
// image from each post, and handing placement to the storage manager.
//
// The run is sequential and polite by design. A fixed-interval pacer
// spaces post fetches, a second one spaces listing pages, and the run
// stops early when a listing page yields no post links.
//
// Usage:
//
//	cfg := config.DefaultConfig()
//	s, err := scraper.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := s.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("downloaded %d images\n", result.Downloaded)
//
// Idempotency:
//
// The storage manager scans the output tree at startup and keys every
// image by its post date, so rerunning the scraper downloads only what
// is missing. Interrupting a run keeps everything already placed.
package scraper
