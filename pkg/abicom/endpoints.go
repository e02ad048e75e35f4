package abicom

import (
	"fmt"
	"strings"

	"abicomscraper/pkg/urlutil"
)

// listingPathPatterns mark URLs that are category/archive pages rather
// than individual posts
var listingPathPatterns = []string{
	"/categoria/",
	"/category/",
	"/tag/",
	"/author/",
	"/page/",
}

// defaultHeaders returns the browser-like headers sent with every request
func defaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		"Accept-Encoding": "gzip, deflate",
		"Connection":      "keep-alive",
	}
}

// BuildPageURL returns the listing URL for the given page number. Page 1
// is the category URL itself; later pages use WordPress /page/N/ paths.
func BuildPageURL(baseURL string, page int) string {
	if page <= 1 {
		return baseURL
	}
	return urlutil.JoinPath(baseURL, fmt.Sprintf("page/%d/", page))
}

// IsListingURL reports whether a URL points at a listing/archive page
// instead of an individual post
func IsListingURL(url string) bool {
	lower := strings.ToLower(url)
	for _, pattern := range listingPathPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
