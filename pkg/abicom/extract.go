package abicom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"abicomscraper/pkg/models"
	"abicomscraper/pkg/urlutil"
)

// imageExtensions are the only extensions the site uses for price tables
var imageExtensions = []string{".jpg", ".jpeg"}

// uiImageKeywords mark images that are page furniture, not content
var uiImageKeywords = []string{
	"icon", "logo", "avatar", "banner", "header",
	"footer", "sidebar", "thumbnail", "placeholder",
}

// contentSelectors are tried in order to find the post body. The whole
// document is the fallback when none match.
var contentSelectors = []string{
	"div.entry-content",
	"div.post-content",
	"div.content",
	"div.article-content",
	"article",
}

// imageAttributes are checked in order on each img tag; lazy-loading
// plugins move the real URL into data attributes
var imageAttributes = []string{"src", "data-src", "data-lazy-src"}

// ExtractPostLinks pulls individual post URLs out of a listing page.
// Three strategies are tried in order, stopping at the first that yields
// anything: links whose path matches the PPI post shape, links inside
// post-title markup, and finally any same-site link deeper than the
// listing itself. Order on the page is preserved and duplicates dropped.
func ExtractPostLinks(doc *goquery.Document, pageURL string) []string {
	if links := collectLinks(doc, "a[href]", pageURL, func(href string) bool {
		return strings.Contains(href, "/ppi/ppi-") && !IsListingURL(href)
	}); len(links) > 0 {
		return links
	}

	if links := collectLinks(doc, ".entry-title a, .post-title a", pageURL, func(href string) bool {
		return !IsListingURL(href)
	}); len(links) > 0 {
		return links
	}

	domain := urlutil.Domain(pageURL)
	return collectLinks(doc, "a[href]", pageURL, func(href string) bool {
		return urlutil.Domain(href) == domain &&
			len(href) > len(pageURL) &&
			!IsListingURL(href)
	})
}

// collectLinks gathers hrefs matching the selector and predicate,
// normalized against pageURL, preserving order and dropping duplicates
func collectLinks(doc *goquery.Document, selector, pageURL string, keep func(string) bool) []string {
	var links []string
	seen := make(map[string]bool)

	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}

		href = urlutil.Normalize(href, pageURL)
		if seen[href] || !keep(href) {
			return
		}

		seen[href] = true
		links = append(links, href)
	})

	return links
}

// ExtractFirstImage finds the first content image on a post page. The
// first content selector that matches fixes the scope: only img tags
// inside that container are considered, so furniture elsewhere on the
// page can never stand in for the post's image. The whole document is
// scanned only when no selector matches at all. Only jpg/jpeg images
// count, and anything whose URL suggests page furniture (logos,
// banners, icons) is passed over. Returns false when the post has no
// qualifying image.
func ExtractFirstImage(doc *goquery.Document, postURL string) (*models.Image, bool) {
	scope := doc.Selection
	for _, selector := range contentSelectors {
		if content := doc.Find(selector).First(); content.Length() > 0 {
			scope = content
			break
		}
	}

	return firstQualifyingImage(scope, postURL)
}

// firstQualifyingImage scans img tags within sel and returns the first
// whose URL passes the extension and keyword filters
func firstQualifyingImage(sel *goquery.Selection, postURL string) (*models.Image, bool) {
	var found *models.Image

	sel.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := imageSource(img)
		if src == "" {
			return true
		}

		src = urlutil.Normalize(src, postURL)
		if !urlutil.HasImageExtension(src, imageExtensions) {
			return true
		}
		if isUIImage(src) {
			return true
		}

		found = models.NewImage(src, postURL, urlutil.Extension(src))
		return false
	})

	return found, found != nil
}

// imageSource returns the first populated image attribute
func imageSource(img *goquery.Selection) string {
	for _, attr := range imageAttributes {
		if src, ok := img.Attr(attr); ok && strings.TrimSpace(src) != "" {
			return src
		}
	}
	return ""
}

// isUIImage reports whether the URL looks like page furniture
func isUIImage(url string) bool {
	lower := strings.ToLower(url)
	for _, keyword := range uiImageKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
