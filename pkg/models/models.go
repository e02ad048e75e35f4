package models

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// FilenamePrefix is the prefix carried by every placed image file.
const FilenamePrefix = "ppi"

// postDatePattern matches the date embedded in Abicom PPI post URLs,
// e.g. https://abicom.com.br/ppi/ppi-05-03-2024/.
var postDatePattern = regexp.MustCompile(`ppi-(\d{2})-(\d{2})-(\d{4})`)

// Image is a single image reference discovered inside a post. Identity is
// the remote URL; SavedPath is set by the placement service after a
// successful download.
type Image struct {
	URL       string
	SourceURL string
	Extension string
	FoundAt   time.Time
	SavedPath string
}

// NewImage creates an Image discovered on the given post page
func NewImage(url, sourceURL, extension string) *Image {
	return &Image{
		URL:       url,
		SourceURL: sourceURL,
		Extension: extension,
		FoundAt:   time.Now(),
	}
}

// IsSaved reports whether the image has been written to disk
func (i *Image) IsSaved() bool {
	return i.SavedPath != ""
}

func (i *Image) String() string {
	return fmt.Sprintf("Image(url=%s, source=%s)", i.URL, i.SourceURL)
}

// DateKey is the canonical date parsed from a post URL. Components keep
// their zero-padded string form so filenames round-trip exactly.
type DateKey struct {
	Day   string
	Month string
	Year  string
}

// ParseDateKey extracts the ppi-DD-MM-YYYY date from a URL. The second
// return value is false when the URL carries no date, which is a normal
// outcome handled by the placement policy.
func ParseDateKey(url string) (DateKey, bool) {
	m := postDatePattern.FindStringSubmatch(url)
	if m == nil {
		return DateKey{}, false
	}
	return DateKey{Day: m[1], Month: m[2], Year: m[3]}, true
}

// DateKeyFromTime builds a DateKey for the given time
func DateKeyFromTime(t time.Time) DateKey {
	return DateKey{
		Day:   t.Format("02"),
		Month: t.Format("01"),
		Year:  t.Format("2006"),
	}
}

// Bucket returns the monthly bucket directory name, MM-YYYY
func (k DateKey) Bucket() string {
	return fmt.Sprintf("%s-%s", k.Month, k.Year)
}

// Filename returns the canonical file name for this date, ppi-DD-MM-YYYY<ext>
func (k DateKey) Filename(ext string) string {
	return fmt.Sprintf("%s-%s-%s-%s%s", FilenamePrefix, k.Day, k.Month, k.Year, ext)
}

// slugExtensionPattern strips trailing page extensions from a path segment
var slugExtensionPattern = regexp.MustCompile(`\.(html|php|asp|jsp)$`)

// slugSkipSegments are path segments too generic to identify a post
var slugSkipSegments = map[string]bool{
	"www":       true,
	"ppi":       true,
	"categoria": true,
	"category":  true,
}

// SlugFromURL derives a short file-name stem from a post URL, used for
// posts whose URL carries no date. The last meaningful path segment is
// used, with page extensions stripped and length capped.
func SlugFromURL(postURL string) string {
	fallback := FilenamePrefix + "-post"

	parsed, err := url.Parse(postURL)
	if err != nil {
		return fallback
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")

	for i := len(segments) - 1; i >= 0; i-- {
		segment := strings.ToLower(segments[i])
		if segment == "" || slugSkipSegments[segment] {
			continue
		}

		segment = slugExtensionPattern.ReplaceAllString(segment, "")
		if len(segment) > 50 {
			segment = segment[:50]
		}
		if segment == "" {
			continue
		}

		if strings.HasPrefix(segment, FilenamePrefix+"-") {
			return segment
		}
		return FilenamePrefix + "-" + segment
	}

	return fallback
}
