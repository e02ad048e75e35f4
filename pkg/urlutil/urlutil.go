// Package urlutil contains small helpers for the URL shapes the scraper
// deals with: relative image references, paginated listing URLs, and
// extension-based filtering.
package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// IsValidURL reports whether s is an absolute URL with scheme and host
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// Normalize resolves a possibly relative URL against base and ensures a
// scheme is present. Whitespace is trimmed first; lazy-loaded image
// references frequently carry it.
func Normalize(raw, base string) string {
	raw = strings.TrimSpace(raw)

	if base != "" && !IsValidURL(raw) {
		baseURL, err := url.Parse(base)
		if err == nil {
			ref, err := url.Parse(raw)
			if err == nil {
				return baseURL.ResolveReference(ref).String()
			}
		}
	}

	if !strings.Contains(raw, "://") {
		return "https://" + raw
	}

	return raw
}

// Extension returns the lowercased file extension of a URL's path,
// including the dot, ignoring any query string
func Extension(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(path.Ext(raw))
	}
	return strings.ToLower(path.Ext(u.Path))
}

// HasImageExtension reports whether the URL's extension is one of the
// allowed image extensions
func HasImageExtension(raw string, allowed []string) bool {
	ext := Extension(raw)
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// JoinPath joins a base URL with a path segment, normalizing slashes
func JoinPath(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

// Domain returns the host portion of a URL, or "" when unparseable
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// WithoutQuery strips the query string and fragment from a URL
func WithoutQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
