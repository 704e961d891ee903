package crawler

import (
	"net/url"
	"strings"
)

// NormalizeURL rewrites a URL scraped out of HTML into an absolute URL,
// using the URL of the page it was found on as base:
//
//	//example.com/a -> https://example.com/a
//	/a              -> https://example.com/a
//	?page=2         -> https://example.com/article?page=2
//
// Anything else is returned unchanged.
func NormalizeURL(rawURL, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return rawURL
	}

	switch {
	case strings.HasPrefix(rawURL, "//"):
		return base.Scheme + ":" + rawURL
	case strings.HasPrefix(rawURL, "/"):
		return base.Scheme + "://" + base.Host + rawURL
	case strings.HasPrefix(rawURL, "?"):
		return base.Scheme + "://" + base.Host + base.Path + rawURL
	}
	return rawURL
}
