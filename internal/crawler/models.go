package crawler

import "time"

// SeedItem is one article to resolve, read from the crawl target list.
type SeedItem struct {
	OriginURL   string    // URL of the article as originally published
	Title       string    // Article title from the target list
	PublishedAt time.Time // Date the article was registered upstream
}

// PageRecord holds one resolved page of one article. The ordered sequence
// of records for a seed is the result of a single walk.
type PageRecord struct {
	OriginURL   string // First-page URL the walk started from; same for every record of a walk
	PageURL     string // URL this particular page was fetched from
	Title       string
	HTML        string // Raw page source; empty when the fetch failed
	PageNumber  int    // 1-based, strictly increasing within a walk
	PublishedAt time.Time
	StatusCode  int // Real HTTP status or one of the Status* synthetic codes
}

// FetchOutcome is the result of one resilient fetch.
type FetchOutcome struct {
	Content    string // Decoded body or rendered DOM; empty on error-class responses
	StatusCode int
	Redirected bool // True when the page silently redirected during render
}

// CrawlStats tracks progress across one crawl run.
type CrawlStats struct {
	SeedsTotal    int
	SeedsResolved int
	PagesResolved int
	SeedRetries   int
	StartTime     time.Time
	Duration      time.Duration
}
