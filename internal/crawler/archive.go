package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrAlreadyResolved signals that the URL was persisted by a prior run
	// and no lookup was issued.
	ErrAlreadyResolved = errors.New("url already resolved")
	// ErrNoSnapshot signals that the archive service holds no copy of the
	// URL. Distinct from a timeout: the lookup itself succeeded.
	ErrNoSnapshot = errors.New("no archive snapshot available")
)

// ArchiveResolver locates the archived copy of an original article URL by
// querying the web-archive lookup service.
type ArchiveResolver struct {
	fetcher PageFetcher
	store   Store
	prefix  string // lookup path prepended to the original URL
}

// NewArchiveResolver creates a resolver that fetches lookups through
// fetcher and consults store for the skip-if-already-done check.
func NewArchiveResolver(fetcher PageFetcher, store Store, prefix string) *ArchiveResolver {
	return &ArchiveResolver{fetcher: fetcher, store: store, prefix: prefix}
}

// Resolve returns the URL of the archived HTML copy of rawURL.
//
// When rawURL was already persisted by an earlier run it returns
// ErrAlreadyResolved without touching the network. When the archive has no
// snapshot it returns ErrNoSnapshot. A lookup timeout propagates as is; the
// caller decides whether to retry the whole seed.
func (r *ArchiveResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	exists, err := r.store.Exists(rawURL)
	if err != nil {
		return "", fmt.Errorf("resolved-check for %s: %w", rawURL, err)
	}
	if exists {
		slog.Info("Archive already resolved, skipping", "url", rawURL)
		return "", ErrAlreadyResolved
	}

	lookupURL := strings.TrimSpace(r.prefix) + strings.TrimSpace(rawURL)
	outcome, err := r.fetcher.Fetch(ctx, lookupURL, FetchOptions{Render: true, ArchiveMode: true})
	if err != nil {
		return "", fmt.Errorf("archive lookup for %s: %w", rawURL, err)
	}
	if isErrorStatus(outcome.StatusCode) {
		// The lookup service itself failed. Not the same as "no snapshot":
		// the seed must be retried, not written off.
		slog.Warn("Archive lookup returned error status", "url", rawURL, "status", outcome.StatusCode)
		return "", fmt.Errorf("archive lookup for %s: status %d", rawURL, outcome.StatusCode)
	}

	archiveURL, err := extractSnapshotLink(outcome.Content)
	if err != nil {
		slog.Info("No archive snapshot", "url", rawURL)
		return "", err
	}

	archiveURL = NormalizeURL(archiveURL, lookupURL)
	slog.Info("Archive has snapshot", "url", rawURL, "archive_url", archiveURL)
	return archiveURL, nil
}

// extractSnapshotLink pulls the snapshot anchor out of the lookup page's
// metadata region.
func extractSnapshotLink(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse lookup page: %w", err)
	}

	href, ok := doc.Find(archiveMetaSelector + " a").First().Attr("href")
	if !ok || href == "" {
		return "", ErrNoSnapshot
	}
	return href, nil
}

var _ Resolver = (*ArchiveResolver)(nil)
