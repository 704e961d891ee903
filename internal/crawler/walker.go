package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// PageWalker resolves one article to its full ordered page sequence. It
// repeatedly fetches, follows an in-page continuation link if present, then
// probes for a next-page link until none is found, an error ends the walk
// or the page cap is hit. Every failure mode surfaces as the status code of
// the last record, so the caller's control flow stays uniform.
type PageWalker struct {
	fetcher  PageFetcher
	nav      *Navigator
	maxPages int
}

// NewPageWalker creates a walker. maxPages bounds how many records a single
// walk may produce.
func NewPageWalker(fetcher PageFetcher, nav *Navigator, maxPages int) *PageWalker {
	return &PageWalker{fetcher: fetcher, nav: nav, maxPages: maxPages}
}

// Walk resolves the article starting at startURL. The origin URL of every
// record is fixed to startURL even as the fetch URL advances through
// continuation and next-page links.
//
// A non-nil error means the walk was cut short by something other than the
// article itself (a cancelled run, or a continuation re-fetch that timed
// out); the caller treats it as an infrastructure failure and retries the
// seed.
func (w *PageWalker) Walk(ctx context.Context, startURL string, seed SeedItem) ([]PageRecord, error) {
	var (
		records []PageRecord
		origin  = startURL
		url     = startURL
		pageNum = 1
	)

	record := func(html string, status int) PageRecord {
		return PageRecord{
			OriginURL:   origin,
			PageURL:     url,
			Title:       seed.Title,
			HTML:        html,
			PageNumber:  pageNum,
			PublishedAt: seed.PublishedAt,
			StatusCode:  status,
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		outcome, err := w.fetcher.Fetch(ctx, url, FetchOptions{Render: true})
		if err != nil {
			// A cancelled run aborts the walk; only a genuine upstream
			// timeout is recorded as an outcome of the article.
			if cerr := ctx.Err(); cerr != nil {
				return records, cerr
			}
			slog.Warn("Fetch timed out during walk", "url", url, "page", pageNum)
			records = append(records, record("", StatusFetchTimeout))
			return records, nil
		}
		if isErrorStatus(outcome.StatusCode) {
			records = append(records, record("", outcome.StatusCode))
			return records, nil
		}

		html, status := outcome.Content, outcome.StatusCode

		contURL, err := w.nav.SearchContinuationURL(ctx, html)
		if err != nil {
			slog.Warn("Continuation search timed out", "url", url)
			records = append(records, record(html, StatusContinuationSearchTimeout))
			return records, nil
		}
		if contURL != "" {
			slog.Info("Continuation link found", "url", url, "continuation", contURL)
			url = NormalizeURL(contURL, url)
			outcome, err := w.fetcher.Fetch(ctx, url, FetchOptions{Render: true})
			if err != nil {
				return records, fmt.Errorf("continuation fetch of %s: %w", url, err)
			}
			if isErrorStatus(outcome.StatusCode) {
				records = append(records, record("", outcome.StatusCode))
				return records, nil
			}
			html, status = outcome.Content, outcome.StatusCode
		}

		records = append(records, record(html, status))

		nextURL, err := w.nav.SearchNextURL(ctx, html, pageNum)
		if err != nil {
			slog.Warn("Next-link search timed out", "url", url)
			records[len(records)-1].StatusCode = StatusNextSearchTimeout
			return records, nil
		}
		if !IsNextPageLink(nextURL, origin) {
			return records, nil
		}

		pageNum++
		if pageNum > w.maxPages {
			slog.Warn("Too many pages, stopping walk", "url", origin, "pages", pageNum)
			return records, nil
		}
		url = NormalizeURL(nextURL, origin)
	}
}

// walkCancelled reports whether a walk error came from run cancellation
// rather than an upstream hiccup.
func walkCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

var _ Walker = (*PageWalker)(nil)
