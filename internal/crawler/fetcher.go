// Package crawler implements the pagination-resolution engine: the
// resilient fetch layer, the next-page-link heuristic and the state machine
// that walks a multi-page article to completion.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/AkihikoWatanabe/kijitori/internal/config"
)

// ErrFetchTimeout is returned when a fetch exhausts its whole-call budget,
// its retry allowance, or the browser fails to load the page in time.
var ErrFetchTimeout = errors.New("fetch timed out")

// FetchOptions selects how a single fetch is performed.
type FetchOptions struct {
	Render      bool // Load the page in a browser and return the rendered DOM
	ArchiveMode bool // Wait for the archive service's result or error region
}

// Fetcher performs HTTP GETs with bounded retry, a hard wall-clock budget,
// per-domain pacing, charset-aware decoding and optional browser rendering.
type Fetcher struct {
	client   *http.Client
	renderer Renderer // nil disables rendering
	limiter  *RateLimiter
	cfg      *config.CrawlConfig
}

// fetchResponse is the raw result of one GET attempt.
type fetchResponse struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// NewFetcher creates a fetcher. renderer may be nil, in which case Render
// requests fall back to the plain decoded body.
func NewFetcher(cfg *config.CrawlConfig, renderer Renderer) *Fetcher {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &Fetcher{
		client:   client,
		renderer: renderer,
		limiter:  NewRateLimiter(cfg.RequestDelay),
		cfg:      cfg,
	}
}

// Fetch GETs url and returns its decoded content and status code. The whole
// call, retries and rendering included, runs under the configured fetch
// budget; exceeding it surfaces as ErrFetchTimeout, never a partial result.
//
// Responses classifying as client error, server error or redirection come
// back with empty content and the real status code. When rendering is
// requested and the browser lands on a different address than it was sent
// to, the rendered HTML is returned with StatusRenderRedirect instead of
// the real status.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchOutcome, error) {
	if f.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.FetchTimeout)
		defer cancel()
	}

	if err := f.limiter.Wait(ctx, url); err != nil {
		return nil, fmt.Errorf("pacing wait for %s: %w", url, ErrFetchTimeout)
	}

	resp, err := f.getWithRetry(ctx, url)
	if err != nil {
		slog.Error("Fetch failed after retries", "url", url, "error", err)
		return nil, fmt.Errorf("get %s: %w", url, ErrFetchTimeout)
	}

	if class, ok := Classify(resp.StatusCode); ok {
		switch class {
		case ClassServerError, ClassClientError, ClassRedirection:
			slog.Warn("Error-class response", "class", class.String(), "status", resp.StatusCode, "url", url)
			f.jitterSleep(ctx)
			return &FetchOutcome{StatusCode: resp.StatusCode}, nil
		case ClassInformational:
			slog.Info("Informational response", "status", resp.StatusCode, "url", url)
		}
	}

	if opts.Render && f.renderer != nil {
		res, rerr := f.renderer.Render(ctx, url, RenderOptions{ArchiveMode: opts.ArchiveMode})
		f.jitterSleep(ctx)
		if rerr != nil {
			slog.Warn("Render failed", "url", url, "error", rerr)
			return nil, fmt.Errorf("render %s: %w", url, ErrFetchTimeout)
		}
		if res.FinalURL != url {
			slog.Warn("Redirect during render", "url", url, "final_url", res.FinalURL)
			return &FetchOutcome{Content: res.HTML, StatusCode: StatusRenderRedirect, Redirected: true}, nil
		}
		return &FetchOutcome{Content: res.HTML, StatusCode: resp.StatusCode}, nil
	}

	f.jitterSleep(ctx)
	return &FetchOutcome{Content: decodeBody(resp.Body, resp.ContentType), StatusCode: resp.StatusCode}, nil
}

// Close releases idle connections and the renderer session, if any.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	if f.renderer != nil {
		return f.renderer.Close()
	}
	return nil
}

// getWithRetry performs the GET with up to RetryAttempts attempts separated
// by RetryWait, bounded overall by RetryBudget and the context deadline.
func (f *Fetcher) getWithRetry(ctx context.Context, url string) (*fetchResponse, error) {
	attempts := f.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var deadline time.Time
	if f.cfg.RetryBudget > 0 {
		deadline = time.Now().Add(f.cfg.RetryBudget)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := f.get(ctx, url)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		slog.Debug("GET attempt failed", "url", url, "attempt", attempt, "error", err)

		if attempt == attempts {
			break
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		if err := sleepContext(ctx, f.cfg.RetryWait); err != nil {
			break
		}
	}
	return nil, lastErr
}

// get performs a single GET attempt and reads the full body.
func (f *Fetcher) get(ctx context.Context, url string) (*fetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &fetchResponse{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// jitterSleep pauses for a random duration in [0, SleepCeiling) so repeated
// requests to the same upstream do not re-hammer it in lock step.
func (f *Fetcher) jitterSleep(ctx context.Context) {
	if f.cfg.SleepCeiling <= 0 {
		return
	}
	_ = sleepContext(ctx, rand.N(f.cfg.SleepCeiling))
}

// decodeBody converts raw response bytes to UTF-8 using the encoding
// detected from the bytes and the Content-Type header. Undecodable input is
// returned as-is.
func decodeBody(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// sleepContext sleeps for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
