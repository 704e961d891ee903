package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/AkihikoWatanabe/kijitori/internal/config"
)

// RenderOptions selects the wait condition for one rendered load.
type RenderOptions struct {
	ArchiveMode bool // Wait for the archive lookup page's error or result region
}

// RenderResult is the observable outcome of one rendered load.
type RenderResult struct {
	HTML     string // Serialized DOM after the wait condition was met
	FinalURL string // Address the browser ended up on
}

// DOM regions on the archive service's lookup page. The first of the two to
// become visible decides whether a snapshot exists.
const (
	archiveErrorSelector = "div.error.error-border"
	archiveMetaSelector  = "div#wb-meta"
)

// archiveRegionsVisible is evaluated repeatedly until either the error
// region or the snapshot metadata region is displayed.
const archiveRegionsVisible = `(() => {
	const visible = (el) => el !== null && el.offsetParent !== null;
	return visible(document.querySelector("` + archiveErrorSelector + `")) ||
		visible(document.querySelector("` + archiveMetaSelector + `"));
})()`

// ChromeRenderer renders pages in a headless Chrome instance via chromedp.
// One browser process is shared; every Render call gets a fresh tab so no
// page state leaks between fetches.
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	loadTimeout time.Duration
}

// NewChromeRenderer starts the browser allocator. The returned renderer must
// be closed to release the browser.
func NewChromeRenderer(cfg *config.CrawlConfig) *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeRenderer{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		loadTimeout: cfg.PageLoadTimeout,
	}
}

// Render loads url in a new tab, waits for the condition selected by opts
// and captures the resulting DOM and address. A page that does not settle
// within the load timeout fails with the browser context's deadline error.
func (r *ChromeRenderer) Render(ctx context.Context, url string, opts RenderOptions) (*RenderResult, error) {
	tabCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()

	if r.loadTimeout > 0 {
		tabCtx, cancel = context.WithTimeout(tabCtx, r.loadTimeout)
		defer cancel()
	}

	// Honor the caller's deadline as well as the page-load budget.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	wait := r.waitAction(opts)

	var res RenderResult
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		wait,
		chromedp.Location(&res.FinalURL),
		chromedp.OuterHTML("html", &res.HTML, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("browser load of %s: %w", url, err)
	}
	return &res, nil
}

// waitAction returns the wait condition for one load: in archive mode the
// first of the error/result regions to show up, otherwise a ready document.
func (r *ChromeRenderer) waitAction(opts RenderOptions) chromedp.Action {
	if opts.ArchiveMode {
		var settled bool
		return chromedp.Poll(archiveRegionsVisible, &settled, chromedp.WithPollingInterval(200*time.Millisecond))
	}
	return chromedp.WaitReady("body", chromedp.ByQuery)
}

// Close shuts down the browser.
func (r *ChromeRenderer) Close() error {
	r.allocCancel()
	return nil
}

var _ Renderer = (*ChromeRenderer)(nil)
