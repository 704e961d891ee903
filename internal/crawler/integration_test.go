package crawler_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AkihikoWatanabe/kijitori/internal/config"
	"github.com/AkihikoWatanabe/kijitori/internal/crawler"
	"github.com/AkihikoWatanabe/kijitori/internal/storage"
)

// httpRenderer satisfies the renderer contract with a plain GET, standing in
// for the browser in tests.
type httpRenderer struct{}

func (httpRenderer) Render(ctx context.Context, url string, _ crawler.RenderOptions) (*crawler.RenderResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &crawler.RenderResult{HTML: string(body), FinalURL: url}, nil
}

func (httpRenderer) Close() error { return nil }

func integrationConfig() *config.CrawlConfig {
	cfg := config.DefaultConfig()
	cfg.RequestDelay = 0
	cfg.SleepCeiling = 0
	cfg.FetchTimeout = 10 * time.Second
	cfg.SearchTimeout = 5 * time.Second
	cfg.RetryAttempts = 1
	cfg.SeedCooldown = time.Millisecond
	return cfg
}

// TestCrawlEndToEnd drives one seed from archive lookup through a two-page
// walk into SQLite, then replays the run to check the skip path.
func TestCrawlEndToEnd(t *testing.T) {
	const (
		origin     = "http://example.com/news/1.html"
		noArchive  = "http://example.com/news/404.html"
		snapshot   = "/web/20180401000000/http://example.com/news/1.html"
		secondPage = "/web/20180401000000/http://example.com/news/1_2.html"
	)

	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/web/*/" + origin:
			fmt.Fprintf(w, `<div id="wb-meta"><a href="%s">2018年4月1日</a></div>`, snapshot)
		case "/web/*/" + noArchive:
			fmt.Fprint(w, `<div class="error error-border"><p>保存されていません</p></div>`)
		case snapshot:
			fmt.Fprintf(w, `<p>第一段落</p><a href="%s">次へ</a>`, secondPage)
		case secondPage:
			fmt.Fprint(w, `<p>第二段落</p>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "kijitori.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	cfg := integrationConfig()
	cfg.ArchivePrefix = server.URL + "/web/*/"

	fetcher := crawler.NewFetcher(cfg, httpRenderer{})
	defer func() { _ = fetcher.Close() }()

	resolver := crawler.NewArchiveResolver(fetcher, store, cfg.ArchivePrefix)
	walker := crawler.NewPageWalker(fetcher, crawler.NewNavigator(cfg.SearchTimeout), cfg.MaxPages)
	driver := crawler.NewDriver(resolver, walker, store, cfg)

	seeds := []crawler.SeedItem{
		{OriginURL: origin, Title: "記事", PublishedAt: time.Date(2018, 4, 1, 9, 0, 0, 0, time.UTC)},
		{OriginURL: noArchive, Title: "消えた記事", PublishedAt: time.Date(2018, 4, 2, 9, 0, 0, 0, time.UTC)},
	}
	if err := driver.Run(context.Background(), seeds); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	count, err := store.PageCount(origin)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("PageCount(%q) = %d, want 2", origin, count)
	}

	count, err = store.PageCount(noArchive)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("PageCount(%q) = %d, want 1 placeholder", noArchive, count)
	}

	// A second run finds both seeds persisted and stays off the network.
	before := requests.Load()
	if err := driver.Run(context.Background(), seeds); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if after := requests.Load(); after != before {
		t.Errorf("second run issued %d requests, want 0", after-before)
	}
}
