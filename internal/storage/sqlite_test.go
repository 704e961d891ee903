package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/AkihikoWatanabe/kijitori/internal/crawler"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecords(origin string, n int) []crawler.PageRecord {
	published := time.Date(2018, 4, 1, 12, 0, 0, 0, time.UTC)
	records := make([]crawler.PageRecord, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, crawler.PageRecord{
			OriginURL:   origin,
			PageURL:     origin + "?page=" + string(rune('0'+i)),
			Title:       "記事",
			HTML:        "<html>page</html>",
			PageNumber:  i,
			PublishedAt: published,
			StatusCode:  200,
		})
	}
	return records
}

func TestSaveAndExists(t *testing.T) {
	store := newTestStore(t)
	const origin = "http://example.com/news/1.html"

	exists, err := store.Exists(origin)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true before save")
	}

	if err := store.Save(origin, testRecords(origin, 3)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	exists, err = store.Exists(origin)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false after save")
	}

	count, err := store.PageCount(origin)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("PageCount() = %d, want 3", count)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	const origin = "http://example.com/news/1.html"
	records := testRecords(origin, 2)

	if err := store.Save(origin, records); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if err := store.Save(origin, records); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	count, err := store.PageCount(origin)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("PageCount() = %d after replay, want 2", count)
	}
}

func TestSaveEmptyRecords(t *testing.T) {
	store := newTestStore(t)
	const origin = "http://example.com/news/empty.html"

	// A save with no pages still marks the article as resolved.
	if err := store.Save(origin, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	exists, err := store.Exists(origin)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false, want the article row persisted")
	}
}

func TestSaveDistinguishesStatusCodes(t *testing.T) {
	store := newTestStore(t)
	const origin = "http://example.com/news/1.html"

	first := []crawler.PageRecord{{
		OriginURL: origin, PageURL: origin, PageNumber: 1,
		PublishedAt: time.Now().UTC(), StatusCode: 503,
	}}
	second := []crawler.PageRecord{{
		OriginURL: origin, PageURL: origin, PageNumber: 1,
		PublishedAt: time.Now().UTC(), StatusCode: 200,
	}}

	if err := store.Save(origin, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(origin, second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	count, err := store.PageCount(origin)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("PageCount() = %d, want both status outcomes kept", count)
	}
}

func TestStoresSeparateArticles(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("http://example.com/a", testRecords("http://example.com/a", 1)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save("http://example.com/b", testRecords("http://example.com/b", 2)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	count, err := store.PageCount("http://example.com/a")
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("PageCount(a) = %d, want 1", count)
	}
}
