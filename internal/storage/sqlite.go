// Package storage persists resolved articles. It implements the crawler's
// Store contract on SQLite: one atomic save per seed, idempotent on replay.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/AkihikoWatanabe/kijitori/internal/crawler"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the crawler.Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Exists reports whether originURL was already resolved by a prior run.
func (s *SQLiteStore) Exists(originURL string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM articles WHERE origin_url = ?", originURL).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query article: %w", err)
	}
	return count > 0, nil
}

// Save writes one seed's full page sequence in a single transaction: either
// the article row and all of its pages commit, or none do. Replaying a save
// for an already-stored (originURL, pageURL, pageNumber, statusCode) tuple
// inserts nothing.
func (s *SQLiteStore) Save(originURL string, records []crawler.PageRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO articles (origin_url, created_at) VALUES (?, ?)",
		originURL, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert article %s: %w", originURL, err)
	}

	var articleID int64
	if err := tx.QueryRow("SELECT id FROM articles WHERE origin_url = ?", originURL).Scan(&articleID); err != nil {
		return fmt.Errorf("failed to query article id for %s: %w", originURL, err)
	}

	pageStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO pages (article_id, page_url, page_no, status_code, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page statement: %w", err)
	}
	defer func() { _ = pageStmt.Close() }()

	contentStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO page_contents (page_id, title, html, published_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare content statement: %w", err)
	}
	defer func() { _ = contentStmt.Close() }()

	now := time.Now().UTC()
	for _, rec := range records {
		if _, err := pageStmt.Exec(articleID, rec.PageURL, rec.PageNumber, rec.StatusCode, now); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", rec.PageURL, err)
		}

		var pageID int64
		err := tx.QueryRow(
			"SELECT id FROM pages WHERE article_id = ? AND page_url = ? AND page_no = ? AND status_code = ?",
			articleID, rec.PageURL, rec.PageNumber, rec.StatusCode,
		).Scan(&pageID)
		if err != nil {
			return fmt.Errorf("failed to query page id for %s: %w", rec.PageURL, err)
		}

		if _, err := contentStmt.Exec(pageID, rec.Title, rec.HTML, rec.PublishedAt); err != nil {
			return fmt.Errorf("failed to insert content for %s: %w", rec.PageURL, err)
		}
	}

	return tx.Commit()
}

// PageCount returns how many pages are stored for originURL.
func (s *SQLiteStore) PageCount(originURL string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM pages p
		JOIN articles a ON a.id = p.article_id
		WHERE a.origin_url = ?
	`, originURL).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ crawler.Store = (*SQLiteStore)(nil)
