package storage

const schemaSQL = `
-- One row per seed URL; presence means the article was fully resolved.
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    origin_url TEXT UNIQUE NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_articles_origin_url ON articles(origin_url);

-- One row per resolved page of an article. The uniqueness constraint makes
-- repeated saves of the same walk a no-op.
CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    page_url TEXT NOT NULL,
    page_no INTEGER NOT NULL,
    status_code INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(article_id, page_url, page_no, status_code)
);

CREATE INDEX IF NOT EXISTS idx_pages_article ON pages(article_id);

-- Page sources are stored separately so page bookkeeping queries never drag
-- the HTML along.
CREATE TABLE IF NOT EXISTS page_contents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id INTEGER UNIQUE NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    html TEXT NOT NULL,
    published_at DATETIME NOT NULL
);

-- View joining an article's pages in walk order.
CREATE VIEW IF NOT EXISTS resolved_pages AS
SELECT
    a.origin_url,
    p.page_url,
    p.page_no,
    p.status_code,
    c.title,
    c.published_at
FROM articles a
JOIN pages p ON p.article_id = a.id
LEFT JOIN page_contents c ON c.page_id = p.id
ORDER BY a.origin_url, p.page_no;
`
