package crawler

import "context"

// PageFetcher performs one resilient fetch of a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchOutcome, error)
}

// Renderer drives a scriptable browser session to load a URL and observe
// the resulting DOM and address.
type Renderer interface {
	Render(ctx context.Context, url string, opts RenderOptions) (*RenderResult, error)
	Close() error
}

// Resolver turns an original article URL into the URL of its archived copy.
type Resolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// Walker resolves the full multi-page sequence of one article.
type Walker interface {
	Walk(ctx context.Context, startURL string, seed SeedItem) ([]PageRecord, error)
}

// Store is the persistence collaborator. Saves are atomic per seed and
// idempotent; Exists backs the resolver's skip-if-already-done check.
type Store interface {
	Exists(originURL string) (bool, error)
	Save(originURL string, records []PageRecord) error
	Close() error
}
