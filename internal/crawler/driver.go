package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/AkihikoWatanabe/kijitori/internal/config"
)

// progressLogInterval is how many seeds pass between progress log entries.
const progressLogInterval = 10

// Driver iterates the seed list strictly in order, resolving the archive
// link and walking each article's pages with a single logical worker. An
// unexpected failure during a seed is treated as an infrastructure hiccup:
// the driver cools down and retries the same seed from scratch.
type Driver struct {
	resolver Resolver
	walker   Walker
	store    Store
	cfg      *config.CrawlConfig

	stats      CrawlStats
	statsMutex sync.RWMutex
}

// NewDriver wires a driver from its collaborators.
func NewDriver(resolver Resolver, walker Walker, store Store, cfg *config.CrawlConfig) *Driver {
	return &Driver{
		resolver: resolver,
		walker:   walker,
		store:    store,
		cfg:      cfg,
		stats:    CrawlStats{StartTime: time.Now()},
	}
}

// Run processes every seed. It returns early only when the context is
// cancelled; per-seed failures never abort the run.
func (d *Driver) Run(ctx context.Context, seeds []SeedItem) error {
	d.statsMutex.Lock()
	d.stats.SeedsTotal = len(seeds)
	d.statsMutex.Unlock()

	slog.Info("Starting crawl", "seeds", len(seeds))

	idx := 0
	retries := 0
	for idx < len(seeds) {
		if err := ctx.Err(); err != nil {
			slog.Info("Crawl cancelled", "resolved", idx, "total", len(seeds))
			return err
		}

		seed := seeds[idx]
		done, err := d.processSeed(ctx, seed)
		if err != nil {
			if walkCancelled(err) || ctx.Err() != nil {
				return err
			}

			retries++
			d.incrementRetryCount()
			if d.cfg.SeedRetryCap > 0 && retries > d.cfg.SeedRetryCap {
				slog.Error("Seed retry cap exhausted, skipping seed", "url", seed.OriginURL, "retries", retries-1)
				idx++
				retries = 0
				continue
			}

			slog.Info("Retrying seed after cooldown", "url", seed.OriginURL, "cooldown", d.cfg.SeedCooldown, "error", err)
			if serr := sleepContext(ctx, d.cfg.SeedCooldown); serr != nil {
				return serr
			}
			continue
		}

		if done {
			d.incrementResolvedCount(0)
		}
		idx++
		retries = 0

		if idx%progressLogInterval == 0 {
			stats := d.GetStats()
			slog.Info("Crawl progress",
				"resolved", idx, "total", len(seeds),
				"pages", stats.PagesResolved, "retries", stats.SeedRetries)
		}
	}

	stats := d.GetStats()
	slog.Info("Crawl completed", "seeds", stats.SeedsTotal, "pages", stats.PagesResolved, "retries", stats.SeedRetries, "duration", stats.Duration)
	return nil
}

// processSeed resolves and persists one seed. The bool result is true when
// the seed was skipped as already resolved.
func (d *Driver) processSeed(ctx context.Context, seed SeedItem) (bool, error) {
	archiveURL, err := d.resolver.Resolve(ctx, seed.OriginURL)

	var records []PageRecord
	switch {
	case errors.Is(err, ErrAlreadyResolved):
		return true, nil

	case errors.Is(err, ErrNoSnapshot):
		// No archived copy: record the seed as a single synthetic 404 page
		// so the run never revisits it.
		records = []PageRecord{{
			OriginURL:   seed.OriginURL,
			PageURL:     seed.OriginURL,
			Title:       seed.Title,
			PageNumber:  1,
			PublishedAt: seed.PublishedAt,
			StatusCode:  404,
		}}

	case err != nil:
		return false, err

	default:
		records, err = d.walker.Walk(ctx, archiveURL, seed)
		if err != nil {
			return false, err
		}
		slog.Info("Article resolved", "url", seed.OriginURL, "pages", len(records), "archive_url", archiveURL)
	}

	if err := d.store.Save(seed.OriginURL, records); err != nil {
		return false, err
	}

	d.incrementResolvedCount(len(records))
	return false, nil
}

// GetStats returns a snapshot of the run's progress.
func (d *Driver) GetStats() CrawlStats {
	d.statsMutex.RLock()
	defer d.statsMutex.RUnlock()

	stats := d.stats
	stats.Duration = time.Since(stats.StartTime)
	return stats
}

func (d *Driver) incrementResolvedCount(pages int) {
	d.statsMutex.Lock()
	defer d.statsMutex.Unlock()
	d.stats.SeedsResolved++
	d.stats.PagesResolved += pages
}

func (d *Driver) incrementRetryCount() {
	d.statsMutex.Lock()
	defer d.statsMutex.Unlock()
	d.stats.SeedRetries++
}
