// Package seed loads the crawl target list: one article per line with URL,
// title and publish date separated by a ||| delimiter.
package seed

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AkihikoWatanabe/kijitori/internal/crawler"
)

const (
	fieldDelimiter = "|||"
	dateLayout     = "2006-01-02 15:04:05"
)

// Load reads the target list at path. Blank lines are skipped; a line with
// fewer than three fields or an unparsable date is an error, since a
// silently dropped seed would never be crawled.
func Load(path string) ([]crawler.SeedItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var items []crawler.SeedItem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		item, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("seed file line %d: %w", lineNo, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	return items, nil
}

func parseLine(line string) (crawler.SeedItem, error) {
	fields := strings.Split(line, fieldDelimiter)
	if len(fields) < 3 {
		return crawler.SeedItem{}, fmt.Errorf("expected 3 |||-separated fields, got %d", len(fields))
	}

	publishedAt, err := time.Parse(dateLayout, strings.TrimSpace(fields[2]))
	if err != nil {
		return crawler.SeedItem{}, fmt.Errorf("invalid publish date: %w", err)
	}

	return crawler.SeedItem{
		OriginURL:   strings.TrimSpace(fields[0]),
		Title:       strings.TrimSpace(fields[1]),
		PublishedAt: publishedAt,
	}, nil
}
