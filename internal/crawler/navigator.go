package crawler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrSearchTimeout is returned when a link search misses its deadline.
var ErrSearchTimeout = errors.New("link search timed out")

// Patterns for spotting continuation and next-page links in raw HTML.
// A link is an anchor tag whose visible text is one of a small set of
// phrases, optionally wrapped in bracket or quote decoration.
const (
	urlPattern            = `(:?http)?s?:?/?[/|\?][\w/:%#\$&\?\(\)~\.=\+\-]+`
	openBracketsPattern   = `[\[|\(|（|「|【|『|《|〈|〔|｛|\{|<|&lt;|&laquo;]`
	closedBracketsPattern = `[\]|\)|）|」|】|』|》|〉|〕|｝|\}|>|&gt;|&raquo;]`

	continuationPhrases = `(?:記事全文を表示する|全文を表示する|全文を表示|続きを読む)`
	nextPagePhrases     = `(?:次のページ|次へ|次ページ)`

	linkGroup = "link"
)

func linkPattern(anchorText string) string {
	return fmt.Sprintf(
		`<a [^>]*?href=["|'](?P<%s>%s)["|'][^>]*?>(?:<span\s?[^>]*?>)?%s?%s%s?(?:</span>)?</a>`,
		linkGroup, urlPattern, openBracketsPattern, anchorText, closedBracketsPattern,
	)
}

// Navigator locates continuation and next-page links in fetched HTML.
// Every search runs under its own hard deadline so that content-derived
// pattern matching can never stall a walk.
type Navigator struct {
	searchTimeout time.Duration
	contPat       *regexp.Regexp
	nextPat       *regexp.Regexp
}

// NewNavigator returns a navigator whose searches give up after
// searchTimeout. A zero timeout disables the deadline.
func NewNavigator(searchTimeout time.Duration) *Navigator {
	return &Navigator{
		searchTimeout: searchTimeout,
		contPat:       regexp.MustCompile(linkPattern(continuationPhrases)),
		nextPat:       regexp.MustCompile(linkPattern(nextPagePhrases)),
	}
}

// SearchContinuationURL looks for a "show full article" link and returns
// its target, or "" when the page has none.
func (n *Navigator) SearchContinuationURL(ctx context.Context, html string) (string, error) {
	return n.searchWithDeadline(ctx, n.contPat, html)
}

// SearchNextURL looks for a link to the page after pageNumber. Phrase links
// ("次へ" and friends) win over bare page-number links, except when the
// phrase link is an in-page anchor.
func (n *Navigator) SearchNextURL(ctx context.Context, html string, pageNumber int) (string, error) {
	url, err := n.searchWithDeadline(ctx, n.nextPat, html)
	if err != nil {
		return "", err
	}
	if url != "" && !strings.HasPrefix(url, "#") {
		return url, nil
	}

	numPat := regexp.MustCompile(linkPattern(strconv.Itoa(pageNumber + 1)))
	return n.searchWithDeadline(ctx, numPat, html)
}

// searchWithDeadline runs one pattern search on its own goroutine and maps
// a missed deadline to ErrSearchTimeout. The goroutine is detached on
// timeout; regexp matching holds no resources worth waiting for.
func (n *Navigator) searchWithDeadline(ctx context.Context, pat *regexp.Regexp, html string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrSearchTimeout
	}
	if n.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.searchTimeout)
		defer cancel()
	}

	found := make(chan string, 1)
	go func() {
		found <- searchLink(pat, html)
	}()

	select {
	case url := <-found:
		return url, nil
	case <-ctx.Done():
		return "", ErrSearchTimeout
	}
}

// searchLink returns the href captured by the pattern's link group, or ""
// when the pattern does not match.
func searchLink(pat *regexp.Regexp, html string) string {
	m := pat.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	return m[pat.SubexpIndex(linkGroup)]
}
