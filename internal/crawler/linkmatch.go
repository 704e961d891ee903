package crawler

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	// recallThreshold is the minimum shared-character ratio for a candidate
	// to count as a next-page link.
	recallThreshold = 0.5

	// minEqualRun is the shortest equal span that counts toward recall.
	// Unrelated URLs still share scattered short runs ("http://", ".com",
	// single letters); genuine pagination links share one long run.
	minEqualRun = 6
)

// IsNextPageLink decides whether candidate denotes a genuinely different
// page of the article served at origin. Candidates that are in-page anchors,
// unrelated links or noise are rejected.
//
//	http://youtube.com            vs http://hogehoge.com -> false
//	http://hogehoge.com/article   vs http://hogehoge.com -> true
//	http://hogehoge.com/a#summary vs http://hogehoge.com/a -> false
//	?page=2                       vs anything -> true
//
// The decision is made on a character-level alignment of the two strings:
// the final span tells anchors and query parameters apart, and the ratio of
// aligned characters to the candidate's length (recall) separates pagination
// links from navigation to unrelated pages.
func IsNextPageLink(candidate, origin string) bool {
	if candidate == "" {
		return false
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // deterministic for fixed inputs
	diffs := dmp.DiffMain(candidate, origin, false)

	if isAnchor(diffs) {
		return false
	}
	if isParam(diffs, candidate) {
		return true
	}
	return recall(diffs, candidate) >= recallThreshold
}

// isAnchor reports whether the candidate only appends a fragment to the
// origin: the alignment ends in a deletion whose first character is '#'.
func isAnchor(diffs []diffmatchpatch.Diff) bool {
	last := diffs[len(diffs)-1]
	return last.Type == diffmatchpatch.DiffDelete && strings.HasPrefix(last.Text, "#")
}

// isParam reports whether the candidate appends query parameters to the
// current page, either as a bare "?..." string or as the origin URL plus a
// trailing query.
func isParam(diffs []diffmatchpatch.Diff, candidate string) bool {
	if strings.HasPrefix(candidate, "?") {
		return true
	}
	last := diffs[len(diffs)-1]
	return last.Type == diffmatchpatch.DiffDelete && strings.HasPrefix(last.Text, "?")
}

// recall is the fraction of the candidate's characters that align with the
// origin in equal spans of at least minEqualRun characters.
func recall(diffs []diffmatchpatch.Diff, candidate string) float64 {
	matched := 0
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			continue
		}
		if n := utf8.RuneCountInString(d.Text); n >= minEqualRun {
			matched += n
		}
	}
	return float64(matched) / float64(utf8.RuneCountInString(candidate))
}
