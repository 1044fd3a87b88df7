package match

import (
	"strings"
	"time"
	"unicode"
)

// stopwords are tokens too common to count as shared keywords.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true,
	"in": true, "on": true, "at": true, "to": true, "is": true,
	"with": true, "for": true,
	"的": true, "了": true, "在": true, "和": true, "有": true,
	"是": true, "我": true, "一个": true,
}

// normalize trims and case-folds a value for exact comparison.
// Category and location equality is defined over normalized values.
func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// timeDiffDays returns the absolute difference between two timestamps
// in whole days.
func timeDiffDays(a, b time.Time) int {
	return int(a.Sub(b).Abs().Hours() / 24)
}

// maxRunSubstring bounds the substring expansion of CJK runs.
const maxRunSubstring = 6

// tokenSet splits a description into a set of comparable tokens.
// Text is case-folded and split into alphanumeric runs and CJK runs.
// CJK runs are additionally expanded into their substrings of length
// 2..6 so multi-character keywords (品牌, 颜色, 物品名) still overlap
// when the surrounding phrasing differs. Stopwords are dropped.
func tokenSet(text string) map[string]bool {
	tokens := make(map[string]bool)
	if text == "" {
		return tokens
	}

	var alnum, cjk []rune
	flushAlnum := func() {
		if len(alnum) > 0 {
			addToken(tokens, string(alnum))
			alnum = alnum[:0]
		}
	}
	flushCJK := func() {
		if len(cjk) > 0 {
			addToken(tokens, string(cjk))
			addRunSubstrings(tokens, cjk)
			cjk = cjk[:0]
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.Is(unicode.Han, r):
			flushAlnum()
			cjk = append(cjk, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushCJK()
			alnum = append(alnum, r)
		default:
			flushAlnum()
			flushCJK()
		}
	}
	flushAlnum()
	flushCJK()

	return tokens
}

// addRunSubstrings adds all substrings of length 2..maxRunSubstring of a
// CJK run to the token set.
func addRunSubstrings(tokens map[string]bool, run []rune) {
	maxLen := min(maxRunSubstring, len(run))
	for i := range run {
		for l := 2; l <= maxLen && i+l <= len(run); l++ {
			addToken(tokens, string(run[i:i+l]))
		}
	}
}

func addToken(tokens map[string]bool, tok string) {
	if !stopwords[tok] {
		tokens[tok] = true
	}
}

// keywordOverlap counts tokens shared by both sets.
func keywordOverlap(a, b map[string]bool) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for tok := range a {
		if b[tok] {
			count++
		}
	}
	return count
}

// similarity is the Jaccard ratio of the two token sets, in [0, 1].
func similarity(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := keywordOverlap(a, b)
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
