package match

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	if got := normalize("  图书馆 "); got != "图书馆" {
		t.Errorf("expected trimmed value, got %q", got)
	}
	if got := normalize("Library"); got != "library" {
		t.Errorf("expected lowercase value, got %q", got)
	}
}

func TestTimeDiffDays(t *testing.T) {
	a := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	if got := timeDiffDays(a, a.Add(23*time.Hour)); got != 0 {
		t.Errorf("23h apart: expected 0 days, got %d", got)
	}
	if got := timeDiffDays(a, a.Add(49*time.Hour)); got != 2 {
		t.Errorf("49h apart: expected 2 days, got %d", got)
	}
	// Order must not matter.
	if got := timeDiffDays(a.Add(49*time.Hour), a); got != 2 {
		t.Errorf("reversed order: expected 2 days, got %d", got)
	}
}

func TestTokenSetEnglish(t *testing.T) {
	tokens := tokenSet("The black iPhone with case")

	for _, want := range []string{"black", "iphone", "case"} {
		if !tokens[want] {
			t.Errorf("expected token %q", want)
		}
	}
	for _, stop := range []string{"the", "with"} {
		if tokens[stop] {
			t.Errorf("stopword %q should be dropped", stop)
		}
	}
}

func TestTokenSetChineseSubstrings(t *testing.T) {
	tokens := tokenSet("黑色钱包")

	for _, want := range []string{"黑色", "钱包", "黑色钱包"} {
		if !tokens[want] {
			t.Errorf("expected token %q", want)
		}
	}
}

func TestTokenSetMixedScripts(t *testing.T) {
	tokens := tokenSet("iPhone13黑色手机")

	if !tokens["iphone13"] {
		t.Error("expected alphanumeric run to stay whole")
	}
	if !tokens["手机"] {
		t.Error("expected CJK substring 手机")
	}
}

func TestKeywordOverlapAndSimilarity(t *testing.T) {
	a := tokenSet("blue key red ribbon")
	b := tokenSet("blue key tag")

	if got := keywordOverlap(a, b); got != 2 {
		t.Errorf("expected overlap 2, got %d", got)
	}
	if got := similarity(a, b); got != 0.4 {
		t.Errorf("expected similarity 0.4, got %v", got)
	}
}

func TestSimilarityEmptySet(t *testing.T) {
	if got := similarity(tokenSet(""), tokenSet("anything")); got != 0 {
		t.Errorf("expected 0 for empty set, got %v", got)
	}
}
