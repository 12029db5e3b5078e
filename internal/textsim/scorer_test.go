package textsim

import (
	"math"
	"testing"
)

func TestScoreIdentical(t *testing.T) {
	inputs := []string{
		"Hello world",
		"TACTICAL, STAND BY ON TORPEDOES.",
		"这是一个测试",
		"Mixed 中文 and English 123",
	}
	for _, s := range inputs {
		if got := Score(s, s); math.Abs(got-1.0) > 1e-9 {
			t.Errorf("Score(%q, %q) = %f, want 1.0", s, s, got)
		}
	}
}

func TestScoreEmptyCases(t *testing.T) {
	if got := Score("", ""); got != 1.0 {
		t.Errorf("Score(empty, empty) = %f, want 1.0", got)
	}
	if got := Score("", "hello"); got != 0 {
		t.Errorf("Score(empty, nonempty) = %f, want 0", got)
	}
	// Tag-only text normalizes to empty.
	if got := Score("{\\an8}<i></i>", "hello"); got != 0 {
		t.Errorf("Score(tags only, nonempty) = %f, want 0", got)
	}
}

func TestScoreDeterministicAndSymmetricRange(t *testing.T) {
	a := "The quick brown fox jumps over the lazy dog"
	b := "A quick brown cat sleeps under the lazy tree"
	first := Score(a, b)
	second := Score(a, b)
	if first != second {
		t.Errorf("score not deterministic: %f vs %f", first, second)
	}
	if first <= 0 || first >= 1 {
		t.Errorf("score = %f, want strictly between 0 and 1", first)
	}
}

func TestScoreOrdersBySimilarity(t *testing.T) {
	base := "Captain, the engines cannot take much more"
	near := "Captain, the engines can't take much more!"
	far := "Dinner is served in the main hall"
	if Score(base, near) <= Score(base, far) {
		t.Errorf("similar pair (%f) should outscore dissimilar pair (%f)",
			Score(base, near), Score(base, far))
	}
}

func TestScoreDetailedWeightsSumToCombined(t *testing.T) {
	set := ScoreDetailed("hello brave world", "hello new world")
	want := 0.25*set.Sequence + 0.20*set.Jaccard + 0.20*set.Cosine +
		0.15*set.Edit + 0.10*set.Length + 0.10*set.CommonWord
	if math.Abs(set.Combined()-want) > 1e-12 {
		t.Errorf("Combined() = %f, want %f", set.Combined(), want)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"TACTICAL.", "tactical"},
		{"Hello, World!", "hello world"},
		{"{\\an8}Sign text", "sign text"},
		{"<i>italic</i> words", "italic words"},
		{"  extra   spaces  ", "extra spaces"},
		{"Line 1\nLine 2", "line 1 line 2"},
		{"你好，世界！", "你好 世界"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLevenshteinBasics(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"abc", "abc", 0},
		{"", "abc", 3},
		{"abc", "", 3},
	}
	for _, tt := range tests {
		if got := levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSequenceRatio(t *testing.T) {
	if got := sequenceRatio([]rune("abcd"), []rune("abcd")); got != 1 {
		t.Errorf("identical ratio = %f, want 1", got)
	}
	if got := sequenceRatio([]rune("abcd"), []rune("wxyz")); got != 0 {
		t.Errorf("disjoint ratio = %f, want 0", got)
	}
}

func TestContainsCJK(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"hello", false},
		{"你好", true},
		{"カタカナ", true},
		{"한국어", true},
		{"mixed 漢字 text", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := ContainsCJK(tt.input); got != tt.want {
			t.Errorf("ContainsCJK(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsUpperWordAndIsCapitalized(t *testing.T) {
	if !IsUpperWord("NATO") {
		t.Error("NATO should be an upper word")
	}
	if IsUpperWord("NaTo") || IsUpperWord("NATO1") || IsUpperWord("") {
		t.Error("mixed, digit-bearing, or empty tokens are not upper words")
	}
	if !IsCapitalized("Paris") {
		t.Error("Paris should be capitalized")
	}
	if IsCapitalized("PARIS") || IsCapitalized("paris") || IsCapitalized("P") {
		t.Error("all-caps, lowercase, and single letters are not capitalized words")
	}
}

func TestIsStopWord(t *testing.T) {
	if !IsStopWord("the") || !IsStopWord("The") || !IsStopWord("OKAY") {
		t.Error("stop word lookup should be case-insensitive")
	}
	if IsStopWord("torpedo") {
		t.Error("torpedo should not be a stop word")
	}
}
