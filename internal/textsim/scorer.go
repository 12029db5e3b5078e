package textsim

import "math"

// Sub-metric weights. They sum to 1 so the combined score stays in [0, 1].
const (
	weightSequence   = 0.25
	weightJaccard    = 0.20
	weightCosine     = 0.20
	weightEdit       = 0.15
	weightLength     = 0.10
	weightCommonWord = 0.10
)

// ScoreSet holds the individual sub-metric values behind a combined score.
type ScoreSet struct {
	Sequence   float64
	Jaccard    float64
	Cosine     float64
	Edit       float64
	Length     float64
	CommonWord float64
}

// Combined folds the sub-metrics into one confidence using fixed weights.
func (s ScoreSet) Combined() float64 {
	return weightSequence*s.Sequence +
		weightJaccard*s.Jaccard +
		weightCosine*s.Cosine +
		weightEdit*s.Edit +
		weightLength*s.Length +
		weightCommonWord*s.CommonWord
}

// Score returns the combined similarity of two subtitle lines in [0, 1].
// Two empty lines score 1.0; an empty line against a non-empty line scores 0.
func Score(a, b string) float64 {
	return ScoreDetailed(a, b).Combined()
}

// ScoreDetailed computes every sub-metric for two subtitle lines.
func ScoreDetailed(a, b string) ScoreSet {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" && nb == "" {
		return ScoreSet{Sequence: 1, Jaccard: 1, Cosine: 1, Edit: 1, Length: 1, CommonWord: 1}
	}
	if na == "" || nb == "" {
		return ScoreSet{}
	}

	wordsA := splitWords(na)
	wordsB := splitWords(nb)
	runesA := []rune(na)
	runesB := []rune(nb)

	return ScoreSet{
		Sequence:   sequenceRatio(runesA, runesB),
		Jaccard:    jaccard(wordsA, wordsB),
		Cosine:     wordCosine(wordsA, wordsB),
		Edit:       editSimilarity(runesA, runesB),
		Length:     lengthRatio(len(runesA), len(runesB)),
		CommonWord: commonWordJaccard(wordsA, wordsB),
	}
}

func splitWords(normalized string) []string {
	if normalized == "" {
		return nil
	}
	words := make([]string, 0, 8)
	start := -1
	for i, r := range normalized {
		if r == ' ' {
			if start >= 0 {
				words = append(words, normalized[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, normalized[start:])
	}
	return words
}

// sequenceRatio is the classic matching-blocks ratio: twice the longest
// common subsequence length over the total length.
func sequenceRatio(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	lcs := lcsLength(a, b)
	return 2 * float64(lcs) / float64(len(a)+len(b))
}

func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func wordCosine(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	countsA := wordCounts(a)
	countsB := wordCounts(b)
	var dot, normA, normB float64
	for w, ca := range countsA {
		normA += ca * ca
		if cb, ok := countsB[w]; ok {
			dot += ca * cb
		}
	}
	for _, cb := range countsB {
		normB += cb * cb
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func wordCounts(words []string) map[string]float64 {
	counts := make(map[string]float64, len(words))
	for _, w := range words {
		counts[w]++
	}
	return counts
}

func editSimilarity(a, b []rune) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func lengthRatio(la, lb int) float64 {
	if la == 0 && lb == 0 {
		return 1
	}
	lo, hi := la, lb
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi == 0 {
		return 0
	}
	return float64(lo) / float64(hi)
}

func commonWordJaccard(a, b []string) float64 {
	return jaccard(filterStopWords(a), filterStopWords(b))
}

func filterStopWords(words []string) []string {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if IsStopWord(w) {
			continue
		}
		kept = append(kept, w)
	}
	return kept
}
