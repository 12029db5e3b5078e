package anchor

import (
	"regexp"
	"sort"
	"strings"

	"subweave/internal/subtitle"
	"subweave/internal/textsim"
)

var multiDigitPattern = regexp.MustCompile(`\d{2,}`)

// FindKeywordAnchors pairs events that share translation-invariant keywords:
// ALL-CAPS tokens, multi-digit numbers, and capitalized words that are not
// sentence-initial. Proper nouns rarely translate, which makes them the most
// reliable cross-language signal. The returned candidates form a 1:1 mapping
// over both index spaces.
func FindKeywordAnchors(source, reference subtitle.Sequence) []Candidate {
	sourceIndex := buildKeywordIndex(source)
	referenceIndex := buildKeywordIndex(reference)
	return matchInvertedIndexes(source, reference, sourceIndex, referenceIndex, MethodKeyword, 0.5)
}

// buildKeywordIndex maps each anchor keyword to the event indices containing it.
func buildKeywordIndex(events subtitle.Sequence) map[string][]int {
	index := make(map[string][]int)
	for i, ev := range events {
		seen := map[string]struct{}{}
		for _, token := range extractKeywords(ev.Text) {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			index[token] = append(index[token], i)
		}
	}
	return index
}

// extractKeywords pulls anchor-worthy tokens from one event's text.
func extractKeywords(text string) []string {
	var keywords []string
	for _, line := range strings.Split(text, "\n") {
		lineHasCJK := textsim.ContainsCJK(line)
		fields := strings.Fields(line)
		sentenceStart := true
		for _, field := range fields {
			word := strings.Trim(field, ".,!?;:\"'()[]{}<>«»-—…")
			startOfSentence := sentenceStart
			sentenceStart = endsSentence(field)
			if word == "" {
				continue
			}
			if textsim.IsStopWord(word) {
				continue
			}
			switch {
			case multiDigitPattern.MatchString(word):
				for _, num := range multiDigitPattern.FindAllString(word, -1) {
					keywords = append(keywords, num)
				}
			case textsim.IsUpperWord(word) && len([]rune(word)) >= 2:
				keywords = append(keywords, word)
			case textsim.IsCapitalized(word) && (lineHasCJK || !startOfSentence):
				// In a CJK line any capitalized Latin word is a loanword or
				// name, regardless of position.
				keywords = append(keywords, word)
			}
		}
	}
	return keywords
}

func endsSentence(field string) bool {
	trimmed := strings.TrimRight(field, "\"')]}»")
	return strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?") ||
		strings.HasSuffix(trimmed, "…")
}

// matchInvertedIndexes pairs up events sharing at least one indexed token and
// greedily accepts pairs by descending shared-token count, never reusing an
// index on either side.
func matchInvertedIndexes(source, reference subtitle.Sequence, sourceIndex, referenceIndex map[string][]int, method Method, confidenceBase float64) []Candidate {
	type pairKey struct{ src, ref int }
	shared := make(map[pairKey][]string)
	for token, srcEvents := range sourceIndex {
		refEvents, ok := referenceIndex[token]
		if !ok {
			continue
		}
		for _, si := range srcEvents {
			for _, ri := range refEvents {
				key := pairKey{src: si, ref: ri}
				shared[key] = append(shared[key], token)
			}
		}
	}
	if len(shared) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(shared))
	for key, tokens := range shared {
		sort.Strings(tokens)
		confidence := confidenceBase + 0.2*float64(len(tokens))
		if confidence > 1 {
			confidence = 1
		}
		candidates = append(candidates, Candidate{
			SourceIndex:    key.src,
			ReferenceIndex: key.ref,
			Confidence:     confidence,
			Method:         method,
			TimeOffset:     reference[key.ref].Start - source[key.src].Start,
			MatchedTokens:  tokens,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if len(candidates[i].MatchedTokens) != len(candidates[j].MatchedTokens) {
			return len(candidates[i].MatchedTokens) > len(candidates[j].MatchedTokens)
		}
		if candidates[i].SourceIndex != candidates[j].SourceIndex {
			return candidates[i].SourceIndex < candidates[j].SourceIndex
		}
		return candidates[i].ReferenceIndex < candidates[j].ReferenceIndex
	})

	usedSource := map[int]struct{}{}
	usedReference := map[int]struct{}{}
	accepted := candidates[:0]
	for _, cand := range candidates {
		if _, ok := usedSource[cand.SourceIndex]; ok {
			continue
		}
		if _, ok := usedReference[cand.ReferenceIndex]; ok {
			continue
		}
		usedSource[cand.SourceIndex] = struct{}{}
		usedReference[cand.ReferenceIndex] = struct{}{}
		accepted = append(accepted, cand)
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].SourceIndex < accepted[j].SourceIndex
	})
	return accepted
}
