package anchor

import "subweave/internal/subtitle"

// FindNumberAnchors pairs events that share multi-digit numbers. Numbers
// survive translation verbatim, so even a single shared one is a usable
// anchor, though with a lower base confidence than keyword matches.
func FindNumberAnchors(source, reference subtitle.Sequence) []Candidate {
	sourceIndex := buildNumberIndex(source)
	referenceIndex := buildNumberIndex(reference)
	return matchInvertedIndexes(source, reference, sourceIndex, referenceIndex, MethodNumber, 0.4)
}

func buildNumberIndex(events subtitle.Sequence) map[string][]int {
	index := make(map[string][]int)
	for i, ev := range events {
		seen := map[string]struct{}{}
		for _, num := range multiDigitPattern.FindAllString(ev.Text, -1) {
			if _, dup := seen[num]; dup {
				continue
			}
			seen[num] = struct{}{}
			index[num] = append(index[num], i)
		}
	}
	return index
}
